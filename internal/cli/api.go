// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/netascode/go-glinet"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// newAPICmd groups the API description commands
func newAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Browse the router API description",
		Long: `Browse the published API description. The document is downloaded once and
cached next to the credential.

Examples:
  glinet api list
  glinet api list wifi
  glinet api describe wifi set_config
  glinet api refresh`,
	}
	cmd.AddCommand(newAPIListCmd(), newAPIDescribeCmd(), newAPIRefreshCmd())
	return cmd
}

func newAPIListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [module]",
		Short: "List modules, or the calls of one module",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, client *glinet.Client) error {
				api, err := client.API(ctx)
				if err != nil {
					return err
				}
				if len(args) == 0 {
					return listModules(cmd, api)
				}
				return listCalls(cmd, api, args[0])
			})
		},
	}
}

func newAPIDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <module> <call>",
		Short: "Show the parameters and examples of a call",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, client *glinet.Client) error {
				api, err := client.API(ctx)
				if err != nil {
					return err
				}
				call, err := api.Lookup(args[0], args[1])
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), call)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s.%s (call %s %s)\n\n", args[0], call.Name, strings.Join(call.Module, " "), call.Title)
				fmt.Fprint(cmd.OutOrStdout(), call.String())
				return nil
			})
		},
	}
}

func newAPIRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Download the API description again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, client *glinet.Client) error {
				api, err := client.RefreshAPI(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), map[string]any{
						"result":  1,
						"modules": len(api.Modules()),
					})
				}
				okf(cmd, "API description refreshed: %d modules", len(api.Modules()))
				return nil
			})
		},
	}
}

// listModules renders one row per module with its call count
func listModules(cmd *cobra.Command, api *glinet.API) error {
	names := api.Modules()
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), names)
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		module, _ := api.Module(name)
		rows = append(rows, []string{name, strconv.Itoa(len(module.Calls()))})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Module", "Calls"}, rows))
	return nil
}

// listCalls renders the calls of module with their parameter names
func listCalls(cmd *cobra.Command, api *glinet.API, name string) error {
	module, ok := api.Module(name)
	if !ok {
		// Lookup produces the typed not-found error
		_, err := api.Lookup(name, "")
		return err
	}
	calls := module.Calls()
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), calls)
	}

	rows := make([][]string, 0, len(calls))
	for _, c := range calls {
		call, _ := module.Call(c)
		params := make([]string, 0, len(call.Params))
		for _, p := range call.Params {
			params = append(params, p.Name)
		}
		rows = append(rows, []string{c, strings.Join(params, " ")})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Call", "Parameters"}, rows))
	return nil
}

// renderTable draws a bordered table with a bold header row
func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}
