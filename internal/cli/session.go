// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netascode/go-glinet"
)

// newLoginCmd authenticates once so the password hash gets cached
func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and cache the password hash",
		Long: `Log in to the router. Without a configured password you are prompted for it.
The resulting password hash is cached, so later commands log in without a password.

Examples:
  # Prompt for the password
  glinet login

  # Log in to another router as a different user
  glinet login --url https://10.0.0.1/rpc -u admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(_ context.Context, client *glinet.Client) error {
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), map[string]any{
						"result":   1,
						"username": config.Username,
						"cache":    client.Cache().CredentialPath(),
					})
				}
				okf(cmd, "Logged in as %s", config.Username)
				fmt.Fprintf(cmd.OutOrStdout(), "Credential cached in %s\n", client.Cache().CredentialPath())
				return nil
			})
		},
	}
}

// newStatusCmd shows router identity and session health
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show router model, firmware and session state",
		Long: `Log in, read the system information and check that the session is alive.

Examples:
  # Get router status
  glinet status

  # Get router status in JSON format
  glinet status -j`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, client *glinet.Client) error {
				info, err := client.Call(ctx, "system", "get_info")
				if err != nil {
					return err
				}
				alive, err := client.IsAlive(ctx)
				if err != nil {
					return err
				}

				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), map[string]any{
						"result":  1,
						"url":     config.URL,
						"alive":   alive,
						"version": getCLIVersion(),
						"value":   info.Value(),
					})
				}

				fmt.Fprintf(cmd.OutOrStdout(), "glinet CLI %s\n", getCLIVersion())
				fmt.Fprintf(cmd.OutOrStdout(), "Router:    %s\n", config.URL)
				fmt.Fprintf(cmd.OutOrStdout(), "Model:     %s\n", info.Get("model").String())
				fmt.Fprintf(cmd.OutOrStdout(), "Firmware:  %s\n", info.Get("firmware_version").String())
				fmt.Fprintf(cmd.OutOrStdout(), "MAC:       %s\n", info.Get("mac").String())
				if alive {
					okf(cmd, "Session:   alive")
				} else {
					warnLabel.Fprintln(cmd.OutOrStdout(), "Session:   not alive")
				}
				return nil
			})
		},
	}
}

// newRequestCmd sends a raw JSON-RPC request
func newRequestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "request <method> [params-json]",
		Short: "Send a raw JSON-RPC request",
		Long: `Send a JSON-RPC request by method name. params must be a JSON object or array;
the session id is added automatically.

Examples:
  glinet request call '["system","get_status"]'
  glinet request alive`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var params any
			if len(args) == 2 {
				params = json.RawMessage(args[1])
			}
			return withSession(cmd, func(ctx context.Context, client *glinet.Client) error {
				res, err := client.Request(ctx, args[0], params)
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), res)
			})
		},
	}
}

// newCallCmd invokes module/action with key=value params
func newCallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <module> <action> [key=value ...]",
		Short: "Call a router procedure",
		Long: `Call module/action. Parameters are given as key=value pairs; JSON values
(numbers, booleans, objects) are sent as JSON, anything else as a string.

Examples:
  glinet call system get_info
  glinet call wifi set_config iface_name=wlan0 enabled=true
  glinet call clients get_status 'mac="AA:BB:CC:DD:EE:FF"'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload []any
			if len(args) > 2 {
				params, err := parseAssignments(args[2:])
				if err != nil {
					return err
				}
				payload = append(payload, params)
			}
			return withSession(cmd, func(ctx context.Context, client *glinet.Client) error {
				res, err := client.Call(ctx, args[0], args[1], payload...)
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), res)
			})
		},
	}
}
