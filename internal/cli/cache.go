// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netascode/go-glinet"
)

// openCache returns the cache selected by the configuration
func openCache() (*glinet.Cache, error) {
	return glinet.NewCache(config.CacheDir)
}

// newCacheCmd groups cache maintenance commands
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or flush the credential and API description cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the cache file locations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cache, err := openCache()
				if err != nil {
					return err
				}
				_, credErr := os.Stat(cache.CredentialPath())
				_, apiErr := os.Stat(cache.APIDescriptionPath())
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), map[string]any{
						"dir":                    cache.Dir(),
						"credential":             cache.CredentialPath(),
						"credential_cached":      credErr == nil,
						"api_description":        cache.APIDescriptionPath(),
						"api_description_cached": apiErr == nil,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Directory:        %s\n", cache.Dir())
				fmt.Fprintf(out, "Credential:       %s (%s)\n", cache.CredentialPath(), cachedLabel(credErr))
				fmt.Fprintf(out, "API description:  %s (%s)\n", cache.APIDescriptionPath(), cachedLabel(apiErr))
				return nil
			},
		},
		&cobra.Command{
			Use:   "flush",
			Short: "Delete the cached credential and API description",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cache, err := openCache()
				if err != nil {
					return err
				}
				if err := cache.Flush(); err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), map[string]any{"result": 1})
				}
				okf(cmd, "Cache flushed: %s", cache.Dir())
				return nil
			},
		},
	)
	return cmd
}

func cachedLabel(statErr error) string {
	if statErr == nil {
		return "cached"
	}
	return "missing"
}

// newConfigCmd manages the configuration file
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the configuration file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				shown := *config
				if shown.Password != "" {
					shown.Password = "[REDACTED]"
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), shown)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "URL:        %s\n", shown.URL)
				fmt.Fprintf(out, "Username:   %s\n", shown.Username)
				fmt.Fprintf(out, "Verify TLS: %t\n", shown.VerifyCertificate)
				fmt.Fprintf(out, "CA:         %s\n", shown.CA)
				fmt.Fprintf(out, "Cache dir:  %s\n", shown.CacheDir)
				fmt.Fprintf(out, "Timeout:    %s\n", shown.Timeout)
				fmt.Fprintf(out, "Log level:  %s\n", shown.LogLevel)
				return nil
			},
		},
		&cobra.Command{
			Use:   "create",
			Short: "Write the effective configuration (without password) to the config file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				file := configFile
				if file == "" {
					var err error
					if file, err = GetDefaultConfigPath(); err != nil {
						return err
					}
				}
				cfg := *config
				cfg.Password = ""
				if err := cfg.WriteConfig(file); err != nil {
					return err
				}
				okf(cmd, "Configuration written to %s", file)
				return nil
			},
		},
	)
	return cmd
}
