// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package cli implements the glinet command line front end.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/netascode/go-glinet"
)

var (
	// Global flags
	jsonOutput bool
	configFile string
	flags      Config

	// Resolved before every command
	config *Config
)

// ErrAlreadyHandled signals an error that has already been printed
var ErrAlreadyHandled = errors.New("already handled")

var okLabel = color.New(color.FgGreen)
var warnLabel = color.New(color.FgYellow)
var errorLabel = color.New(color.FgRed)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glinet [command] [flags]",
		Short: "Command line client for the GL.iNet router JSON-RPC API",
		Long: `glinet logs in to a GL.iNet router (firmware 4.x) and calls its JSON-RPC API.
The password hash is cached after the first login, so later commands need no password.

Examples:
  # Log in once and cache the password hash
  glinet login

  # Show model and firmware
  glinet status

  # Call a procedure with parameters
  glinet call wifi set_config iface=wlan0 enabled=true

  # List the documented modules
  glinet api list`,
		PersistentPreRunE: preRunHandlePersistents,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Path to configuration file to override default")
	pf.BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	pf.StringVar(&flags.URL, "url", "", "Router RPC endpoint (default "+glinet.DefaultURL+")")
	pf.StringVarP(&flags.Username, "username", "u", "", "Login user (default "+glinet.DefaultUsername+")")
	pf.BoolVar(&flags.VerifyCertificate, "verify", false, "Verify the router TLS certificate")
	pf.StringVar(&flags.CA, "ca", "", "PEM bundle trusted for the router certificate")
	pf.StringVar(&flags.CacheDir, "cache-dir", "", "Credential and API description cache directory")
	pf.DurationVar(&flags.Timeout, "timeout", 0, "Timeout of each request")
	pf.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error, none")

	cmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(),
		newStatusCmd(),
		newRequestCmd(),
		newCallCmd(),
		newAPICmd(),
		newCacheCmd(),
		newConfigCmd(),
	)
	return cmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	rootCmd.SilenceErrors = true // Prevent Cobra from printing the error
	rootCmd.SilenceUsage = true  // Prevent Cobra from printing usage on error

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		if !errors.Is(err, ErrAlreadyHandled) {
			printError(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

// preRunHandlePersistents merges config file, environment and flags
func preRunHandlePersistents(cmd *cobra.Command, _ []string) error {
	file := configFile
	if file == "" {
		var err error
		file, err = GetDefaultConfigPath()
		if err != nil {
			return err
		}
	}

	cfg, err := LoadConfig(file)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	mergeFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}
	config = cfg
	return nil
}

// mergeFlags copies the flags the user actually set over cfg
func mergeFlags(cmd *cobra.Command, cfg *Config) {
	changed := cmd.Flags().Changed
	if changed("url") {
		cfg.URL = flags.URL
	}
	if changed("username") {
		cfg.Username = flags.Username
	}
	if changed("verify") {
		cfg.VerifyCertificate = flags.VerifyCertificate
	}
	if changed("ca") {
		cfg.CA = flags.CA
	}
	if changed("cache-dir") {
		cfg.CacheDir = flags.CacheDir
	}
	if changed("timeout") {
		cfg.Timeout = flags.Timeout
	}
	if changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}
}

// newClient builds a client from the resolved configuration
func newClient(cmd *cobra.Command) (*glinet.Client, error) {
	level, err := glinet.ParseLogLevel(config.LogLevel)
	if err != nil {
		return nil, err
	}
	return glinet.NewClient(config.URL, config.ClientOptions(newLogger(cmd.ErrOrStderr(), level))...)
}

// withSession logs in, runs fn and logs out again
func withSession(cmd *cobra.Command, fn func(ctx context.Context, client *glinet.Client) error) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck // Close never fails

	ctx := cmd.Context()
	if err := client.Login(ctx); err != nil {
		return err
	}
	runErr := fn(ctx, client)

	if err := client.Logout(ctx); err != nil && runErr == nil {
		warnLabel.Fprintf(cmd.ErrOrStderr(), "Warning: logout failed: %v\n", err)
	}
	return runErr
}

// newVersionCmd creates and returns a new version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of glinet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath := configFile
			if configPath == "" {
				configPath, _ = GetDefaultConfigPath()
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version":     getCLIVersion(),
					"config_file": configPath,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "glinet CLI %s\n", getCLIVersion())
			fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n", configPath)
			return nil
		},
	}
}

// printError writes err with its router details when available
func printError(w io.Writer, err error) {
	if jsonOutput {
		_ = printJSON(w, map[string]string{"error": err.Error()})
		return
	}
	var gerr *glinet.Error
	if errors.As(err, &gerr) {
		errorLabel.Fprintf(w, "Error: %s\n", gerr.DetailedError())
		return
	}
	errorLabel.Fprintf(w, "Error: %v\n", err)
}

// getCLIVersion returns the current CLI version
func getCLIVersion() string {
	return "v0.1.0"
}

// okf prints a green status line unless JSON output is requested
func okf(cmd *cobra.Command, format string, args ...any) {
	if jsonOutput {
		return
	}
	okLabel.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}
