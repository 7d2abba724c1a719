// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/netascode/go-glinet"
)

// DefaultConfigFile is the default name of the config file
const DefaultConfigFile = "config.yaml"

// Environment variables consulted after the config file
const (
	envURL      = "GLINET_URL"
	envUsername = "GLINET_USERNAME"
	envPassword = "GLINET_PASSWORD"
)

// Config is the CLI configuration. Flags override the file, the
// environment overrides both for the password.
type Config struct {
	// URL is the router RPC endpoint
	URL string `yaml:"url"`
	// Username defaults to root
	Username string `yaml:"username,omitempty"`
	// Password is optional; without it the cached hash or a prompt is used
	Password string `yaml:"password,omitempty"`
	// VerifyCertificate enables TLS verification of the router certificate
	VerifyCertificate bool `yaml:"verify_certificate,omitempty"`
	// CA is a PEM bundle trusted for the router certificate
	CA string `yaml:"ca,omitempty"`
	// CacheDir overrides the credential and API description cache location
	CacheDir string `yaml:"cache_dir,omitempty"`
	// Timeout bounds each HTTP round trip
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// LogLevel is one of debug, info, warn, error, none
	LogLevel string `yaml:"log_level,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{
		URL:      glinet.DefaultURL,
		Username: glinet.DefaultUsername,
		Timeout:  glinet.DefaultRequestTimeout,
		LogLevel: "warn",
	}
}

// GetDefaultConfigPath returns the default path for the config file
// (e.g. ~/.config/glinet/config.yaml on Linux)
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "glinet", DefaultConfigFile), nil
}

// LoadConfig reads file over the defaults. A missing file is not an error.
func LoadConfig(file string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file %s: %w", file, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from GLINET_* environment variables
func (cfg *Config) ApplyEnv() {
	if v := os.Getenv(envURL); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv(envUsername); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv(envPassword); v != "" {
		cfg.Password = v
	}
}

// Validate checks the fields the client cannot default
func (cfg *Config) Validate() error {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid url %q", cfg.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must start with http:// or https://", cfg.URL)
	}
	if cfg.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if _, err := glinet.ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// WriteConfig writes the configuration to file with owner-only permissions
func (cfg *Config) WriteConfig(file string) error {
	if file == "" {
		return errors.New("file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("unable to generate configuration: %w", err)
	}
	if err := os.WriteFile(file, data, 0o600); err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	return nil
}

// ClientOptions converts the configuration into client options
func (cfg *Config) ClientOptions(logger glinet.Logger) []func(*glinet.Client) {
	opts := []func(*glinet.Client){
		glinet.Username(cfg.Username),
		glinet.VerifyCertificate(cfg.VerifyCertificate),
		glinet.WithLogger(logger),
		// One command per process; the loop would only outlive the command
		glinet.KeepAlive(false),
	}
	if cfg.Password != "" {
		opts = append(opts, glinet.Password(cfg.Password))
	}
	if cfg.CA != "" {
		opts = append(opts, glinet.TLSCA(cfg.CA))
	}
	if cfg.CacheDir != "" {
		opts = append(opts, glinet.CacheDir(cfg.CacheDir))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, glinet.RequestTimeout(cfg.Timeout))
	}
	return opts
}
