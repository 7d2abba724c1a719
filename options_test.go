// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"context"
	"net/http"
	"testing"
	"time"
)

// TestUsernameOption tests the Username functional option
func TestUsernameOption(t *testing.T) {
	client := &Client{}
	opt := Username("admin")
	opt(client)

	if client.Username != "admin" {
		t.Errorf("Username() set Username to %q, want %q", client.Username, "admin")
	}
}

// TestPasswordOption tests the Password functional option
func TestPasswordOption(t *testing.T) {
	client := &Client{}
	opt := Password("secret123")
	opt(client)

	if client.password != "secret123" {
		t.Errorf("Password() set password to %q, want %q", client.password, "secret123")
	}
}

// TestTLSCAOption tests the TLSCA functional option
func TestTLSCAOption(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantVerify bool
	}{
		{name: "path enables verification", path: "/path/to/ca.pem", wantVerify: true},
		{name: "empty path leaves verification", path: "", wantVerify: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{}
			TLSCA(tt.path)(client)

			if client.tlsCA != tt.path {
				t.Errorf("TLSCA() set tlsCA to %q, want %q", client.tlsCA, tt.path)
			}
			if client.VerifyCertificate != tt.wantVerify {
				t.Errorf("VerifyCertificate = %v, want %v", client.VerifyCertificate, tt.wantVerify)
			}
		})
	}
}

// TestVerifyCertificateOption tests the VerifyCertificate functional option
func TestVerifyCertificateOption(t *testing.T) {
	for _, verify := range []bool{true, false} {
		client := &Client{VerifyCertificate: !verify}
		VerifyCertificate(verify)(client)
		if client.VerifyCertificate != verify {
			t.Errorf("VerifyCertificate(%v) set VerifyCertificate to %v", verify, client.VerifyCertificate)
		}
	}
}

// TestKeepAliveOptions tests the keep-alive functional options
func TestKeepAliveOptions(t *testing.T) {
	client := &Client{}
	KeepAlive(true)(client)
	KeepAliveInterval(5 * time.Second)(client)

	if !client.KeepAliveEnabled() {
		t.Error("KeepAlive(true) did not enable keep-alive")
	}
	if client.KeepAliveInterval != 5*time.Second {
		t.Errorf("KeepAliveInterval = %v, want 5s", client.KeepAliveInterval)
	}

	KeepAlive(false)(client)
	if client.KeepAliveEnabled() {
		t.Error("KeepAlive(false) did not disable keep-alive")
	}
}

// TestStringOptions tests options that set plain fields
func TestStringOptions(t *testing.T) {
	client := &Client{}
	ProtocolVersion("2.1")(client)
	APIReferenceURL("https://example.com/api")(client)
	RefreshAPIReference(true)(client)
	CacheDir("/tmp/glinet")(client)
	RequestTimeout(3 * time.Second)(client)

	if client.ProtocolVersion != "2.1" {
		t.Errorf("ProtocolVersion = %q", client.ProtocolVersion)
	}
	if client.APIReferenceURL != "https://example.com/api" {
		t.Errorf("APIReferenceURL = %q", client.APIReferenceURL)
	}
	if !client.RefreshAPIReference {
		t.Error("RefreshAPIReference not set")
	}
	if client.cacheDir != "/tmp/glinet" {
		t.Errorf("cacheDir = %q", client.cacheDir)
	}
	if client.RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %v", client.RequestTimeout)
	}
}

// TestWithHTTPClientOption tests the WithHTTPClient functional option
func TestWithHTTPClientOption(t *testing.T) {
	custom := &http.Client{}
	client := &Client{}
	WithHTTPClient(custom)(client)
	if client.httpClient != custom {
		t.Error("WithHTTPClient() did not set the client")
	}

	WithHTTPClient(nil)(client)
	if client.httpClient != custom {
		t.Error("WithHTTPClient(nil) should be ignored")
	}
}

// TestWithPasswordPromptOption tests the WithPasswordPrompt functional option
func TestWithPasswordPromptOption(t *testing.T) {
	client := &Client{}
	WithPasswordPrompt(func(context.Context, string) (string, error) {
		return "from-prompt", nil
	})(client)

	pw, err := client.prompt(context.Background(), "root")
	if err != nil || pw != "from-prompt" {
		t.Errorf("prompt() = %q, %v", pw, err)
	}
}

// TestOnKeepAliveErrorOption tests the OnKeepAliveError functional option
func TestOnKeepAliveErrorOption(t *testing.T) {
	var got error
	client := &Client{}
	OnKeepAliveError(func(err error) { got = err })(client)

	client.onKeepAliveError(ErrNoCredentials)
	if got != ErrNoCredentials {
		t.Errorf("callback received %v", got)
	}
}

// TestWithLoggerOption tests the WithLogger functional option
func TestWithLoggerOption(t *testing.T) {
	customLogger := &DefaultLogger{level: LogLevelDebug}
	client := &Client{}
	opt := WithLogger(customLogger)
	opt(client)

	if client.logger != customLogger {
		t.Error("WithLogger() did not set custom logger")
	}

	WithLogger(nil)(client)
	if client.logger != customLogger {
		t.Error("WithLogger(nil) should be ignored")
	}
}

// TestWithPrettyPrintLogsOption tests the WithPrettyPrintLogs functional option
func TestWithPrettyPrintLogsOption(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
	}{
		{
			name:    "pretty print enabled",
			enabled: true,
		},
		{
			name:    "pretty print disabled",
			enabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{}
			opt := WithPrettyPrintLogs(tt.enabled)
			opt(client)

			if client.prettyPrintLogs != tt.enabled {
				t.Errorf("WithPrettyPrintLogs() set prettyPrintLogs to %v, want %v",
					client.prettyPrintLogs, tt.enabled)
			}
		})
	}
}
