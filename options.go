// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"net/http"
	"time"
)

// Client configuration options using the functional options pattern

// Username sets the login user (default: root)
func Username(username string) func(*Client) {
	return func(c *Client) {
		c.Username = username
	}
}

// Password sets the router password
//
// A configured password always takes precedence over cached credentials.
// Leave it unset to use the credential cache and the interactive prompt.
func Password(password string) func(*Client) {
	return func(c *Client) {
		c.password = password
	}
}

// ProtocolVersion sets the JSON-RPC protocol version string (default: 2.0)
func ProtocolVersion(version string) func(*Client) {
	return func(c *Client) {
		c.ProtocolVersion = version
	}
}

// KeepAlive enables or disables the background keep-alive loop started by
// Login (default: true)
func KeepAlive(enabled bool) func(*Client) {
	return func(c *Client) {
		c.keepAliveEnabled.Store(enabled)
	}
}

// KeepAliveInterval sets the keep-alive probe interval (default: 30s)
//
// This is also the upper bound for how long Logout and Close wait for the
// loop to exit.
func KeepAliveInterval(interval time.Duration) func(*Client) {
	return func(c *Client) {
		c.KeepAliveInterval = interval
	}
}

// VerifyCertificate enables or disables TLS certificate verification
// (default: false, GL.iNet routers ship self-signed certificates)
//
// Example:
//
//	client, _ := glinet.NewClient("https://192.168.8.1/rpc",
//	    glinet.VerifyCertificate(true),
//	    glinet.TLSCA("/etc/ssl/glinet.pem"))
func VerifyCertificate(verify bool) func(*Client) {
	return func(c *Client) {
		c.VerifyCertificate = verify
	}
}

// TLSCA sets a PEM trust bundle used to verify the router certificate and
// enables verification
func TLSCA(caPath string) func(*Client) {
	return func(c *Client) {
		c.tlsCA = caPath
		if caPath != "" {
			c.VerifyCertificate = true
		}
	}
}

// APIReferenceURL sets the location of the API description document
func APIReferenceURL(u string) func(*Client) {
	return func(c *Client) {
		c.APIReferenceURL = u
	}
}

// RefreshAPIReference forces the API description to be downloaded instead
// of read from the cache on first use
func RefreshAPIReference(refresh bool) func(*Client) {
	return func(c *Client) {
		c.RefreshAPIReference = refresh
	}
}

// CacheDir overrides the cache directory. The directory must exist.
func CacheDir(dir string) func(*Client) {
	return func(c *Client) {
		c.cacheDir = dir
	}
}

// RequestTimeout sets the timeout of a single HTTP round trip (default: 15s,
// zero disables it)
func RequestTimeout(timeout time.Duration) func(*Client) {
	return func(c *Client) {
		c.RequestTimeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client. TLS options are ignored; if the
// client has no cookie jar the session jar is installed on it.
func WithHTTPClient(httpClient *http.Client) func(*Client) {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithPasswordPrompt replaces the interactive password prompt
//
// Example:
//
//	client, _ := glinet.NewClient("",
//	    glinet.WithPasswordPrompt(glinet.ReaderPrompt(os.Stdin)))
func WithPasswordPrompt(prompt PasswordPrompt) func(*Client) {
	return func(c *Client) {
		c.prompt = prompt
	}
}

// OnKeepAliveError registers a callback for failures of the keep-alive loop
// (probe errors and failed re-logins). The callback runs on the loop
// goroutine and must not call Logout, Close or StopKeepAlive.
func OnKeepAliveError(fn func(error)) func(*Client) {
	return func(c *Client) {
		c.onKeepAliveError = fn
	}
}

// WithLogger configures a custom logger for the client
//
// By default, the client uses NoOpLogger which discards all log messages.
// Request and response bodies logged at Debug level are redacted (hash,
// sid, nonce, salt, password and similar fields).
//
// Example:
//
//	logger := glinet.NewDefaultLogger(glinet.LogLevelInfo)
//	client, _ := glinet.NewClient("https://192.168.8.1/rpc",
//	    glinet.WithLogger(logger))
func WithLogger(logger Logger) func(*Client) {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrettyPrintLogs enables/disables JSON pretty printing in debug logs
// (default: false)
func WithPrettyPrintLogs(enabled bool) func(*Client) {
	return func(c *Client) {
		c.prettyPrintLogs = enabled
	}
}
