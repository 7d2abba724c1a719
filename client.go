// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Default client configuration values
const (
	DefaultURL               = "https://192.168.8.1/rpc"
	DefaultUsername          = "root"
	DefaultProtocolVersion   = "2.0"
	DefaultKeepAlive         = true
	DefaultKeepAliveInterval = 30 * time.Second
	DefaultVerifyCertificate = false // routers ship self-signed certificates
	DefaultAPIReferenceURL   = "https://dev.gl-inet.cn/docs/api_docs_api/"
	DefaultRequestTimeout    = 15 * time.Second
	DefaultPrettyPrintLogs   = false
)

// Client manages an authenticated session with a GL.iNet router (firmware 4.x)
//
// The client owns the session id, the request counter, the cached credential
// and the keep-alive loop. All methods are safe for concurrent use. Wire
// traffic is serialized: at most one HTTP request is in flight at a time.
type Client struct {
	// Connection parameters
	URL             string
	Username        string
	password        string // unexported for security
	ProtocolVersion string

	// TLS options
	VerifyCertificate bool
	tlsCA             string

	// Keep-alive configuration
	KeepAliveInterval time.Duration
	keepAliveEnabled  atomic.Bool

	// API description source
	APIReferenceURL     string
	RefreshAPIReference bool

	// Timeout for a single HTTP round trip
	RequestTimeout time.Duration

	cacheDir string
	cache    *Cache

	httpClient *http.Client
	jar        *sessionJar

	// wireMu serializes HTTP round trips, never held across protocol steps
	wireMu sync.Mutex

	// stateMu guards sid, queryID and credential
	stateMu    sync.RWMutex
	sid        string
	queryID    uint64
	credential *Credential

	// keep-alive loop state, guarded by kaMu
	kaMu     sync.Mutex
	kaCancel context.CancelFunc
	kaDone   chan struct{}

	loginGroup singleflight.Group

	// API description, loaded lazily
	apiMu sync.Mutex
	api   *API

	prompt           PasswordPrompt
	onKeepAliveError func(error)

	// Logging configuration
	logger          Logger
	prettyPrintLogs bool
}

// NewClient creates a new client for the router RPC endpoint at rawURL
//
// No request is sent until Login (or Request) is called. An empty rawURL
// selects DefaultURL.
//
// Example:
//
//	client, err := glinet.NewClient(
//	    "https://192.168.8.1/rpc",
//	    glinet.Username("root"),
//	    glinet.Password("secret"),
//	    glinet.KeepAliveInterval(10*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.Login(ctx); err != nil {
//	    log.Fatal(err)
//	}
func NewClient(rawURL string, opts ...func(*Client)) (*Client, error) {
	if rawURL == "" {
		rawURL = DefaultURL
	}

	client := &Client{
		URL:               rawURL,
		Username:          DefaultUsername,
		ProtocolVersion:   DefaultProtocolVersion,
		VerifyCertificate: DefaultVerifyCertificate,
		KeepAliveInterval: DefaultKeepAliveInterval,
		APIReferenceURL:   DefaultAPIReferenceURL,
		RequestTimeout:    DefaultRequestTimeout,
		jar:               newSessionJar(),
		prompt:            TerminalPrompt,
		logger:            &NoOpLogger{},
		prettyPrintLogs:   DefaultPrettyPrintLogs,
	}
	client.keepAliveEnabled.Store(DefaultKeepAlive)

	for _, opt := range opts {
		opt(client)
	}

	if err := client.validateConfig(); err != nil {
		return nil, err
	}

	cache, err := NewCache(client.cacheDir)
	if err != nil {
		return nil, err
	}
	client.cache = cache

	if client.httpClient == nil {
		httpClient, err := client.newHTTPClient()
		if err != nil {
			return nil, err
		}
		client.httpClient = httpClient
	} else if client.httpClient.Jar == nil {
		client.httpClient.Jar = client.jar
	}

	client.logger.Info(context.Background(), "GL.iNet client created",
		"url", client.URL,
		"username", client.Username,
		"keep_alive", client.keepAliveEnabled.Load(),
		"cache_dir", client.cache.Dir())

	return client, nil
}

// validateConfig validates client configuration
func (c *Client) validateConfig() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", c.URL, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", c.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", c.URL)
	}

	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if c.ProtocolVersion == "" {
		return fmt.Errorf("protocol version cannot be empty")
	}
	if c.KeepAliveInterval <= 0 {
		return fmt.Errorf("keep-alive interval must be positive, got: %v", c.KeepAliveInterval)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative, got: %v", c.RequestTimeout)
	}
	if c.prompt == nil {
		return fmt.Errorf("password prompt cannot be nil")
	}

	if c.tlsCA != "" {
		if _, err := os.Stat(c.tlsCA); err != nil {
			c.logger.Debug(context.Background(), "TLS CA validation failed",
				"path", c.tlsCA,
				"error", err.Error())
			return fmt.Errorf("TLS CA file not found: %s", filepath.Base(c.tlsCA))
		}
	}

	if u.Scheme == "https" && !c.VerifyCertificate && c.tlsCA == "" {
		c.logger.Warn(context.Background(), "TLS certificate verification disabled",
			"url", c.URL,
			"security_risk", "Man-in-the-Middle attacks possible",
			"recommendation", "use VerifyCertificate(true) or TLSCA with the router certificate")
	}
	if u.Scheme == "http" {
		c.logger.Warn(context.Background(), "TLS disabled - connection is not encrypted",
			"url", c.URL)
	}

	return nil
}

// SessionID returns the current session id, empty when logged out
func (c *Client) SessionID() string {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.sid
}

// HasCredentials reports whether a password is configured or a credential
// is loaded. The values themselves are never exposed.
func (c *Client) HasCredentials() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.password != "" || c.credential != nil
}

// Cache returns the client's credential and API description cache
func (c *Client) Cache() *Cache {
	return c.cache
}

// KeepAliveEnabled reports whether Login starts the keep-alive loop
func (c *Client) KeepAliveEnabled() bool {
	return c.keepAliveEnabled.Load()
}

// SetKeepAlive enables or disables the keep-alive loop. Disabling makes a
// running loop exit after its current wait; use StopKeepAlive to wait for it.
func (c *Client) SetKeepAlive(enabled bool) {
	c.keepAliveEnabled.Store(enabled)
}

// FlushCache deletes the cache directory (credential and API description)
// and forgets the in-memory credential. The loaded API description stays
// in use until RefreshAPI is called.
func (c *Client) FlushCache() error {
	c.stateMu.Lock()
	c.credential = nil
	c.stateMu.Unlock()

	if err := c.cache.Flush(); err != nil {
		return err
	}
	c.logger.Info(context.Background(), "Cache flushed",
		"dir", c.cache.Dir())
	return nil
}

// Close stops the keep-alive loop and releases idle connections. The
// session on the router is left untouched; call Logout first to end it.
//
// Safe to call multiple times.
func (c *Client) Close() error {
	c.StopKeepAlive()
	c.httpClient.CloseIdleConnections()
	return nil
}

// Request sends a JSON-RPC request after enforcing the method's session
// precondition (see ModeFor).
//
// params must encode to a JSON object or array; Params, json.RawMessage,
// maps, slices and structs are accepted. When logged in the session id is
// attached automatically. Request never changes the session state.
//
// Example:
//
//	res, err := client.Request(ctx, "call", []any{"system", "get_info"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Get("model").String())
func (c *Client) Request(ctx context.Context, method string, params any) (Result, error) {
	if err := c.checkPolicy(ctx, method); err != nil {
		return Result{}, err
	}
	return c.send(ctx, method, params)
}

// Call invokes module/action through the "call" method. An optional payload
// (typically Params or a map) is appended to the call parameters.
//
// Example:
//
//	res, err := client.Call(ctx, "led", "get_config")
func (c *Client) Call(ctx context.Context, module, action string, payload ...any) (Result, error) {
	params := make([]any, 0, 2+len(payload))
	params = append(params, module, action)
	for _, p := range payload {
		if raw, ok := p.(Params); ok {
			s, err := raw.String()
			if err != nil {
				return Result{}, &Error{Operation: "call " + module + "/" + action, Message: err.Error(), Kind: ErrWrongParameters}
			}
			params = append(params, rawJSON(s))
			continue
		}
		params = append(params, p)
	}
	return c.Request(ctx, "call", params)
}

// rawJSON marshals as the JSON text it holds
type rawJSON string

// MarshalJSON implements json.Marshaler
func (r rawJSON) MarshalJSON() ([]byte, error) {
	return []byte(r), nil
}
