// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/net/publicsuffix"
)

// MaxResponseSize bounds the response body read from the router (8MB)
const MaxResponseSize = 8 * 1024 * 1024

// maxQueryID is the modulus of the JSON-RPC request id counter
const maxQueryID = 10_000_000_000

// sessionJar is a resettable cookie jar. Logout swaps the underlying jar so
// no session cookie outlives the session.
type sessionJar struct {
	mu  sync.Mutex
	jar *cookiejar.Jar
}

func newSessionJar() *sessionJar {
	j := &sessionJar{}
	j.Reset()
	return j
}

// SetCookies implements http.CookieJar
func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	jar := j.jar
	j.mu.Unlock()
	jar.SetCookies(u, cookies)
}

// Cookies implements http.CookieJar
func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	jar := j.jar
	j.mu.Unlock()
	return jar.Cookies(u)
}

// Reset drops all cookies
func (j *sessionJar) Reset() {
	// cookiejar.New only fails on invalid options
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
}

// newHTTPClient builds the HTTP client used for router RPCs
func (c *Client) newHTTPClient() (*http.Client, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		//nolint:gosec // G402: routers ship self-signed certificates, verification is opt-in
		InsecureSkipVerify: !c.VerifyCertificate,
	}

	if c.tlsCA != "" {
		pem, err := os.ReadFile(c.tlsCA)
		if err != nil {
			return nil, fmt.Errorf("read TLS CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("TLS CA bundle contains no certificates")
		}
		tlsConfig.RootCAs = pool
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	// One in-flight request at a time; a single idle connection is enough
	transport.MaxIdleConnsPerHost = 1

	return &http.Client{
		Transport: transport,
		Jar:       c.jar,
	}, nil
}

// nextQueryID returns the current request id and advances the counter
func (c *Client) nextQueryID() uint64 {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	id := c.queryID
	c.queryID = (c.queryID + 1) % maxQueryID
	return id
}

// encodeParams converts caller params into a JSON object or array
func encodeParams(method string, params any) (string, error) {
	var raw string

	switch p := params.(type) {
	case nil:
		raw = "{}"
	case Params:
		s, err := p.String()
		if err != nil {
			return "", &Error{Operation: method, Message: err.Error(), Kind: ErrWrongParameters}
		}
		raw = s
	case *Params:
		s, err := p.String()
		if err != nil {
			return "", &Error{Operation: method, Message: err.Error(), Kind: ErrWrongParameters}
		}
		raw = s
	case json.RawMessage:
		raw = string(p)
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return "", &Error{Operation: method, Message: "cannot encode params: " + err.Error(), Kind: ErrWrongParameters}
		}
		raw = string(data)
	}

	if !gjson.Valid(raw) {
		return "", newError(method, ErrWrongParameters, "params are not valid JSON")
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() && !parsed.IsArray() {
		return "", newError(method, ErrWrongParameters, "params must be a JSON object or array")
	}
	return raw, nil
}

// withSessionID attaches sid to params: merged as a key into objects (a
// caller-supplied "sid" wins), prepended to arrays
func withSessionID(raw, sid string) (string, error) {
	parsed := gjson.Parse(raw)

	if parsed.IsObject() {
		if parsed.Get("sid").Exists() {
			return raw, nil
		}
		return sjson.Set(raw, "sid", sid)
	}

	out, err := sjson.Set("[]", "-1", sid)
	if err != nil {
		return "", err
	}
	for _, elem := range parsed.Array() {
		out, err = sjson.SetRaw(out, "-1", elem.Raw)
		if err != nil {
			return "", err
		}
	}
	return out, nil
}

// buildRequest renders the JSON-RPC envelope for method and params
func (c *Client) buildRequest(method string, params any) ([]byte, error) {
	rawParams, err := encodeParams(method, params)
	if err != nil {
		return nil, err
	}

	if sid := c.SessionID(); sid != "" {
		rawParams, err = withSessionID(rawParams, sid)
		if err != nil {
			return nil, newError(method, ErrWrongParameters, "cannot attach session id: "+err.Error())
		}
	}

	body := `{}`
	for _, kv := range []struct {
		path  string
		value any
	}{
		{"jsonrpc", c.ProtocolVersion},
		{"id", c.nextQueryID()},
		{"method", method},
	} {
		if body, err = sjson.Set(body, kv.path, kv.value); err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
	}
	if body, err = sjson.SetRaw(body, "params", rawParams); err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return []byte(body), nil
}

// send issues one JSON-RPC request without any session precondition and
// classifies the response
func (c *Client) send(ctx context.Context, method string, params any) (Result, error) {
	rawParams, err := encodeParams(method, params)
	if err != nil {
		return Result{}, err
	}
	// encoded once, before the sid is attached
	params = json.RawMessage(rawParams)

	body, err := c.buildRequest(method, params)
	if err != nil {
		return Result{}, err
	}

	op := operationName(method, params)
	logged := c.prepareJSONForLogging(string(body))
	if sid := c.SessionID(); sid != "" {
		// array params carry the sid positionally, outside any "sid" key
		logged = strings.ReplaceAll(logged, sid, "[REDACTED]")
	}
	c.logger.Debug(ctx, "JSON-RPC request",
		"operation", op,
		"body", logged)

	status, respBody, err := c.roundTrip(ctx, body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("%s: %w", op, ctxErr)
		}
		c.logger.Error(ctx, "JSON-RPC request failed",
			"operation", op,
			"error", err.Error())
		return Result{}, &Error{Operation: op, Message: err.Error(), Kind: ErrConnection}
	}

	c.logger.Debug(ctx, "JSON-RPC response",
		"operation", op,
		"status", status,
		"body", c.prepareJSONForLogging(string(respBody)))

	return classifyResponse(method, params, status, respBody)
}

// roundTrip performs the HTTP POST. The wire lock covers exactly one
// request/response exchange.
func (c *Client) roundTrip(ctx context.Context, body []byte) (int, []byte, error) {
	if c.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.RequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.wireMu.Lock()
	defer c.wireMu.Unlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, data, nil
}

// classifyResponse turns a raw HTTP response into a Result or a typed error.
// Order: HTTP status, JSON-RPC error object, result.err_msg, result payload.
func classifyResponse(method string, params any, status int, body []byte) (Result, error) {
	op := operationName(method, params)

	if status != http.StatusOK {
		return Result{}, &Error{
			Operation:   op,
			StatusCode:  status,
			Message:     fmt.Sprintf("unexpected HTTP status %d", status),
			InternalMsg: string(body),
			Kind:        ErrConnection,
		}
	}

	if !gjson.ValidBytes(body) {
		return Result{}, &Error{
			Operation:   op,
			Message:     "response is not valid JSON",
			InternalMsg: string(body),
			Kind:        ErrConnection,
		}
	}
	parsed := gjson.ParseBytes(body)

	if rpcErr := parsed.Get("error"); rpcErr.Exists() && rpcErr.Type != gjson.Null {
		code := int(rpcErr.Get("code").Int())
		kind := kindForCode(code)
		msg := rpcErr.Get("message").String()
		if msg == "" {
			msg = kind.Error()
		}
		return Result{}, &Error{
			Operation:   op,
			Code:        code,
			Message:     msg,
			InternalMsg: rpcErr.Raw,
			Kind:        kind,
		}
	}

	result := parsed.Get("result")
	if !result.Exists() {
		return Result{}, &Error{
			Operation:   op,
			Message:     "response has neither result nor error",
			InternalMsg: string(body),
			Kind:        ErrConnection,
		}
	}
	if errMsg := result.Get("err_msg").String(); result.IsObject() && errMsg != "" {
		return Result{}, &Error{
			Operation:   op,
			Message:     errMsg,
			InternalMsg: string(body),
			Kind:        ErrConnection,
		}
	}

	return Result{Name: typeName(method, params), value: result}, nil
}

// operationName renders a method for errors and logs ("call system/get_info")
func operationName(method string, params any) string {
	if method == "call" {
		if module, action, ok := callTarget(params); ok {
			return "call " + module + "/" + action
		}
	}
	return method
}
