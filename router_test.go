// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

// rpcError is a JSON-RPC error object returned by the fake router
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// callHandler answers one module/action of the "call" method
type callHandler func(payload gjson.Result) (any, *rpcError)

// fakeRouter emulates the router RPC endpoint: challenge/login with a
// single-use nonce, alive, logout and call. API documents are served from a
// separate plain HTTP server, like the public documentation host.
type fakeRouter struct {
	t      *testing.T
	server *httptest.Server
	docs   *httptest.Server

	mu       sync.Mutex
	username string
	password string
	alg      string
	salt     string
	nonce    string
	nonceSeq int
	sidSeq   int
	sessions map[string]bool
	methods  []string
	bodies   []string
	logins   []gjson.Result
	handlers map[string]callHandler
	apiDoc   string
	docHits  int
	docCode  int
	status   int
}

func newFakeRouter(t *testing.T, password string) *fakeRouter {
	t.Helper()

	r := &fakeRouter{
		t:        t,
		username: DefaultUsername,
		password: password,
		alg:      AlgSHA512,
		salt:     "kQnjFuzNQ9SlALbP",
		sessions: make(map[string]bool),
		handlers: make(map[string]callHandler),
		apiDoc:   testAPIDocument,
	}
	r.handlers["system/get_info"] = func(gjson.Result) (any, *rpcError) {
		return map[string]any{"model": "mt3000", "firmware_version": "4.5.0"}, nil
	}

	r.server = httptest.NewTLSServer(http.HandlerFunc(r.serveRPC))
	r.docs = httptest.NewServer(http.HandlerFunc(r.serveDocs))
	t.Cleanup(func() {
		r.server.Close()
		r.docs.Close()
	})
	return r
}

// URL returns the RPC endpoint
func (r *fakeRouter) URL() string {
	return r.server.URL + "/rpc"
}

// DocsURL returns the API reference location
func (r *fakeRouter) DocsURL() string {
	return r.docs.URL + "/docs/api_docs_api/"
}

func (r *fakeRouter) serveRPC(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != 0 {
		w.WriteHeader(r.status)
		_, _ = w.Write([]byte("router unavailable"))
		return
	}

	parsed := gjson.ParseBytes(body)
	method := parsed.Get("method").String()
	params := parsed.Get("params")
	r.methods = append(r.methods, method)
	r.bodies = append(r.bodies, string(body))

	result, rerr := r.dispatch(method, params)

	resp := map[string]any{
		"jsonrpc": "2.0",
		"id":      parsed.Get("id").Value(),
	}
	if rerr != nil {
		resp["error"] = rerr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// dispatch requires r.mu
func (r *fakeRouter) dispatch(method string, params gjson.Result) (any, *rpcError) {
	denied := &rpcError{Code: CodeAccessDenied, Message: "Access denied"}

	switch method {
	case "challenge":
		r.nonceSeq++
		r.nonce = fmt.Sprintf("nonce-%d", r.nonceSeq)
		return map[string]string{"alg": r.alg, "salt": r.salt, "nonce": r.nonce}, nil

	case "login":
		r.logins = append(r.logins, params)
		nonce := r.nonce
		r.nonce = ""
		hash, err := UnixHash(r.password, r.alg, r.salt)
		if err != nil {
			r.t.Errorf("fake router: %v", err)
			return nil, denied
		}
		want := LoginDigest(r.username, hash, nonce)
		if nonce == "" || params.Get("username").String() != r.username || params.Get("hash").String() != want {
			return nil, denied
		}
		r.sidSeq++
		sid := fmt.Sprintf("sid-%04d", r.sidSeq)
		r.sessions[sid] = true
		return map[string]string{"sid": sid, "username": r.username}, nil

	case "alive":
		if !r.sessions[params.Get("sid").String()] {
			return nil, denied
		}
		return map[string]any{}, nil

	case "logout":
		sid := params.Get("sid").String()
		if !r.sessions[sid] {
			return nil, denied
		}
		delete(r.sessions, sid)
		return map[string]any{}, nil

	case "call":
		args := params.Array()
		if len(args) < 3 || !r.sessions[args[0].String()] {
			return nil, denied
		}
		handler, ok := r.handlers[args[1].String()+"/"+args[2].String()]
		if !ok {
			return nil, &rpcError{Code: CodeMethodNotFound, Message: "Method not found"}
		}
		var payload gjson.Result
		if len(args) > 3 {
			payload = args[3]
		}
		return handler(payload)

	default:
		return nil, &rpcError{Code: CodeMethodNotFound, Message: "Method not found"}
	}
}

func (r *fakeRouter) serveDocs(w http.ResponseWriter, _ *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docHits++
	w.Header().Set("Content-Type", "application/json")
	if r.docCode != 0 {
		w.WriteHeader(r.docCode)
	}
	_, _ = io.WriteString(w, r.apiDoc)
}

// expireSessions drops every session, as a router reboot would
func (r *fakeRouter) expireSessions() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]bool)
}

func (r *fakeRouter) setPassword(password string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.password = password
}

func (r *fakeRouter) setStatus(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
}

// setDocs replaces the served API document; a non-zero status overrides 200
func (r *fakeRouter) setDocs(status int, doc string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docCode = status
	r.apiDoc = doc
}

func (r *fakeRouter) handle(target string, h callHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[target] = h
}

// Methods returns the methods received so far
func (r *fakeRouter) Methods() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.methods...)
}

// Bodies returns the raw request bodies received so far
func (r *fakeRouter) Bodies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.bodies...)
}

// loginParams returns the params of every login request
func (r *fakeRouter) loginParams() []gjson.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]gjson.Result(nil), r.logins...)
}

func (r *fakeRouter) count(method string) int {
	n := 0
	for _, m := range r.Methods() {
		if m == method {
			n++
		}
	}
	return n
}

func (r *fakeRouter) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods = nil
	r.bodies = nil
	r.logins = nil
}

func (r *fakeRouter) docRequests() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docHits
}

// newTestClient returns a client bound to router with an isolated cache
// directory and keep-alive disabled
func newTestClient(t *testing.T, router *fakeRouter, opts ...func(*Client)) *Client {
	t.Helper()

	base := []func(*Client){
		CacheDir(t.TempDir()),
		KeepAlive(false),
		APIReferenceURL(router.DocsURL()),
		RequestTimeout(5 * time.Second),
		WithPasswordPrompt(func(context.Context, string) (string, error) {
			t.Errorf("unexpected password prompt")
			return "", fmt.Errorf("no prompt in tests")
		}),
	}
	client, err := NewClient(router.URL(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// recordingLogger captures log calls
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level  string
	msg    string
	fields map[string]any
}

func (l *recordingLogger) record(level, msg string, keysAndValues ...any) {
	fields := make(map[string]any)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(_ context.Context, msg string, keysAndValues ...any) {
	l.record("debug", msg, keysAndValues...)
}

func (l *recordingLogger) Info(_ context.Context, msg string, keysAndValues ...any) {
	l.record("info", msg, keysAndValues...)
}

func (l *recordingLogger) Warn(_ context.Context, msg string, keysAndValues ...any) {
	l.record("warn", msg, keysAndValues...)
}

func (l *recordingLogger) Error(_ context.Context, msg string, keysAndValues ...any) {
	l.record("error", msg, keysAndValues...)
}

func (l *recordingLogger) find(level, msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

func (l *recordingLogger) all() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]logEntry(nil), l.entries...)
}

const testAPIDocument = `{
  "data": [
    {
      "module_name": ["clients"],
      "case_groups_data": {
        "get_status": {
          "module_name": ["clients"],
          "data": {"title": "get_status"},
          "params": [
            {"keyName": "mac?", "dataType__name": "string", "desp": "client MAC address"}
          ],
          "in_example": "{\"jsonrpc\":\"2.0\",\"method\":\"call\"}",
          "out_example": "{\"jsonrpc\":\"2.0\",\"result\":{}}"
        }
      }
    },
    {
      "module_name": ["repeater-ng"],
      "case_groups_data": {
        "scan": {
          "data": {"title": "scan"},
          "params": []
        }
      }
    }
  ]
}`
