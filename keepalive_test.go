// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// TestStartKeepAliveRequiresSession verifies the loop refuses to start without a session
func TestStartKeepAliveRequiresSession(t *testing.T) {
	router := newFakeRouter(t, "secret")
	client := newTestClient(t, router)

	err := client.StartKeepAlive(context.Background())
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("StartKeepAlive() error = %v, want ErrNotLoggedIn", err)
	}
	if client.KeepAliveRunning() {
		t.Error("keep-alive should not run")
	}
}

// TestKeepAliveDoubleStart verifies a second start fails while the loop runs
func TestKeepAliveDoubleStart(t *testing.T) {
	router := newFakeRouter(t, "secret")
	client := newTestClient(t, router, Password("secret"))
	ctx := context.Background()

	if err := client.Login(ctx); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if client.KeepAliveRunning() {
		t.Fatal("keep-alive disabled, loop should not run after Login")
	}

	if err := client.StartKeepAlive(ctx); err != nil {
		t.Fatalf("first StartKeepAlive() error = %v", err)
	}
	if err := client.StartKeepAlive(ctx); !errors.Is(err, ErrKeepAliveAlreadyActive) {
		t.Errorf("second StartKeepAlive() error = %v, want ErrKeepAliveAlreadyActive", err)
	}

	client.StopKeepAlive()
	if client.KeepAliveRunning() {
		t.Error("keep-alive should be stopped")
	}
	if err := client.StartKeepAlive(ctx); err != nil {
		t.Errorf("StartKeepAlive() after stop error = %v", err)
	}
}

// TestStopKeepAliveInterruptsWait verifies Stop does not wait for the interval to elapse
func TestStopKeepAliveInterruptsWait(t *testing.T) {
	router := newFakeRouter(t, "secret")
	client := newTestClient(t, router,
		Password("secret"),
		KeepAlive(true),
		KeepAliveInterval(time.Hour))
	ctx := context.Background()

	if err := client.Login(ctx); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		client.StopKeepAlive()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("StopKeepAlive() did not return")
	}
	if client.KeepAliveRunning() {
		t.Error("keep-alive should be stopped")
	}
}

// TestStopKeepAliveJoins verifies no probe is sent after Stop returns
func TestStopKeepAliveJoins(t *testing.T) {
	router := newFakeRouter(t, "secret")
	interval := 10 * time.Millisecond
	client := newTestClient(t, router,
		Password("secret"),
		KeepAlive(true),
		KeepAliveInterval(interval))
	ctx := context.Background()

	if err := client.Login(ctx); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return router.count("alive") >= 3 }) {
		t.Fatal("keep-alive did not probe the session")
	}

	client.StopKeepAlive()
	probes := router.count("alive")
	time.Sleep(5 * interval)
	if got := router.count("alive"); got != probes {
		t.Errorf("alive requests after stop = %d, want %d", got, probes)
	}
}

// TestKeepAliveRelogin verifies the loop re-authenticates after the router drops the session
func TestKeepAliveRelogin(t *testing.T) {
	router := newFakeRouter(t, "secret")
	logger := &recordingLogger{}
	client := newTestClient(t, router,
		Password("secret"),
		KeepAlive(true),
		KeepAliveInterval(10*time.Millisecond),
		WithLogger(logger))
	ctx := context.Background()

	if err := client.Login(ctx); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	first := client.SessionID()

	router.expireSessions()

	if !waitFor(t, 2*time.Second, func() bool {
		sid := client.SessionID()
		return sid != "" && sid != first
	}) {
		t.Fatalf("session was not re-established, sid = %q", client.SessionID())
	}
	if !client.KeepAliveRunning() {
		t.Error("keep-alive should keep running after re-login")
	}
	if _, ok := logger.find("warn", "Session lost, logging in again"); !ok {
		t.Error("expected a warning about the lost session")
	}

	alive, err := client.IsAlive(ctx)
	if err != nil || !alive {
		t.Errorf("IsAlive() = %v, %v; want true, nil", alive, err)
	}
}

// TestKeepAliveReloginWithoutCredentials verifies the loop never prompts and
// reports the failure instead
func TestKeepAliveReloginWithoutCredentials(t *testing.T) {
	router := newFakeRouter(t, "secret")

	var prompts atomic.Int32
	failures := make(chan error, 16)
	client := newTestClient(t, router,
		KeepAlive(true),
		KeepAliveInterval(10*time.Millisecond),
		WithPasswordPrompt(func(context.Context, string) (string, error) {
			prompts.Add(1)
			return "secret", nil
		}),
		OnKeepAliveError(func(err error) {
			select {
			case failures <- err:
			default:
			}
		}))
	ctx := context.Background()

	if err := client.Login(ctx); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := client.FlushCache(); err != nil {
		t.Fatalf("FlushCache() error = %v", err)
	}
	router.expireSessions()

	select {
	case err := <-failures:
		if !errors.Is(err, ErrNoCredentials) {
			t.Errorf("keep-alive error = %v, want ErrNoCredentials", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("keep-alive failure was not reported")
	}
	if got := prompts.Load(); got != 1 {
		t.Errorf("prompt calls = %d, want 1 (only the interactive login)", got)
	}
	if client.SessionID() != "" {
		t.Errorf("SessionID() = %q, want empty", client.SessionID())
	}
}

// TestKeepAliveReloginRejected verifies a rejected re-login drops the cached credential
func TestKeepAliveReloginRejected(t *testing.T) {
	router := newFakeRouter(t, "secret")

	failures := make(chan error, 16)
	client := newTestClient(t, router,
		KeepAlive(true),
		KeepAliveInterval(10*time.Millisecond),
		WithPasswordPrompt(ReaderPrompt(strings.NewReader("secret\n"))),
		OnKeepAliveError(func(err error) {
			select {
			case failures <- err:
			default:
			}
		}))
	ctx := context.Background()

	if err := client.Login(ctx); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	router.setPassword("changed")
	router.expireSessions()

	select {
	case err := <-failures:
		if !errors.Is(err, ErrAccessDenied) {
			t.Errorf("keep-alive error = %v, want ErrAccessDenied", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("keep-alive failure was not reported")
	}

	client.StopKeepAlive()
	cred, err := client.Cache().LoadCredential()
	if err != nil {
		t.Fatalf("LoadCredential() error = %v", err)
	}
	if cred != nil {
		t.Errorf("credential should be deleted after rejection, got %+v", cred)
	}
}

// TestKeepAliveDisabledWhileRunning verifies SetKeepAlive(false) ends the loop
func TestKeepAliveDisabledWhileRunning(t *testing.T) {
	router := newFakeRouter(t, "secret")
	client := newTestClient(t, router,
		Password("secret"),
		KeepAlive(true),
		KeepAliveInterval(10*time.Millisecond))
	ctx := context.Background()

	if err := client.Login(ctx); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	client.SetKeepAlive(false)

	if !waitFor(t, 2*time.Second, func() bool { return !client.KeepAliveRunning() }) {
		t.Fatal("keep-alive loop did not exit after being disabled")
	}
	// Stop after a self-terminated loop must not block
	client.StopKeepAlive()
}
