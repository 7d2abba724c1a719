// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"context"
	"errors"
	"fmt"
)

// Challenge is the server-issued tuple used to compute a login hash.
// The nonce is single-use.
type Challenge struct {
	Alg   string `json:"alg"`
	Salt  string `json:"salt"`
	Nonce string `json:"nonce"`
}

// IsAlive reports whether the current session is still valid
//
// Returns false without contacting the router when no session id is set.
// An access-denied answer yields false and clears the probed session id;
// any other failure is returned as an error.
func (c *Client) IsAlive(ctx context.Context) (bool, error) {
	sid := c.SessionID()
	if sid == "" {
		return false, nil
	}

	_, err := c.send(ctx, "alive", map[string]string{"sid": sid})
	if errors.Is(err, ErrAccessDenied) {
		c.clearSessionID(sid)
		c.logger.Debug(ctx, "Session no longer alive")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Login authenticates with the router and stores the session id
//
// Login is a no-op when the session is already alive. Without a configured
// password the cached credential is used; if there is none the password
// prompt is invoked and the resulting hash is cached. A configured password
// always recomputes the hash. If the router rejects the credentials the
// cached credential is deleted and an error matching ErrAccessDenied is
// returned.
//
// When keep-alive is enabled the background loop is started on success.
// Concurrent Login calls share a single login sequence.
func (c *Client) Login(ctx context.Context) error {
	login := func() (any, error) {
		return nil, c.login(ctx, true)
	}
	_, err, shared := c.loginGroup.Do("login", login)
	if shared && inheritedLoginError(ctx, err) {
		// joined a keep-alive re-login, which neither prompts nor runs on ctx
		_, err, _ = c.loginGroup.Do("login", login)
	}
	if err != nil {
		return err
	}

	if c.keepAliveEnabled.Load() {
		if err := c.StartKeepAlive(ctx); err != nil && !errors.Is(err, ErrKeepAliveAlreadyActive) {
			return err
		}
	}
	return nil
}

// relogin re-establishes the session from the keep-alive loop. It never
// prompts and never starts another loop.
func (c *Client) relogin(ctx context.Context) error {
	_, err, _ := c.loginGroup.Do("login", func() (any, error) {
		return nil, c.login(ctx, false)
	})
	return err
}

// inheritedLoginError reports whether err from a shared login belongs to
// another caller: a non-interactive credential miss, or a cancellation of a
// context other than ctx
func inheritedLoginError(ctx context.Context, err error) bool {
	if errors.Is(err, ErrNoCredentials) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ctx.Err() == nil
	}
	return false
}

// login runs the challenge/response sequence
func (c *Client) login(ctx context.Context, interactive bool) error {
	alive, err := c.IsAlive(ctx)
	if err != nil {
		return err
	}
	if alive {
		c.logger.Info(ctx, "Already logged in, nothing to do")
		return nil
	}

	challenge, err := c.challenge(ctx)
	if err != nil {
		return err
	}

	cred, err := c.resolveCredential(ctx, challenge, interactive)
	if err != nil {
		return err
	}

	// The first nonce may already be stale after a password prompt
	challenge, err = c.challenge(ctx)
	if err != nil {
		return err
	}

	res, err := c.Request(ctx, "login", map[string]string{
		"username": c.Username,
		"hash":     LoginDigest(c.Username, cred.Hash, challenge.Nonce),
	})
	if errors.Is(err, ErrAccessDenied) {
		c.logger.Warn(ctx, "Login rejected, deleting cached credentials",
			"username", c.Username)
		c.stateMu.Lock()
		c.credential = nil
		c.sid = ""
		c.stateMu.Unlock()
		if derr := c.cache.DeleteCredential(); derr != nil {
			c.logger.Error(ctx, "Failed to delete cached credentials",
				"error", derr.Error())
		}
		return err
	}
	if err != nil {
		return err
	}

	sid := res.Get("sid").String()
	if sid == "" {
		return &Error{
			Operation:   "login",
			Message:     "response carries no session id",
			InternalMsg: res.Raw(),
			Kind:        ErrConnection,
		}
	}

	c.stateMu.Lock()
	c.sid = sid
	c.stateMu.Unlock()

	c.logger.Info(ctx, "Logged in",
		"url", c.URL,
		"username", c.Username)
	return nil
}

// challenge requests a fresh {alg, salt, nonce} tuple
func (c *Client) challenge(ctx context.Context) (Challenge, error) {
	res, err := c.Request(ctx, "challenge", map[string]string{"username": c.Username})
	if err != nil {
		return Challenge{}, err
	}

	var ch Challenge
	if err := res.Decode(&ch); err != nil {
		return Challenge{}, &Error{Operation: "challenge", Message: err.Error(), InternalMsg: res.Raw(), Kind: ErrConnection}
	}
	if ch.Alg == "" || ch.Nonce == "" {
		return Challenge{}, &Error{
			Operation:   "challenge",
			Message:     "incomplete challenge",
			InternalMsg: res.Raw(),
			Kind:        ErrConnection,
		}
	}
	return ch, nil
}

// resolveCredential picks the password hash used for the login digest
func (c *Client) resolveCredential(ctx context.Context, ch Challenge, interactive bool) (Credential, error) {
	c.stateMu.RLock()
	password := c.password
	c.stateMu.RUnlock()

	if password != "" {
		return c.updateCredential(ctx, ch, password)
	}

	cached, err := c.cache.LoadCredential()
	if err != nil {
		c.logger.Warn(ctx, "Ignoring unreadable credential cache",
			"error", err.Error())
		cached = nil
	}
	if cached != nil && cached.Username == c.Username {
		c.stateMu.Lock()
		c.credential = cached
		c.stateMu.Unlock()
		c.logger.Debug(ctx, "Using cached credentials",
			"username", c.Username)
		return *cached, nil
	}

	if !interactive {
		return Credential{}, newError("login", ErrNoCredentials, "no password configured and no cached credentials")
	}

	password, err = c.prompt(ctx, c.Username)
	if err != nil {
		return Credential{}, fmt.Errorf("read password: %w", err)
	}
	return c.updateCredential(ctx, ch, password)
}

// updateCredential computes the credential for password and persists it
// when it differs from the current one
func (c *Client) updateCredential(ctx context.Context, ch Challenge, password string) (Credential, error) {
	hash, err := UnixHash(password, ch.Alg, ch.Salt)
	if err != nil {
		return Credential{}, err
	}

	cred := Credential{
		Username: c.Username,
		Hash:     hash,
		Salt:     ch.Salt,
		Alg:      ch.Alg,
	}

	c.stateMu.Lock()
	prev := c.credential
	c.credential = &cred
	c.stateMu.Unlock()

	if prev == nil {
		if cached, err := c.cache.LoadCredential(); err == nil {
			prev = cached
		}
	}
	if prev == nil || *prev != cred {
		if err := c.cache.SaveCredential(cred); err != nil {
			c.logger.Warn(ctx, "Failed to cache credentials",
				"error", err.Error())
		}
	}
	return cred, nil
}

// Logout ends the session
//
// The keep-alive loop is stopped first so it cannot log in again. If the
// session is alive a logout request is sent. The local session id and
// session cookies are always cleared. Logging out while logged out is a
// no-op.
func (c *Client) Logout(ctx context.Context) error {
	c.StopKeepAlive()

	defer func() {
		c.stateMu.Lock()
		c.sid = ""
		c.stateMu.Unlock()
		c.jar.Reset()
	}()

	alive, err := c.IsAlive(ctx)
	if err != nil {
		return err
	}
	if !alive {
		return nil
	}

	if _, err := c.Request(ctx, "logout", map[string]string{"sid": c.SessionID()}); err != nil {
		return err
	}

	c.logger.Info(ctx, "Logged out",
		"url", c.URL)
	return nil
}

// clearSessionID clears the session id if it still equals sid
func (c *Client) clearSessionID(sid string) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.sid == sid {
		c.sid = ""
	}
}
