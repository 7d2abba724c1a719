// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"context"
	"time"
)

// StartKeepAlive starts the background loop that probes the session every
// KeepAliveInterval and logs in again when it has expired.
//
// Requires a live session (ErrNotLoggedIn otherwise). Returns an error
// matching ErrKeepAliveAlreadyActive if the loop is already running.
// Login calls this automatically when keep-alive is enabled.
func (c *Client) StartKeepAlive(ctx context.Context) error {
	c.kaMu.Lock()
	defer c.kaMu.Unlock()

	if c.keepAliveRunningLocked() {
		return newError("keep-alive", ErrKeepAliveAlreadyActive, "keep-alive loop is already running")
	}

	// The loop never takes kaMu, so probing while holding it is safe
	alive, err := c.IsAlive(ctx)
	if err != nil {
		return err
	}
	if !alive {
		return newError("keep-alive", ErrNotLoggedIn, "keep-alive needs an active session")
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.kaCancel = cancel
	c.kaDone = done

	go c.keepAliveLoop(loopCtx, done)
	return nil
}

// StopKeepAlive cancels the keep-alive loop and blocks until it has exited.
// An in-flight probe is aborted, so the wait is bounded by one interval.
//
// Must not be called from an OnKeepAliveError callback.
func (c *Client) StopKeepAlive() {
	c.kaMu.Lock()
	defer c.kaMu.Unlock()

	if c.kaCancel == nil {
		return
	}

	if c.keepAliveRunningLocked() {
		c.logger.Info(context.Background(), "Shutting down keep-alive loop",
			"max_wait", c.KeepAliveInterval.String())
	}
	c.kaCancel()
	<-c.kaDone

	c.kaCancel = nil
	c.kaDone = nil
}

// KeepAliveRunning reports whether the keep-alive loop is running
func (c *Client) KeepAliveRunning() bool {
	c.kaMu.Lock()
	defer c.kaMu.Unlock()
	return c.keepAliveRunningLocked()
}

// keepAliveRunningLocked requires kaMu
func (c *Client) keepAliveRunningLocked() bool {
	if c.kaDone == nil {
		return false
	}
	select {
	case <-c.kaDone:
		return false
	default:
		return true
	}
}

// keepAliveLoop waits one interval (interruptible), then probes the session
func (c *Client) keepAliveLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	c.logger.Info(ctx, "Keep-alive started",
		"interval", c.KeepAliveInterval.String())

	timer := time.NewTimer(c.KeepAliveInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info(context.Background(), "Keep-alive halted")
			return
		case <-timer.C:
		}

		if !c.keepAliveEnabled.Load() {
			c.logger.Info(ctx, "Keep-alive disabled, halting")
			return
		}

		c.keepAliveTick(ctx)
		timer.Reset(c.KeepAliveInterval)
	}
}

// keepAliveTick probes the session once and re-authenticates if needed
func (c *Client) keepAliveTick(ctx context.Context) {
	c.logger.Debug(ctx, "Keep-alive probe")

	alive, err := c.IsAlive(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.reportKeepAliveError(ctx, err)
		}
		return
	}
	if alive {
		return
	}

	c.logger.Warn(ctx, "Session lost, logging in again",
		"url", c.URL)
	if err := c.relogin(ctx); err != nil && ctx.Err() == nil {
		c.reportKeepAliveError(ctx, err)
	}
}

// reportKeepAliveError logs err and forwards it to the OnKeepAliveError hook
func (c *Client) reportKeepAliveError(ctx context.Context, err error) {
	c.logger.Error(ctx, "Keep-alive failed",
		"error", err.Error())
	if c.onKeepAliveError != nil {
		c.onKeepAliveError(err)
	}
}
