// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"context"
	"fmt"
)

// RequestMode is the session precondition of an RPC method
type RequestMode int

const (
	// ModeRequiresSession needs a live session id (every method not listed below)
	ModeRequiresSession RequestMode = iota

	// ModeUnconditional is sent regardless of session state (challenge, alive)
	ModeUnconditional

	// ModeRequiresNoSession needs the absence of a live session (login)
	ModeRequiresNoSession
)

// String returns the string representation of a RequestMode
func (m RequestMode) String() string {
	switch m {
	case ModeRequiresSession:
		return "requires-session"
	case ModeUnconditional:
		return "unconditional"
	case ModeRequiresNoSession:
		return "requires-no-session"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(m))
	}
}

// ModeFor classifies an RPC method. challenge must stay unconditional: it
// precedes every session.
func ModeFor(method string) RequestMode {
	switch method {
	case "challenge", "alive":
		return ModeUnconditional
	case "login":
		return ModeRequiresNoSession
	default:
		return ModeRequiresSession
	}
}

// checkPolicy enforces the precondition of method against the current
// session. The only RPC it may issue is the alive probe.
func (c *Client) checkPolicy(ctx context.Context, method string) error {
	mode := ModeFor(method)

	switch mode {
	case ModeUnconditional:
		return nil

	case ModeRequiresNoSession:
		alive, err := c.IsAlive(ctx)
		if err != nil {
			return err
		}
		if alive {
			return newError(method, ErrAlreadyLoggedIn, "logout before calling "+method)
		}
		return nil

	default:
		if c.SessionID() == "" {
			return newError(method, ErrNotLoggedIn, "login required, call Login first")
		}
		alive, err := c.IsAlive(ctx)
		if err != nil {
			return err
		}
		if !alive {
			return newError(method, ErrNotLoggedIn, "session expired, call Login first")
		}
		return nil
	}
}
