// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PasswordPrompt asks for the router password of username. It is only
// invoked by Login when no password is configured and no cached credential
// exists, and never from the keep-alive loop.
type PasswordPrompt func(ctx context.Context, username string) (string, error)

// TerminalPrompt reads the password from the controlling terminal without
// echo. When stdin is not a terminal a single line is read instead.
func TerminalPrompt(ctx context.Context, username string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprintf(os.Stderr, "Enter GL.iNet password for %s: ", username)
	defer fmt.Fprintln(os.Stderr)

	fd := int(os.Stdin.Fd()) //nolint:gosec // G115: file descriptors fit in int
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
	return ReaderPrompt(os.Stdin)(ctx, username)
}

// ReaderPrompt returns a PasswordPrompt reading one line from r.
// Useful for scripted use and tests.
func ReaderPrompt(r io.Reader) PasswordPrompt {
	reader := bufio.NewReader(r)
	return func(ctx context.Context, _ string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}
