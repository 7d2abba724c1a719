// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"errors"
	"fmt"
)

// Error kinds returned by the client. Use errors.Is to test for them; the
// concrete error is usually an *Error carrying the originating method.
var (
	// ErrAccessDenied is returned for bad credentials or an invalid session (-32000)
	ErrAccessDenied = errors.New("access denied")

	// ErrNotLoggedIn is returned when an operation needs a live session
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrAlreadyLoggedIn is returned when an operation needs no live session
	ErrAlreadyLoggedIn = errors.New("already logged in")

	// ErrWrongParameters is returned for invalid request parameters (-32602)
	ErrWrongParameters = errors.New("wrong parameters")

	// ErrMethodNotFound is returned for unknown methods or module/action pairs (-32601)
	ErrMethodNotFound = errors.New("method not found")

	// ErrUnsupportedHashAlgorithm is returned for crypt algorithm ids other than 1, 5 and 6
	ErrUnsupportedHashAlgorithm = errors.New("unsupported hash algorithm")

	// ErrKeepAliveAlreadyActive is returned when the keep-alive loop is started twice
	ErrKeepAliveAlreadyActive = errors.New("keep-alive already active")

	// ErrMalformedAPIDescription is returned when the API reference document has an unexpected shape
	ErrMalformedAPIDescription = errors.New("malformed api description")

	// ErrNoCredentials is returned when a non-interactive login finds neither
	// a configured password nor a cached credential
	ErrNoCredentials = errors.New("no credentials available")

	// ErrConnection is the catch-all for transport and protocol anomalies
	ErrConnection = errors.New("connection failure")
)

// JSON-RPC error codes used by the router firmware
const (
	CodeAccessDenied   = -32000
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
)

// Error represents a failed JSON-RPC exchange with the router
type Error struct {
	// Operation is the RPC method (or "call module/action") that failed
	Operation string

	// Code is the JSON-RPC error code, zero if the failure happened elsewhere
	Code int

	// StatusCode is the HTTP status code, zero if no response was received
	StatusCode int

	// Human-readable error message
	Message string

	// InternalMsg holds the raw error payload or response body. It may contain
	// device data and is only included by DetailedError.
	InternalMsg string

	// Kind is one of the Err* sentinels
	Kind error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("glinet: %s failed: %s (code: %d)", e.Operation, e.Message, e.Code)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("glinet: %s failed: %s (status: %d)", e.Operation, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("glinet: %s failed: %s", e.Operation, e.Message)
}

// DetailedError returns the full error message including the raw payload
//
// This should only be used in contexts where disclosing device output is
// acceptable (debug logs, local CLI output).
func (e *Error) DetailedError() string {
	if e.InternalMsg == "" {
		return e.Error()
	}
	return fmt.Sprintf("%s (internal: %s)", e.Error(), e.InternalMsg)
}

// Unwrap returns the error kind so errors.Is matches the sentinels
func (e *Error) Unwrap() error {
	return e.Kind
}

// kindForCode maps a JSON-RPC error code onto an error kind
func kindForCode(code int) error {
	switch code {
	case CodeAccessDenied:
		return ErrAccessDenied
	case CodeInvalidParams:
		return ErrWrongParameters
	case CodeMethodNotFound:
		return ErrMethodNotFound
	default:
		return ErrConnection
	}
}

// newError builds an *Error of the given kind
func newError(operation string, kind error, message string) *Error {
	return &Error{
		Operation: operation,
		Message:   message,
		Kind:      kind,
	}
}
