// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"fmt"

	"github.com/tidwall/sjson"
)

// Params provides a fluent interface for building JSON-RPC parameter
// objects using sjson for path-based manipulation.
//
// Params can be passed directly to Request, Call or APICall.Invoke. Errors
// are tracked internally and returned by String, Err or the request itself.
//
// Example:
//
//	payload := glinet.Params{}.
//	    Set("enable", true).
//	    Set("ssid", "guest").
//	    Set("encryption.mode", "psk2")
//
//	res, err := client.Call(ctx, "wifi", "set_config", payload)
type Params struct {
	// str contains the JSON string being built
	str string
	// err tracks the first error encountered during building
	err error
}

// Set sets a value at the specified JSON path and returns new Params.
// Once an error occurs, subsequent operations are no-ops preserving it.
func (p Params) Set(path string, value any) Params {
	if p.err != nil {
		return p
	}

	result, err := sjson.Set(p.str, path, value)
	if err != nil {
		return Params{str: p.str, err: fmt.Errorf("Set(%q): %w", path, err)}
	}
	return Params{str: result}
}

// SetRaw sets a raw JSON fragment at the specified path
func (p Params) SetRaw(path, raw string) Params {
	if p.err != nil {
		return p
	}

	result, err := sjson.SetRaw(p.str, path, raw)
	if err != nil {
		return Params{str: p.str, err: fmt.Errorf("SetRaw(%q): %w", path, err)}
	}
	return Params{str: result}
}

// Delete removes a value at the specified JSON path
func (p Params) Delete(path string) Params {
	if p.err != nil {
		return p
	}

	result, err := sjson.Delete(p.str, path)
	if err != nil {
		return Params{str: p.str, err: fmt.Errorf("Delete(%q): %w", path, err)}
	}
	return Params{str: result}
}

// String returns the JSON representation and any building error.
// Empty Params render as "{}".
func (p Params) String() (string, error) {
	if p.str == "" {
		return "{}", p.err
	}
	return p.str, p.err
}

// Err returns any error that occurred during building
func (p Params) Err() error {
	return p.err
}

// Bytes returns the JSON byte slice and any building error
func (p Params) Bytes() ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	s, _ := p.String()
	return []byte(s), nil
}
