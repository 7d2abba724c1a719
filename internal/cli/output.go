// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/netascode/go-glinet"
)

// printJSON prints data as indented JSON
func printJSON(w io.Writer, data any) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format JSON output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// printResult prints a router result. Plain output is colourised on a terminal.
func printResult(w io.Writer, res glinet.Result) error {
	raw := []byte(res.Raw())
	if len(raw) == 0 {
		raw = []byte("null")
	}
	if jsonOutput {
		_, err := w.Write(pretty.Pretty(raw))
		return err
	}

	fmt.Fprintf(w, "%s:\n", res.Name)
	formatted := pretty.Pretty(raw)
	if !color.NoColor {
		formatted = pretty.Color(formatted, nil)
	}
	_, err := w.Write(formatted)
	return err
}

// parseAssignments turns key=value arguments into call params. Values that
// are valid JSON (numbers, booleans, objects, quoted strings) are sent as
// JSON, anything else as a string. Keys may be gjson-style dotted paths.
func parseAssignments(args []string) (glinet.Params, error) {
	params := glinet.Params{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return params, fmt.Errorf("invalid parameter %q, expected key=value", arg)
		}
		if value != "" && gjson.Valid(value) {
			params = params.SetRaw(key, value)
		} else {
			params = params.Set(key, value)
		}
	}
	if err := params.Err(); err != nil {
		return params, err
	}
	return params, nil
}
