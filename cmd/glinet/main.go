// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Command glinet talks to a GL.iNet router from the shell.
package main

import "github.com/netascode/go-glinet/internal/cli"

func main() {
	cli.Execute()
}
