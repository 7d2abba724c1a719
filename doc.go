// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package glinet provides a session-managing client for the JSON-RPC API of
// GL.iNet routers (firmware 4.x).
//
// The client handles the challenge/response login, keeps the session id,
// refreshes the session in the background and exposes the router's remote
// procedures, either directly by name or through the published API
// description.
//
// # Quick Start
//
//	client, err := glinet.NewClient(
//	    "https://192.168.8.1/rpc",
//	    glinet.Password("secret"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	ctx := context.Background()
//	if err := client.Login(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Logout(ctx)
//
//	res, err := client.Call(ctx, "system", "get_info")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Get("model").String())
//
// # Authentication
//
// Login requests a challenge {alg, salt, nonce}, computes the crypt(3) hash
// of the password (MD5, SHA-256 or SHA-512 crypt) and sends the MD5 digest
// of "username:hash:nonce". The password hash is cached on disk so later
// logins need no password. Without a configured password and without a
// cached hash the PasswordPrompt is used (terminal by default).
//
// # Session Policy
//
// Every request is checked before it is sent: "challenge" and "alive" are
// always allowed, "login" requires that no session is alive
// (ErrAlreadyLoggedIn) and every other method requires a live session
// (ErrNotLoggedIn).
//
// # Keep-Alive
//
// Login starts a background loop that probes the session every
// KeepAliveInterval and logs in again with the cached credential when the
// router has dropped it. Logout and Close stop the loop and wait for it.
//
// # Payloads
//
// Use the Params builder for call payloads:
//
//	payload := glinet.Params{}.
//	    Set("enable", true).
//	    Set("ssid", "guest")
//	res, err := client.Call(ctx, "wifi", "set_config", payload)
//
// Results wrap the JSON "result" member; query them with gjson paths or
// decode them into a struct with Result.Decode.
//
// # Error Handling
//
// Protocol failures are returned as *Error values wrapping one of the
// sentinel errors, so errors.Is works:
//
//	if errors.Is(err, glinet.ErrAccessDenied) {
//	    // wrong password or expired session
//	}
//
// # Thread Safety
//
// All Client methods may be called concurrently. HTTP requests are
// serialized so at most one is in flight, and concurrent Login calls share
// one login sequence.
//
// # References
//
//   - GL.iNet API documentation: https://dev.gl-inet.cn/docs/api_docs_api/
//   - gjson: https://github.com/tidwall/gjson
//   - sjson: https://github.com/tidwall/sjson
package glinet
