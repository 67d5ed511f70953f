// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth owns the signed-in session: the cached credential, its
// refresh, interactive login, logout, and the account email.
//
// A [Session] is in one of three states: [NoSession], [Valid] or
// [Expired]. Its fields are only written from the goroutine that owns
// the session (the UI goroutine in the terminal app, the command
// goroutine in the CLI). Anything that blocks on the network is split
// in two: a background half that performs the I/O and returns an
// [Outcome] without touching the session, and [Session.Apply], which
// the owner calls with that outcome. The blocking convenience methods
// (Initialize, Login, ResolveIdentity) just run both halves in order.
//
// Credential cache writes happen only inside Apply and Logout, so the
// cache has a single writer without file locking.
//
// [OAuthProvider] implements [Provider] with an OAuth 2.0
// authorization code flow (PKCE, loopback redirect, console fallback).
package auth
