// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"

	"github.com/bureau-foundation/fieldreport/lib/credential"
)

// Provider is the identity provider behind a session.
type Provider interface {
	// Authorize runs the interactive login and returns the granted
	// credential.
	Authorize(ctx context.Context) (credential.Credential, error)

	// Refresh exchanges the credential's refresh token for a new
	// credential.
	Refresh(ctx context.Context, current credential.Credential) (credential.Credential, error)

	// UserEmail returns the email of the account the credential
	// belongs to.
	UserEmail(ctx context.Context, current credential.Credential) (string, error)
}

var (
	// ErrCancelled is wrapped by login failures caused by the user or
	// the caller abandoning the exchange.
	ErrCancelled = errors.New("login cancelled")

	// ErrLoginInFlight is returned when a login is started while
	// another is still pending.
	ErrLoginInFlight = errors.New("a login is already in progress")

	// ErrNoSession is returned by operations that need a valid
	// credential when there is none. It is deliberately not a
	// failure.Error: "not signed in" is a state, not a lookup failure.
	ErrNoSession = errors.New("not signed in")
)
