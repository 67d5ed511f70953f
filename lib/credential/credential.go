// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"strings"
	"time"
)

// Credential is a cached authorization grant.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`

	// IDToken is the OpenID Connect id token returned alongside the
	// access token, when the provider issues one.
	IDToken string `json:"id_token,omitempty"`
}

// Valid reports whether the access token may still be used at now. A
// zero expiry never expires.
func (credential Credential) Valid(now time.Time) bool {
	if credential.AccessToken == "" {
		return false
	}
	return credential.Expiry.IsZero() || now.Before(credential.Expiry)
}

// Refreshable reports whether the credential carries a refresh token.
func (credential Credential) Refreshable() bool {
	return credential.RefreshToken != ""
}

// HasScopes reports whether every scope in required was granted.
// Scope comparison is exact; an empty required list is satisfied.
func (credential Credential) HasScopes(required []string) bool {
	granted := make(map[string]bool, len(credential.Scopes))
	for _, scope := range credential.Scopes {
		granted[strings.TrimSpace(scope)] = true
	}
	for _, scope := range required {
		if !granted[scope] {
			return false
		}
	}
	return true
}

// Store persists a single credential.
type Store interface {
	// Load returns the cached credential, or false when there is none
	// or it cannot be read.
	Load() (*Credential, bool)
	Save(Credential) error
	Clear() error
}
