// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/fieldreport/lib/clock"
	"github.com/bureau-foundation/fieldreport/lib/credential"
	"github.com/bureau-foundation/fieldreport/lib/failure"
)

// State is the session's lifecycle state.
type State int

const (
	NoSession State = iota
	Valid
	Expired
)

func (state State) String() string {
	switch state {
	case NoSession:
		return "no-session"
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("State(%d)", int(state))
	}
}

// outcomeKind distinguishes what produced an Outcome.
type outcomeKind int

const (
	outcomeRestore outcomeKind = iota
	outcomeLogin
)

// Outcome is the result of background session work, to be passed to
// Apply on the owning goroutine.
type Outcome struct {
	kind outcomeKind

	// Credential is the credential to hold, or nil to end the session.
	Credential *credential.Credential

	// Err explains a nil Credential, when there is something to
	// explain. Restoring with no cache at all has neither.
	Err error

	// Refreshed reports that Credential came from a refresh and must
	// be persisted.
	Refreshed bool

	// clearCache reports that the cached credential is unusable.
	clearCache bool
}

// Snapshot is a copy of the session for display and for handing to
// background work.
type Snapshot struct {
	State      State
	Credential *credential.Credential
	Identity   string
}

// Config wires a Session.
type Config struct {
	Provider Provider
	Store    credential.Store
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Session holds the credential and identity of the signed-in user.
type Session struct {
	provider Provider
	store    credential.Store
	clock    clock.Clock
	logger   *slog.Logger

	mu            sync.Mutex
	credential    *credential.Credential
	identity      string
	loginInFlight bool
}

// NewSession returns a session in the NoSession state.
func NewSession(config Config) *Session {
	session := &Session{
		provider: config.Provider,
		store:    config.Store,
		clock:    config.Clock,
		logger:   config.Logger,
	}
	if session.clock == nil {
		session.clock = clock.Real()
	}
	if session.logger == nil {
		session.logger = slog.New(slog.DiscardHandler)
	}
	return session
}

// State reports the current state. A held credential whose expiry
// has passed is Expired.
func (session *Session) State() State {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.stateLocked()
}

func (session *Session) stateLocked() State {
	switch {
	case session.credential == nil:
		return NoSession
	case session.credential.Valid(session.clock.Now()):
		return Valid
	default:
		return Expired
	}
}

// Identity returns the resolved account email, or "".
func (session *Session) Identity() string {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.identity
}

// Snapshot returns a copy of the session.
func (session *Session) Snapshot() Snapshot {
	session.mu.Lock()
	defer session.mu.Unlock()
	snapshot := Snapshot{State: session.stateLocked(), Identity: session.identity}
	if session.credential != nil {
		copied := *session.credential
		snapshot.Credential = &copied
	}
	return snapshot
}

// LoginInFlight reports whether a login has begun and not yet been
// applied or discarded.
func (session *Session) LoginInFlight() bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.loginInFlight
}

// Restore loads the cached credential and, when it has expired but
// carries a refresh token, refreshes it exactly once. It reads the
// cache and talks to the provider but changes nothing; pass the
// result to Apply.
func (session *Session) Restore(ctx context.Context) Outcome {
	cached, ok := session.store.Load()
	if !ok {
		return Outcome{kind: outcomeRestore}
	}
	now := session.clock.Now()
	if cached.Valid(now) {
		return Outcome{kind: outcomeRestore, Credential: cached}
	}
	if !cached.Refreshable() {
		return Outcome{
			kind:       outcomeRestore,
			Err:        failure.TokenExpired("cached credential expired at %s and cannot be refreshed", cached.Expiry.Format("2006-01-02 15:04")),
			clearCache: true,
		}
	}

	refreshed, err := session.provider.Refresh(ctx, *cached)
	if err != nil {
		return Outcome{
			kind:       outcomeRestore,
			Err:        failure.TokenExpired("refreshing credential: %w", err),
			clearCache: true,
		}
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = cached.RefreshToken
	}
	if !refreshed.Valid(session.clock.Now()) {
		return Outcome{
			kind:       outcomeRestore,
			Err:        failure.TokenExpired("provider returned an already expired credential"),
			clearCache: true,
		}
	}
	return Outcome{kind: outcomeRestore, Credential: &refreshed, Refreshed: true}
}

// BeginLogin marks a login as pending. It fails with ErrLoginInFlight
// when one already is.
func (session *Session) BeginLogin() error {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.loginInFlight {
		return ErrLoginInFlight
	}
	session.loginInFlight = true
	return nil
}

// Authorize runs the provider's interactive login. Like Restore it
// changes nothing; the credential is persisted only by Apply.
func (session *Session) Authorize(ctx context.Context) Outcome {
	granted, err := session.provider.Authorize(ctx)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, ErrCancelled) {
			err = fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		return Outcome{kind: outcomeLogin, Err: failure.Auth("login failed: %w", err)}
	}
	if granted.AccessToken == "" {
		return Outcome{kind: outcomeLogin, Err: failure.Auth("provider granted an empty access token")}
	}
	return Outcome{kind: outcomeLogin, Credential: &granted, Refreshed: true}
}

// Apply installs an outcome produced by Restore or Authorize. The
// identity is cleared in every case: a new credential needs a new
// lookup. Cache write errors are returned but do not undo the state
// change.
func (session *Session) Apply(outcome Outcome) error {
	session.mu.Lock()
	defer session.mu.Unlock()
	if outcome.kind == outcomeLogin {
		session.loginInFlight = false
	}
	session.identity = ""
	session.credential = outcome.Credential

	switch {
	case outcome.Credential != nil && outcome.Refreshed:
		if err := session.store.Save(*outcome.Credential); err != nil {
			session.logger.Warn("saving credential failed", "error", err)
			return fmt.Errorf("saving credential: %w", err)
		}
		session.logger.Info("session established", "expiry", outcome.Credential.Expiry)
	case outcome.Credential != nil:
		session.logger.Debug("session restored from cache", "expiry", outcome.Credential.Expiry)
	case outcome.clearCache:
		session.logger.Info("discarding cached credential", "error", outcome.Err)
		if err := session.store.Clear(); err != nil {
			return fmt.Errorf("clearing credential: %w", err)
		}
	}
	return nil
}

// Discard drops a login outcome that arrived after the user moved on.
// It ends the pending login without installing or persisting
// anything.
func (session *Session) Discard(outcome Outcome) {
	if outcome.kind != outcomeLogin {
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	session.loginInFlight = false
}

// LookupIdentity asks the provider for the account email of cred. It
// does not modify the session; pass the result to SetIdentity.
func (session *Session) LookupIdentity(ctx context.Context, cred credential.Credential) (string, error) {
	email, err := session.provider.UserEmail(ctx, cred)
	if err != nil {
		return "", failure.IdentityLookup("looking up account email: %w", err)
	}
	if email == "" {
		return "", failure.IdentityLookup("provider returned no email for this account")
	}
	return email, nil
}

// SetIdentity records the resolved account email.
func (session *Session) SetIdentity(email string) {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.identity = email
}

// Initialize restores the session from the cache. It returns nil when
// there is no cache, and a token_expired failure when the cached
// credential could not be brought back to life.
func (session *Session) Initialize(ctx context.Context) error {
	outcome := session.Restore(ctx)
	if err := session.Apply(outcome); err != nil {
		session.logger.Warn("applying restored session", "error", err)
	}
	return outcome.Err
}

// Login runs a complete interactive login.
func (session *Session) Login(ctx context.Context) error {
	if err := session.BeginLogin(); err != nil {
		return err
	}
	outcome := session.Authorize(ctx)
	if err := session.Apply(outcome); err != nil {
		return err
	}
	return outcome.Err
}

// ResolveIdentity returns the account email, looking it up on first
// use. It returns ErrNoSession unless the session is Valid.
func (session *Session) ResolveIdentity(ctx context.Context) (string, error) {
	snapshot := session.Snapshot()
	if snapshot.State != Valid {
		return "", ErrNoSession
	}
	if snapshot.Identity != "" {
		return snapshot.Identity, nil
	}
	email, err := session.LookupIdentity(ctx, *snapshot.Credential)
	if err != nil {
		return "", err
	}
	session.SetIdentity(email)
	return email, nil
}

// Logout ends the session regardless of its state and clears the
// cache. The session is NoSession even when clearing fails.
func (session *Session) Logout() error {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.credential = nil
	session.identity = ""
	if err := session.store.Clear(); err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}
	session.logger.Info("signed out")
	return nil
}
