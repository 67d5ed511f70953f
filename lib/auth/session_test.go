// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/fieldreport/lib/clock"
	"github.com/bureau-foundation/fieldreport/lib/credential"
	"github.com/bureau-foundation/fieldreport/lib/failure"
	"github.com/bureau-foundation/fieldreport/lib/testutil"
)

var epoch = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

// fakeProvider scripts Provider responses and counts calls.
type fakeProvider struct {
	mu sync.Mutex

	authorize func(ctx context.Context) (credential.Credential, error)
	refresh   func(credential.Credential) (credential.Credential, error)
	email     func(credential.Credential) (string, error)

	authorizeCalls int
	refreshCalls   int
	emailCalls     int
}

func (provider *fakeProvider) Authorize(ctx context.Context) (credential.Credential, error) {
	provider.mu.Lock()
	provider.authorizeCalls++
	authorize := provider.authorize
	provider.mu.Unlock()
	return authorize(ctx)
}

func (provider *fakeProvider) Refresh(_ context.Context, current credential.Credential) (credential.Credential, error) {
	provider.mu.Lock()
	defer provider.mu.Unlock()
	provider.refreshCalls++
	return provider.refresh(current)
}

func (provider *fakeProvider) UserEmail(_ context.Context, current credential.Credential) (string, error) {
	provider.mu.Lock()
	defer provider.mu.Unlock()
	provider.emailCalls++
	return provider.email(current)
}

func newTestSession(t *testing.T, provider *fakeProvider, cached *credential.Credential) (*Session, *credential.MemoryStore, *clock.FakeClock) {
	t.Helper()
	store := credential.NewMemoryStore(cached)
	fakeClock := clock.Fake(epoch)
	session := NewSession(Config{
		Provider: provider,
		Store:    store,
		Clock:    fakeClock,
		Logger:   testutil.Logger(t),
	})
	return session, store, fakeClock
}

func TestInitializeWithoutCache(t *testing.T) {
	session, _, _ := newTestSession(t, &fakeProvider{}, nil)
	if err := session.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if session.State() != NoSession {
		t.Errorf("State() = %v, want no-session", session.State())
	}
}

func TestInitializeValidCache(t *testing.T) {
	provider := &fakeProvider{}
	cached := &credential.Credential{AccessToken: "a", Expiry: epoch.Add(time.Hour)}
	session, _, _ := newTestSession(t, provider, cached)
	if err := session.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if session.State() != Valid {
		t.Errorf("State() = %v, want valid", session.State())
	}
	if provider.refreshCalls != 0 {
		t.Errorf("valid credential was refreshed %d times", provider.refreshCalls)
	}
}

func TestInitializeRefreshesExpiredOnce(t *testing.T) {
	provider := &fakeProvider{
		refresh: func(current credential.Credential) (credential.Credential, error) {
			return credential.Credential{AccessToken: "fresh", Expiry: epoch.Add(time.Hour)}, nil
		},
	}
	cached := &credential.Credential{AccessToken: "stale", RefreshToken: "r", Expiry: epoch.Add(-time.Minute)}
	session, store, _ := newTestSession(t, provider, cached)

	if err := session.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if provider.refreshCalls != 1 {
		t.Errorf("refresh called %d times, want 1", provider.refreshCalls)
	}
	if session.State() != Valid {
		t.Fatalf("State() = %v, want valid", session.State())
	}
	saved, ok := store.Load()
	if !ok || saved.AccessToken != "fresh" {
		t.Fatalf("store holds %+v, want the refreshed credential", saved)
	}
	if saved.RefreshToken != "r" {
		t.Errorf("refresh token not carried over: %q", saved.RefreshToken)
	}
}

func TestInitializeRefreshFailureForcesReauthentication(t *testing.T) {
	provider := &fakeProvider{
		refresh: func(credential.Credential) (credential.Credential, error) {
			return credential.Credential{}, errors.New("invalid_grant")
		},
	}
	cached := &credential.Credential{AccessToken: "stale", RefreshToken: "revoked", Expiry: epoch.Add(-time.Minute)}
	session, store, _ := newTestSession(t, provider, cached)

	err := session.Initialize(context.Background())
	if !failure.Is(err, failure.KindTokenExpired) {
		t.Fatalf("Initialize error = %v, want token_expired", err)
	}
	if session.State() != NoSession {
		t.Errorf("State() = %v, want no-session", session.State())
	}
	if _, ok := store.Load(); ok {
		t.Error("unrefreshable credential left in the cache")
	}

	// A second start must not retry the revoked token.
	if err := session.Initialize(context.Background()); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if provider.refreshCalls != 1 {
		t.Errorf("refresh called %d times across two starts, want 1", provider.refreshCalls)
	}
}

func TestInitializeExpiredWithoutRefreshToken(t *testing.T) {
	provider := &fakeProvider{}
	cached := &credential.Credential{AccessToken: "stale", Expiry: epoch.Add(-time.Minute)}
	session, store, _ := newTestSession(t, provider, cached)
	if err := session.Initialize(context.Background()); !failure.Is(err, failure.KindTokenExpired) {
		t.Fatalf("Initialize error = %v, want token_expired", err)
	}
	if provider.refreshCalls != 0 {
		t.Error("refresh attempted without a refresh token")
	}
	if _, ok := store.Load(); ok {
		t.Error("expired credential left in the cache")
	}
}

func TestStateBecomesExpired(t *testing.T) {
	cached := &credential.Credential{AccessToken: "a", Expiry: epoch.Add(time.Minute)}
	session, _, fakeClock := newTestSession(t, &fakeProvider{}, cached)
	if err := session.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	fakeClock.Advance(2 * time.Minute)
	if session.State() != Expired {
		t.Errorf("State() = %v, want expired", session.State())
	}
	if _, err := session.ResolveIdentity(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("ResolveIdentity on expired session = %v, want ErrNoSession", err)
	}
}

func TestLoginSuccessPersists(t *testing.T) {
	provider := &fakeProvider{
		authorize: func(context.Context) (credential.Credential, error) {
			return credential.Credential{AccessToken: "granted", Expiry: epoch.Add(time.Hour)}, nil
		},
	}
	session, store, _ := newTestSession(t, provider, nil)
	if err := session.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.State() != Valid {
		t.Errorf("State() = %v, want valid", session.State())
	}
	if saved, ok := store.Load(); !ok || saved.AccessToken != "granted" {
		t.Errorf("store holds %+v", saved)
	}
	if session.LoginInFlight() {
		t.Error("login still marked in flight")
	}
}

func TestLoginFailurePersistsNothing(t *testing.T) {
	provider := &fakeProvider{
		authorize: func(context.Context) (credential.Credential, error) {
			return credential.Credential{}, ErrCancelled
		},
	}
	session, store, _ := newTestSession(t, provider, nil)
	err := session.Login(context.Background())
	if !failure.Is(err, failure.KindAuth) || !errors.Is(err, ErrCancelled) {
		t.Fatalf("Login error = %v, want auth failure wrapping ErrCancelled", err)
	}
	if session.State() != NoSession {
		t.Errorf("State() = %v, want no-session", session.State())
	}
	if saves, _ := store.Counts(); saves != 0 {
		t.Errorf("failed login saved %d times", saves)
	}
}

func TestSecondLoginRejectedWhileFirstPending(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	provider := &fakeProvider{
		authorize: func(context.Context) (credential.Credential, error) {
			close(started)
			<-release
			return credential.Credential{AccessToken: "granted"}, nil
		},
	}
	session, _, _ := newTestSession(t, provider, nil)

	first := make(chan error, 1)
	go func() { first <- session.Login(context.Background()) }()
	testutil.RequireClosed(t, started, 5*time.Second, "first login started")

	if err := session.Login(context.Background()); !errors.Is(err, ErrLoginInFlight) {
		t.Errorf("second Login error = %v, want ErrLoginInFlight", err)
	}
	close(release)
	if err := testutil.RequireReceive(t, first, 5*time.Second, "first login finished"); err != nil {
		t.Fatalf("first Login: %v", err)
	}
	if provider.authorizeCalls != 1 {
		t.Errorf("Authorize called %d times, want 1", provider.authorizeCalls)
	}
}

func TestDiscardEndsPendingLogin(t *testing.T) {
	provider := &fakeProvider{
		authorize: func(context.Context) (credential.Credential, error) {
			return credential.Credential{AccessToken: "late"}, nil
		},
	}
	session, store, _ := newTestSession(t, provider, nil)
	if err := session.BeginLogin(); err != nil {
		t.Fatal(err)
	}
	outcome := session.Authorize(context.Background())
	session.Discard(outcome)

	if session.LoginInFlight() {
		t.Error("Discard left the login in flight")
	}
	if session.State() != NoSession {
		t.Error("Discard installed the credential")
	}
	if _, ok := store.Load(); ok {
		t.Error("Discard persisted the credential")
	}
}

func TestResolveIdentity(t *testing.T) {
	provider := &fakeProvider{
		email: func(credential.Credential) (string, error) { return "agent@example.org", nil },
	}
	cached := &credential.Credential{AccessToken: "a"}
	session, _, _ := newTestSession(t, provider, cached)
	ctx := context.Background()

	if _, err := session.ResolveIdentity(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("ResolveIdentity before Initialize = %v, want ErrNoSession", err)
	}
	if err := session.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	for range 2 {
		email, err := session.ResolveIdentity(ctx)
		if err != nil {
			t.Fatalf("ResolveIdentity: %v", err)
		}
		if email != "agent@example.org" {
			t.Errorf("email = %q", email)
		}
	}
	if provider.emailCalls != 1 {
		t.Errorf("provider asked %d times, want 1 (cached for the session)", provider.emailCalls)
	}
}

func TestIdentityLookupFailureIsTagged(t *testing.T) {
	provider := &fakeProvider{
		email: func(credential.Credential) (string, error) { return "", errors.New("dial tcp: connection refused") },
	}
	session, _, _ := newTestSession(t, provider, &credential.Credential{AccessToken: "a"})
	if err := session.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, err := session.ResolveIdentity(context.Background())
	if !failure.Is(err, failure.KindIdentityLookup) {
		t.Fatalf("error = %v, want identity_lookup", err)
	}
	if errors.Is(err, ErrNoSession) {
		t.Error("identity lookup failure is indistinguishable from no session")
	}
}

func TestLogoutFromAnyState(t *testing.T) {
	session, store, _ := newTestSession(t, &fakeProvider{}, &credential.Credential{AccessToken: "a"})
	if err := session.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	session.SetIdentity("agent@example.org")
	if err := session.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if session.State() != NoSession || session.Identity() != "" {
		t.Errorf("after Logout: %+v", session.Snapshot())
	}
	if _, ok := store.Load(); ok {
		t.Error("Logout left the cache")
	}
	if err := session.Logout(); err != nil {
		t.Errorf("Logout without a session: %v", err)
	}
}
