// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bureau-foundation/fieldreport/lib/credential"
	"github.com/bureau-foundation/fieldreport/lib/testutil"
)

// authServer is a minimal OAuth 2.0 token and userinfo endpoint.
type authServer struct {
	*httptest.Server

	mu          sync.Mutex
	validCode   string
	verifiers   []string
	refreshes   int
	idTokenMail string
}

func newAuthServer(t *testing.T, validCode string) *authServer {
	t.Helper()
	server := &authServer{validCode: validCode}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", server.token)
	mux.HandleFunc("/userinfo", func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Authorization") != "Bearer access-1" {
			http.Error(writer, "bad token", http.StatusUnauthorized)
			return
		}
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"sub":"42","email":"userinfo@example.org"}`))
	})
	server.Server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func (server *authServer) exchanged() []string {
	server.mu.Lock()
	defer server.mu.Unlock()
	return append([]string(nil), server.verifiers...)
}

func (server *authServer) token(writer http.ResponseWriter, request *http.Request) {
	if err := request.ParseForm(); err != nil {
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	}
	server.mu.Lock()
	defer server.mu.Unlock()

	response := map[string]any{"token_type": "Bearer", "expires_in": 3600}
	switch request.PostForm.Get("grant_type") {
	case "authorization_code":
		if request.PostForm.Get("code") != server.validCode {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusBadRequest)
			_, _ = writer.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		server.verifiers = append(server.verifiers, request.PostForm.Get("code_verifier"))
		response["access_token"] = "access-1"
		response["refresh_token"] = "refresh-1"
		response["scope"] = "email store.readwrite"
		if server.idTokenMail != "" {
			idToken, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
				"email":          server.idTokenMail,
				"email_verified": true,
			}).SignedString([]byte("test-signing-key"))
			response["id_token"] = idToken
		}
	case "refresh_token":
		if request.PostForm.Get("refresh_token") != "refresh-1" {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusBadRequest)
			_, _ = writer.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		server.refreshes++
		response["access_token"] = "access-2"
	default:
		http.Error(writer, "unsupported grant", http.StatusBadRequest)
		return
	}
	writer.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(writer).Encode(response)
}

// redirectingBrowser plays the user's browser: it follows the
// authorization URL straight to the loopback callback with the given
// code, optionally tampering with the state.
func redirectingBrowser(t *testing.T, code, stateOverride string) func(context.Context, string) error {
	return func(_ context.Context, target string) error {
		parsed, err := url.Parse(target)
		if err != nil {
			return err
		}
		query := parsed.Query()
		if query.Get("code_challenge_method") != "S256" || query.Get("code_challenge") == "" {
			t.Errorf("authorization URL lacks a PKCE challenge: %s", target)
		}
		state := query.Get("state")
		if stateOverride != "" {
			state = stateOverride
		}
		callback := query.Get("redirect_uri") + "?" + url.Values{"code": {code}, "state": {state}}.Encode()
		go func() {
			response, err := http.Get(callback)
			if err == nil {
				response.Body.Close()
			}
		}()
		return nil
	}
}

func newTestProvider(t *testing.T, server *authServer, mutate func(*OAuthConfig)) *OAuthProvider {
	t.Helper()
	config := OAuthConfig{
		ClientID:    "fieldreport-test",
		AuthURL:     server.URL + "/authorize",
		TokenURL:    server.URL + "/token",
		UserInfoURL: server.URL + "/userinfo",
		Scopes:      []string{"email"},
		OpenBrowser: true,
		Logger:      testutil.Logger(t),
	}
	if mutate != nil {
		mutate(&config)
	}
	provider, err := NewOAuthProvider(config)
	if err != nil {
		t.Fatalf("NewOAuthProvider: %v", err)
	}
	return provider
}

func TestAuthorizeViaLoopback(t *testing.T) {
	server := newAuthServer(t, "good-code")
	provider := newTestProvider(t, server, func(config *OAuthConfig) {
		config.Browser = redirectingBrowser(t, "good-code", "")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	granted, err := provider.Authorize(ctx)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if granted.AccessToken != "access-1" || granted.RefreshToken != "refresh-1" {
		t.Errorf("granted %+v", granted)
	}
	if strings.Join(granted.Scopes, " ") != "email store.readwrite" {
		t.Errorf("Scopes = %v, want the granted scope list", granted.Scopes)
	}
	if granted.Expiry.IsZero() {
		t.Error("Expiry not set")
	}
	if verifiers := server.exchanged(); len(verifiers) != 1 || verifiers[0] == "" {
		t.Errorf("token request carried verifiers %q, want one PKCE verifier", verifiers)
	}
}

func TestAuthorizeStateMismatch(t *testing.T) {
	server := newAuthServer(t, "good-code")
	provider := newTestProvider(t, server, func(config *OAuthConfig) {
		config.Browser = redirectingBrowser(t, "good-code", "forged")
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := provider.Authorize(ctx); err == nil || !strings.Contains(err.Error(), "state mismatch") {
		t.Fatalf("Authorize error = %v, want state mismatch", err)
	}
	if len(server.exchanged()) != 0 {
		t.Error("code was exchanged despite the state mismatch")
	}
}

func TestAuthorizeConsoleFallback(t *testing.T) {
	server := newAuthServer(t, "pasted-code")
	var prompt strings.Builder
	var notified string
	provider := newTestProvider(t, server, func(config *OAuthConfig) {
		config.Browser = func(context.Context, string) error { return errors.New("no display") }
		config.Console = strings.NewReader("  pasted-code \n")
		config.Prompt = &prompt
		config.Notify = func(authURL string) { notified = authURL }
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	granted, err := provider.Authorize(ctx)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if granted.AccessToken != "access-1" {
		t.Errorf("granted %+v", granted)
	}
	if !strings.Contains(prompt.String(), "Open this URL") {
		t.Errorf("prompt did not show the URL after the browser failed:\n%s", prompt.String())
	}
	if !strings.HasPrefix(notified, server.URL+"/authorize") {
		t.Errorf("Notify got %q", notified)
	}
}

func TestAuthorizeCancelled(t *testing.T) {
	server := newAuthServer(t, "good-code")
	provider := newTestProvider(t, server, func(config *OAuthConfig) {
		config.OpenBrowser = false
	})
	ctx, cancel := context.WithCancel(context.Background())
	go cancel()
	_, err := provider.Authorize(ctx)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Authorize error = %v, want ErrCancelled", err)
	}
}

func TestParseCallbackAccessDenied(t *testing.T) {
	result := parseCallback(url.Values{"error": {"access_denied"}, "state": {"s"}}, "s")
	if !errors.Is(result.err, ErrCancelled) {
		t.Errorf("access_denied error = %v, want ErrCancelled", result.err)
	}
	result = parseCallback(url.Values{"state": {"s"}}, "s")
	if result.err == nil {
		t.Error("callback without a code accepted")
	}
}

func TestRefreshKeepsRefreshToken(t *testing.T) {
	server := newAuthServer(t, "good-code")
	provider := newTestProvider(t, server, nil)
	refreshed, err := provider.Refresh(context.Background(), credential.Credential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		IDToken:      "id",
	})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.AccessToken != "access-2" {
		t.Errorf("AccessToken = %q, want access-2", refreshed.AccessToken)
	}
	if refreshed.RefreshToken != "refresh-1" || refreshed.IDToken != "id" {
		t.Errorf("refresh dropped tokens the server did not replace: %+v", refreshed)
	}

	if _, err := provider.Refresh(context.Background(), credential.Credential{RefreshToken: "revoked"}); err == nil {
		t.Error("refresh with a revoked token succeeded")
	}
}

func TestUserEmailFromIDToken(t *testing.T) {
	server := newAuthServer(t, "good-code")
	server.idTokenMail = "idtoken@example.org"
	provider := newTestProvider(t, server, func(config *OAuthConfig) {
		config.Browser = redirectingBrowser(t, "good-code", "")
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	granted, err := provider.Authorize(ctx)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	email, err := provider.UserEmail(ctx, granted)
	if err != nil {
		t.Fatalf("UserEmail: %v", err)
	}
	if email != "idtoken@example.org" {
		t.Errorf("email = %q, want the id token claim", email)
	}
}

func TestUserEmailFromUserInfo(t *testing.T) {
	server := newAuthServer(t, "good-code")
	provider := newTestProvider(t, server, nil)
	email, err := provider.UserEmail(context.Background(), credential.Credential{AccessToken: "access-1", TokenType: "Bearer"})
	if err != nil {
		t.Fatalf("UserEmail: %v", err)
	}
	if email != "userinfo@example.org" {
		t.Errorf("email = %q", email)
	}

	_, err = provider.UserEmail(context.Background(), credential.Credential{AccessToken: "wrong"})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("UserEmail with a rejected token = %v, want a 401 error", err)
	}
}

func TestNewOAuthProviderValidates(t *testing.T) {
	if _, err := NewOAuthProvider(OAuthConfig{}); err == nil {
		t.Fatal("empty config accepted")
	}
}
