// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/bureau-foundation/fieldreport/lib/credential"
)

// callbackPath is where the loopback listener receives the redirect.
const callbackPath = "/callback"

// OAuthConfig configures an OAuthProvider.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string

	// RedirectHost is the loopback address the callback listener
	// binds. Defaults to 127.0.0.1.
	RedirectHost string

	// OpenBrowser launches the system browser on the authorization
	// URL. When false, or when launching fails, the user is shown the
	// URL instead.
	OpenBrowser bool

	// Browser opens a URL. Defaults to OpenURL.
	Browser func(ctx context.Context, target string) error

	// Console, when set, is read for a pasted redirect URL or bare
	// authorization code. This is the fallback for machines where the
	// browser cannot reach the loopback listener. Leave nil when
	// stdin belongs to something else, like the terminal UI.
	Console io.Reader

	// Prompt receives the instructions shown to the user. Nil
	// discards them.
	Prompt io.Writer

	// Notify, when set, is called with the authorization URL before
	// waiting for the callback. The terminal UI uses it to show the URL
	// on screen.
	Notify func(authURL string)

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// OAuthProvider implements Provider with the OAuth 2.0 authorization
// code flow, PKCE, and a loopback redirect.
type OAuthProvider struct {
	config OAuthConfig
	logger *slog.Logger
}

// NewOAuthProvider validates config and returns a provider.
func NewOAuthProvider(config OAuthConfig) (*OAuthProvider, error) {
	var problems []error
	if config.ClientID == "" {
		problems = append(problems, errors.New("client id is required"))
	}
	if config.AuthURL == "" || config.TokenURL == "" {
		problems = append(problems, errors.New("auth and token URLs are required"))
	}
	if err := errors.Join(problems...); err != nil {
		return nil, fmt.Errorf("oauth provider: %w", err)
	}
	if config.RedirectHost == "" {
		config.RedirectHost = "127.0.0.1"
	}
	if config.Browser == nil {
		config.Browser = OpenURL
	}
	if config.Prompt == nil {
		config.Prompt = io.Discard
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &OAuthProvider{config: config, logger: logger}, nil
}

func (provider *OAuthProvider) oauthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     provider.config.ClientID,
		ClientSecret: provider.config.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  provider.config.AuthURL,
			TokenURL: provider.config.TokenURL,
		},
		RedirectURL: redirectURL,
		Scopes:      provider.config.Scopes,
	}
}

func (provider *OAuthProvider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, provider.config.HTTPClient)
}

// authorizationCode is what the loopback listener or the console
// delivers.
type authorizationCode struct {
	code string
	err  error
}

// Authorize runs the interactive flow: start a loopback listener,
// send the user to the authorization URL, wait for the code from the
// listener or the console, and exchange it.
func (provider *OAuthProvider) Authorize(ctx context.Context) (credential.Credential, error) {
	listener, err := net.Listen("tcp", net.JoinHostPort(provider.config.RedirectHost, "0"))
	if err != nil {
		return credential.Credential{}, fmt.Errorf("starting callback listener: %w", err)
	}
	redirectURL := "http://" + listener.Addr().String() + callbackPath
	config := provider.oauthConfig(redirectURL)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	codes := make(chan authorizationCode, 2)
	server := &http.Server{
		Handler:           provider.callbackRouter(state, codes),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			provider.logger.Warn("callback listener stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	provider.present(ctx, authURL)
	if provider.config.Console != nil {
		go readConsoleCode(provider.config.Console, state, codes)
	}

	var code string
	select {
	case received := <-codes:
		if received.err != nil {
			return credential.Credential{}, received.err
		}
		code = received.code
	case <-ctx.Done():
		return credential.Credential{}, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	}

	token, err := config.Exchange(provider.clientContext(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return credential.Credential{}, fmt.Errorf("exchanging authorization code: %w", err)
	}
	provider.logger.Info("authorization code exchanged", "expiry", token.Expiry)
	return provider.toCredential(token, nil), nil
}

func (provider *OAuthProvider) present(ctx context.Context, authURL string) {
	if provider.config.Notify != nil {
		provider.config.Notify(authURL)
	}
	opened := false
	if provider.config.OpenBrowser {
		if err := provider.config.Browser(ctx, authURL); err != nil {
			provider.logger.Info("could not open a browser", "error", err)
		} else {
			opened = true
		}
	}
	if opened {
		fmt.Fprintf(provider.config.Prompt, "Your browser has been opened to sign in.\nIf it did not open, visit:\n\n  %s\n\n", authURL)
	} else {
		fmt.Fprintf(provider.config.Prompt, "Open this URL in a browser to sign in:\n\n  %s\n\n", authURL)
	}
	if provider.config.Console != nil {
		fmt.Fprintf(provider.config.Prompt, "If the browser cannot reach this machine, paste the URL it was redirected to (or the code) here: ")
	}
}

func (provider *OAuthProvider) callbackRouter(state string, codes chan<- authorizationCode) http.Handler {
	router := chi.NewRouter()
	router.Get(callbackPath, func(writer http.ResponseWriter, request *http.Request) {
		result := parseCallback(request.URL.Query(), state)
		writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if result.err != nil {
			writer.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(writer, "Sign-in failed: %v\nYou can close this window.\n", result.err)
		} else {
			fmt.Fprintln(writer, "Signed in. You can close this window and return to fieldreport.")
		}
		select {
		case codes <- result:
		default:
		}
	})
	return router
}

// parseCallback validates redirect query parameters. An empty
// wantState skips the state check, for bare codes pasted by hand.
func parseCallback(query url.Values, wantState string) authorizationCode {
	if providerError := query.Get("error"); providerError != "" {
		description := query.Get("error_description")
		if description != "" {
			providerError += ": " + description
		}
		if query.Get("error") == "access_denied" {
			return authorizationCode{err: fmt.Errorf("%w: %s", ErrCancelled, providerError)}
		}
		return authorizationCode{err: fmt.Errorf("provider returned error %s", providerError)}
	}
	if wantState != "" && query.Get("state") != wantState {
		return authorizationCode{err: errors.New("state mismatch in authorization response")}
	}
	code := query.Get("code")
	if code == "" {
		return authorizationCode{err: errors.New("authorization response has no code")}
	}
	return authorizationCode{code: code}
}

// readConsoleCode reads one line from console. A URL is validated like
// a redirect; anything else is taken as the bare code. The goroutine
// stays blocked on the read if nobody types anything; callers only
// supply a console they are willing to leave that way.
func readConsoleCode(console io.Reader, state string, codes chan<- authorizationCode) {
	scanner := bufio.NewScanner(console)
	if !scanner.Scan() {
		return
	}
	line := strings.TrimSpace(scanner.Text())
	if line == "" {
		return
	}
	var result authorizationCode
	if strings.Contains(line, "code=") || strings.Contains(line, "error=") {
		parsed, err := url.Parse(line)
		if err != nil {
			result = authorizationCode{err: fmt.Errorf("parsing pasted URL: %w", err)}
		} else {
			result = parseCallback(parsed.Query(), state)
		}
	} else {
		result = authorizationCode{code: line}
	}
	select {
	case codes <- result:
	default:
	}
}

// Refresh exchanges the refresh token for a new access token.
func (provider *OAuthProvider) Refresh(ctx context.Context, current credential.Credential) (credential.Credential, error) {
	if !current.Refreshable() {
		return credential.Credential{}, errors.New("credential has no refresh token")
	}
	// An empty access token forces the token source to refresh.
	source := provider.oauthConfig("").TokenSource(provider.clientContext(ctx), &oauth2.Token{
		RefreshToken: current.RefreshToken,
	})
	token, err := source.Token()
	if err != nil {
		return credential.Credential{}, fmt.Errorf("refreshing token: %w", err)
	}
	return provider.toCredential(token, &current), nil
}

func (provider *OAuthProvider) toCredential(token *oauth2.Token, previous *credential.Credential) credential.Credential {
	result := credential.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.Type(),
		Expiry:       token.Expiry,
		Scopes:       provider.config.Scopes,
	}
	if scope, ok := token.Extra("scope").(string); ok && scope != "" {
		result.Scopes = strings.Fields(scope)
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		result.IDToken = idToken
	}
	if previous != nil {
		if result.RefreshToken == "" {
			result.RefreshToken = previous.RefreshToken
		}
		if result.IDToken == "" {
			result.IDToken = previous.IDToken
		}
	}
	return result
}
