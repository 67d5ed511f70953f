// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fieldreport/lib/access"
	"github.com/bureau-foundation/fieldreport/lib/auth"
	"github.com/bureau-foundation/fieldreport/lib/clock"
	"github.com/bureau-foundation/fieldreport/lib/config"
	"github.com/bureau-foundation/fieldreport/lib/credential"
	"github.com/bureau-foundation/fieldreport/lib/failure"
	"github.com/bureau-foundation/fieldreport/lib/remotestore"
	"github.com/bureau-foundation/fieldreport/lib/schema"
	"github.com/bureau-foundation/fieldreport/lib/sealed"
	"github.com/bureau-foundation/fieldreport/lib/storeservice"
	"github.com/bureau-foundation/fieldreport/lib/submission"
)

// ProviderFactory builds the identity provider for a loaded
// configuration. interactive is false for the terminal app, whose
// stdin belongs to bubbletea.
type ProviderFactory func(cfg *config.Config, interactive bool, notify func(string), logger *slog.Logger) (auth.Provider, error)

// IO is what the command tree reads from and writes to.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Logger builds the logger for non-interactive commands.
	Logger func(level slog.Level) *slog.Logger

	// Provider defaults to an OAuth provider built from the auth
	// section.
	Provider ProviderFactory

	// Clock defaults to the real clock.
	Clock clock.Clock
}

// environment is the set of components a command works with.
type environment struct {
	config   *config.Config
	logger   *slog.Logger
	session  *auth.Session
	store    remotestore.Store
	resolver *access.Resolver
	pipeline *submission.Pipeline

	close func() error
}

// configFlags returns a flag set carrying --config.
func configFlags(name string, path *string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVar(path, "config", "", "path to fieldreport.yaml (default $"+config.EnvVar+")")
	return flagSet
}

// loadConfig loads path, or the file named by FIELDREPORT_CONFIG when
// path is empty, and validates it.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openEnvironment wires every component from cfg. The caller must call
// env.close.
func (streams IO) openEnvironment(ctx context.Context, cfg *config.Config, logger *slog.Logger, interactive bool, notify func(string)) (*environment, error) {
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}

	var options []credential.FileOption
	options = append(options, credential.WithLogger(logger))
	if cfg.Auth.SealedIdentityFile != "" {
		identity, err := sealed.LoadIdentity(cfg.Auth.SealedIdentityFile)
		if err != nil {
			return nil, fmt.Errorf("loading credential sealing identity: %w", err)
		}
		options = append(options, credential.WithSealing(identity))
	}
	cache := credential.NewFileStore(cfg.Paths.CredentialCache, options...)

	newProvider := streams.Provider
	if newProvider == nil {
		newProvider = streams.oauthProvider
	}
	provider, err := newProvider(cfg, interactive, notify, logger)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	sessionClock := streams.Clock
	if sessionClock == nil {
		sessionClock = clock.Real()
	}
	tables := cfg.Store.Tables
	return &environment{
		config: cfg,
		logger: logger,
		session: auth.NewSession(auth.Config{
			Provider: provider,
			Store:    cache,
			Clock:    sessionClock,
			Logger:   logger,
		}),
		store:    store,
		resolver: access.NewResolver(store, tables.Users, logger),
		pipeline: submission.New(submission.Config{
			Store:  store,
			Tables: tables,
			Policy: cfg.Policy,
			Clock:  sessionClock,
			Logger: logger,
		}),
		close: closeStore,
	}, nil
}

// oauthProvider is the default ProviderFactory. Login problems in the
// auth section surface when a login is attempted, so commands that
// only use a cached credential work without them.
func (streams IO) oauthProvider(cfg *config.Config, interactive bool, notify func(string), logger *slog.Logger) (auth.Provider, error) {
	if err := cfg.ValidateAuth(); err != nil {
		return unconfiguredProvider{err: err}, nil
	}
	secret, err := config.ReadSecret(cfg.Auth.ClientSecretFile)
	if err != nil {
		return nil, fmt.Errorf("auth.client_secret_file: %w", err)
	}
	oauthConfig := auth.OAuthConfig{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: secret,
		AuthURL:      cfg.Auth.AuthURL,
		TokenURL:     cfg.Auth.TokenURL,
		UserInfoURL:  cfg.Auth.UserInfoURL,
		Scopes:       cfg.Auth.Scopes,
		RedirectHost: cfg.Auth.RedirectHost,
		OpenBrowser:  cfg.OpenBrowser(),
		Notify:       notify,
		Logger:       logger,
	}
	if interactive {
		oauthConfig.Console = streams.Stdin
		oauthConfig.Prompt = streams.Stderr
	}

	return auth.NewOAuthProvider(oauthConfig)
}

// unconfiguredProvider stands in when the auth section cannot support
// a login. Cached credentials still resolve through the session; only
// the operations that need the provider fail.
type unconfiguredProvider struct {
	err error
}

func (provider unconfiguredProvider) Authorize(context.Context) (credential.Credential, error) {
	return credential.Credential{}, failure.Auth("login is not configured: %w", provider.err)
}

func (provider unconfiguredProvider) Refresh(context.Context, credential.Credential) (credential.Credential, error) {
	return credential.Credential{}, failure.TokenExpired("cannot refresh, login is not configured: %w", provider.err)
}

func (provider unconfiguredProvider) UserEmail(context.Context, credential.Credential) (string, error) {
	return "", failure.IdentityLookup("cannot look up the account, login is not configured: %w", provider.err)
}

// openStore opens the configured backend. Local backends are
// provisioned on open; a service store is provisioned by its operator
// with "fieldreport store provision".
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (remotestore.Store, func() error, error) {
	tables := cfg.Store.Tables
	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Warn("using the in-memory store; nothing will be kept after exit")
		return remotestore.NewMemory(tables.Occurrences, tables.Tests, tables.Users), func() error { return nil }, nil

	case config.BackendSQLite:
		store, err := remotestore.OpenSQLite(cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := remotestore.Provision(ctx, store, tables); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("provisioning %s: %w", cfg.Store.SQLitePath, err)
		}
		return store, store.Close, nil

	case config.BackendService:
		token, err := config.ReadSecret(cfg.Store.ServiceTokenFile)
		if err != nil {
			return nil, nil, fmt.Errorf("store.service_token_file: %w", err)
		}
		client, err := storeservice.NewClient(storeservice.ClientConfig{
			URL:     cfg.Store.ServiceURL,
			Token:   token,
			Timeout: cfg.StoreTimeout(),
		})
		if err != nil {
			return nil, nil, err
		}
		return client, func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// withEnvironment loads configPath, opens the environment and runs fn
// with a command logger.
func (streams IO) withEnvironment(configPath string, fn func(ctx context.Context, env *environment) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := streams.commandLogger(cfg.LogLevel())
	ctx, cancel := signalContext()
	defer cancel()

	env, err := streams.openEnvironment(ctx, cfg, logger, true, nil)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := env.close(); closeErr != nil {
			logger.Warn("closing store", "error", closeErr)
		}
	}()
	return fn(ctx, env)
}

func (streams IO) commandLogger(level slog.Level) *slog.Logger {
	if streams.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return streams.Logger(level)
}

// signedIn restores the cached session and returns the account email.
// A missing session is reported with a hint to log in.
func (env *environment) signedIn(ctx context.Context) (string, error) {
	if err := env.session.Initialize(ctx); err != nil {
		return "", err
	}
	email, err := env.session.ResolveIdentity(ctx)
	if errors.Is(err, auth.ErrNoSession) {
		return "", errors.New("not signed in; run 'fieldreport login' first")
	}
	return email, err
}

// approvedProfile returns the signed-in user's directory entry, failing
// unless it is approved.
func (env *environment) approvedProfile(ctx context.Context) (schema.UserProfile, error) {
	email, err := env.signedIn(ctx)
	if err != nil {
		return schema.UserProfile{}, err
	}
	profile, err := env.resolver.ResolveProfile(ctx, email)
	if err != nil {
		return schema.UserProfile{}, err
	}
	if !profile.Approved() {
		return schema.UserProfile{}, fmt.Errorf("%s does not have approved access (status %s)", email, profile.Status)
	}
	return profile, nil
}

// adminProfile is approvedProfile restricted to administrators.
func (env *environment) adminProfile(ctx context.Context) (schema.UserProfile, error) {
	profile, err := env.approvedProfile(ctx)
	if err != nil {
		return schema.UserProfile{}, err
	}
	if profile.Role != schema.RoleAdmin {
		return schema.UserProfile{}, fmt.Errorf("%s is %s; this command needs the admin role", profile.Email, profile.Role)
	}
	return profile, nil
}

// defaultIO is the process's own streams.
func defaultIO() IO {
	return IO{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}
