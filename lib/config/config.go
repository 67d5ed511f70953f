// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/fieldreport/lib/schema"
	"github.com/bureau-foundation/fieldreport/lib/submission"
)

// EnvVar names the environment variable Load reads the path from.
const EnvVar = "FIELDREPORT_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Store backends.
const (
	BackendMemory  = "memory"
	BackendSQLite  = "sqlite"
	BackendService = "service"
)

// Config is the complete fieldreport configuration.
type Config struct {
	Environment Environment       `yaml:"environment"`
	Paths       PathsConfig       `yaml:"paths"`
	Auth        AuthConfig        `yaml:"auth"`
	Store       StoreConfig       `yaml:"store"`
	Policy      submission.Policy `yaml:"policy"`
	Logging     LoggingConfig     `yaml:"logging"`
	Server      ServerConfig      `yaml:"server"`

	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths   *PathsConfig   `yaml:"paths,omitempty"`
	Auth    *AuthConfig    `yaml:"auth,omitempty"`
	Store   *StoreConfig   `yaml:"store,omitempty"`
	Logging *LoggingConfig `yaml:"logging,omitempty"`
}

// PathsConfig configures local file locations.
type PathsConfig struct {
	// State is the directory for local state.
	State string `yaml:"state"`

	// CredentialCache is the cached credential file.
	CredentialCache string `yaml:"credential_cache"`

	// LogFile receives the terminal app's log.
	LogFile string `yaml:"log_file"`
}

// AuthConfig configures the OAuth2 identity provider.
type AuthConfig struct {
	ClientID         string   `yaml:"client_id"`
	ClientSecretFile string   `yaml:"client_secret_file"`
	AuthURL          string   `yaml:"auth_url"`
	TokenURL         string   `yaml:"token_url"`
	UserInfoURL      string   `yaml:"userinfo_url"`
	Scopes           []string `yaml:"scopes"`

	// RedirectHost is the loopback address the callback listener
	// binds.
	RedirectHost string `yaml:"redirect_host"`

	// OpenBrowser launches the system browser for login. When false,
	// or when launching fails, login falls back to the console.
	OpenBrowser *bool `yaml:"open_browser"`

	// SealedIdentityFile, when set, is an age identity used to
	// encrypt the credential cache.
	SealedIdentityFile string `yaml:"sealed_identity_file"`
}

// StoreConfig selects and configures the remote store.
type StoreConfig struct {
	Backend          string        `yaml:"backend"`
	SQLitePath       string        `yaml:"sqlite_path"`
	ServiceURL       string        `yaml:"service_url"`
	ServiceTokenFile string        `yaml:"service_token_file"`
	Timeout          string        `yaml:"timeout"`
	Tables           schema.Tables `yaml:"tables"`
}

// LoggingConfig configures log verbosity.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
}

// ServerConfig configures fieldreport-store.
type ServerConfig struct {
	Listen    string `yaml:"listen"`
	TokenFile string `yaml:"token_file"`
}

// Default returns the configuration used as the base before the file
// is applied.
func Default() *Config {
	openBrowser := true
	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			State:           "${HOME}/.local/state/fieldreport",
			CredentialCache: "${FIELDREPORT_STATE}/credential.json",
			LogFile:         "${FIELDREPORT_STATE}/fieldreport.log",
		},
		Auth: AuthConfig{
			Scopes:       []string{"openid", "email", "profile"},
			RedirectHost: "127.0.0.1",
			OpenBrowser:  &openBrowser,
		},
		Store: StoreConfig{
			Backend:    BackendSQLite,
			SQLitePath: "${FIELDREPORT_STATE}/store.db",
			Timeout:    "30s",
			Tables:     schema.DefaultTables,
		},
		Policy:  submission.DefaultPolicy(),
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Listen: "127.0.0.1:8740"},
	}
}

// Load loads configuration from the file named by FIELDREPORT_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your fieldreport.yaml, or use --config", EnvVar)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		setIfNonEmpty(&c.Paths.State, overrides.Paths.State)
		setIfNonEmpty(&c.Paths.CredentialCache, overrides.Paths.CredentialCache)
		setIfNonEmpty(&c.Paths.LogFile, overrides.Paths.LogFile)
	}
	if overrides.Auth != nil {
		setIfNonEmpty(&c.Auth.ClientID, overrides.Auth.ClientID)
		setIfNonEmpty(&c.Auth.ClientSecretFile, overrides.Auth.ClientSecretFile)
		setIfNonEmpty(&c.Auth.AuthURL, overrides.Auth.AuthURL)
		setIfNonEmpty(&c.Auth.TokenURL, overrides.Auth.TokenURL)
		setIfNonEmpty(&c.Auth.UserInfoURL, overrides.Auth.UserInfoURL)
		setIfNonEmpty(&c.Auth.RedirectHost, overrides.Auth.RedirectHost)
		setIfNonEmpty(&c.Auth.SealedIdentityFile, overrides.Auth.SealedIdentityFile)
		if len(overrides.Auth.Scopes) > 0 {
			c.Auth.Scopes = overrides.Auth.Scopes
		}
		if overrides.Auth.OpenBrowser != nil {
			c.Auth.OpenBrowser = overrides.Auth.OpenBrowser
		}
	}
	if overrides.Store != nil {
		setIfNonEmpty(&c.Store.Backend, overrides.Store.Backend)
		setIfNonEmpty(&c.Store.SQLitePath, overrides.Store.SQLitePath)
		setIfNonEmpty(&c.Store.ServiceURL, overrides.Store.ServiceURL)
		setIfNonEmpty(&c.Store.ServiceTokenFile, overrides.Store.ServiceTokenFile)
		setIfNonEmpty(&c.Store.Timeout, overrides.Store.Timeout)
		setIfNonEmpty(&c.Store.Tables.Occurrences, overrides.Store.Tables.Occurrences)
		setIfNonEmpty(&c.Store.Tables.Tests, overrides.Store.Tables.Tests)
		setIfNonEmpty(&c.Store.Tables.Users, overrides.Store.Tables.Users)
	}
	if overrides.Logging != nil {
		setIfNonEmpty(&c.Logging.Level, overrides.Logging.Level)
	}
}

func setIfNonEmpty(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{"HOME": os.Getenv("HOME")}
	c.Paths.State = expandVars(c.Paths.State, vars)
	vars["FIELDREPORT_STATE"] = c.Paths.State

	c.Paths.CredentialCache = expandVars(c.Paths.CredentialCache, vars)
	c.Paths.LogFile = expandVars(c.Paths.LogFile, vars)
	c.Auth.ClientSecretFile = expandVars(c.Auth.ClientSecretFile, vars)
	c.Auth.SealedIdentityFile = expandVars(c.Auth.SealedIdentityFile, vars)
	c.Store.SQLitePath = expandVars(c.Store.SQLitePath, vars)
	c.Store.ServiceTokenFile = expandVars(c.Store.ServiceTokenFile, vars)
	c.Server.TokenFile = expandVars(c.Server.TokenFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}. vars take precedence
// over the environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. Auth settings are
// checked only for form here; [Config.ValidateAuth] checks that login
// is possible.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains([]Environment{Development, Staging, Production}, c.Environment) {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Paths.State == "" {
		errs = append(errs, errors.New("paths.state is required"))
	}

	switch c.Store.Backend {
	case BackendMemory:
		if c.Environment == Production {
			errs = append(errs, errors.New("store.backend memory is not allowed in production"))
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite backend"))
		}
	case BackendService:
		if err := checkURL(c.Store.ServiceURL); err != nil {
			errs = append(errs, fmt.Errorf("store.service_url: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be one of memory, sqlite, service; got %q", c.Store.Backend))
	}
	if _, err := time.ParseDuration(c.Store.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("store.timeout: %w", err))
	}
	tables := c.Store.Tables
	if tables.Occurrences == "" || tables.Tests == "" || tables.Users == "" {
		errs = append(errs, errors.New("store.tables must name the occurrences, tests and users tables"))
	}

	if c.Policy.DefaultMinimumRecords < 0 {
		errs = append(errs, errors.New("policy.default_minimum_records must not be negative"))
	}
	for role, minimum := range c.Policy.MinimumRecords {
		if _, ok := schema.ParseRole(string(role)); !ok {
			errs = append(errs, fmt.Errorf("policy.minimum_records: unknown role %q", role))
		}
		if minimum < 0 {
			errs = append(errs, fmt.Errorf("policy.minimum_records.%s must not be negative", role))
		}
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}

	for name, value := range map[string]string{
		"auth.auth_url":     c.Auth.AuthURL,
		"auth.token_url":    c.Auth.TokenURL,
		"auth.userinfo_url": c.Auth.UserInfoURL,
	} {
		if value == "" {
			continue
		}
		if err := checkURL(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// ValidateAuth checks that the settings an interactive login needs
// are present.
func (c *Config) ValidateAuth() error {
	var errs []error
	if c.Auth.ClientID == "" {
		errs = append(errs, errors.New("auth.client_id is required"))
	}
	if c.Auth.AuthURL == "" {
		errs = append(errs, errors.New("auth.auth_url is required"))
	}
	if c.Auth.TokenURL == "" {
		errs = append(errs, errors.New("auth.token_url is required"))
	}
	if len(c.Auth.Scopes) == 0 {
		errs = append(errs, errors.New("auth.scopes must not be empty"))
	}
	return errors.Join(errs...)
}

func checkURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%q is not an http(s) URL", raw)
	}
	return nil
}

func parseLevel(level string) (slog.Level, error) {
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return parsed, nil
}

// LogLevel returns the configured level, or info when it is invalid.
func (c *Config) LogLevel() slog.Level {
	level, err := parseLevel(c.Logging.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// StoreTimeout returns the configured store timeout.
func (c *Config) StoreTimeout() time.Duration {
	timeout, err := time.ParseDuration(c.Store.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return timeout
}

// OpenBrowser reports whether login should launch a browser.
func (c *Config) OpenBrowser() bool {
	return c.Auth.OpenBrowser == nil || *c.Auth.OpenBrowser
}

// ReadSecret reads a secret file and trims surrounding whitespace. An
// empty path yields "".
func ReadSecret(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", path)
	}
	return secret, nil
}

// EnsurePaths creates the state directory and the directories of the
// configured files.
func (c *Config) EnsurePaths() error {
	directories := []string{c.Paths.State}
	for _, file := range []string{c.Paths.CredentialCache, c.Paths.LogFile, c.Store.SQLitePath} {
		if file != "" {
			directories = append(directories, filepath.Dir(file))
		}
	}
	for _, directory := range directories {
		if directory == "" {
			continue
		}
		if err := os.MkdirAll(directory, 0o700); err != nil {
			return fmt.Errorf("creating %s: %w", directory, err)
		}
	}
	return nil
}
