// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/fieldreport/lib/sealed"
)

// FileStore keeps the credential in a JSON file.
type FileStore struct {
	path     string
	identity *sealed.Identity
	logger   *slog.Logger
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithSealing encrypts the file to identity's recipient on save and
// decrypts it on load.
func WithSealing(identity *sealed.Identity) FileOption {
	return func(store *FileStore) { store.identity = identity }
}

// WithLogger sets the logger that records why a cache was ignored.
func WithLogger(logger *slog.Logger) FileOption {
	return func(store *FileStore) { store.logger = logger }
}

// NewFileStore returns a store backed by path. The file is created on
// the first Save.
func NewFileStore(path string, options ...FileOption) *FileStore {
	store := &FileStore{path: path}
	for _, option := range options {
		option(store)
	}
	if store.logger == nil {
		store.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return store
}

// Path returns the cache file location.
func (store *FileStore) Path() string {
	return store.path
}

// Load reads the cache. Every failure is logged at debug level and
// reported as absent.
func (store *FileStore) Load() (*Credential, bool) {
	data, err := os.ReadFile(store.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			store.logger.Debug("credential cache unreadable", "path", store.path, "error", err)
		}
		return nil, false
	}
	credential, err := store.decode(data)
	if err != nil {
		store.logger.Debug("ignoring credential cache", "path", store.path, "error", err)
		return nil, false
	}
	return credential, true
}

func (store *FileStore) decode(data []byte) (*Credential, error) {
	data = bytes.TrimSpace(data)
	// A plain JSON file is accepted even when sealing is on, so
	// enabling sealing does not log the user out.
	if store.identity != nil && len(data) > 0 && data[0] != '{' {
		plaintext, err := sealed.Open(string(data), store.identity)
		if err != nil {
			return nil, fmt.Errorf("unsealing: %w", err)
		}
		data = plaintext
	}

	var credential Credential
	if err := json.Unmarshal(jsonc.ToJSON(data), &credential); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	if credential.AccessToken == "" {
		return nil, errors.New("no access token")
	}
	return &credential, nil
}

// Save writes the credential atomically with respect to readers: the
// content goes to a temporary file in the same directory which is
// then renamed over the cache.
func (store *FileStore) Save(credential Credential) error {
	data, err := json.MarshalIndent(credential, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}
	if store.identity != nil {
		ciphertext, err := sealed.Seal(data, store.identity.Recipient())
		if err != nil {
			return fmt.Errorf("sealing credential: %w", err)
		}
		data = []byte(ciphertext)
	}
	data = append(data, '\n')

	directory := filepath.Dir(store.path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("creating credential directory: %w", err)
	}
	temporary, err := os.CreateTemp(directory, ".credential-*")
	if err != nil {
		return fmt.Errorf("creating temporary credential file: %w", err)
	}
	temporaryPath := temporary.Name()
	defer os.Remove(temporaryPath)

	if err := temporary.Chmod(0o600); err != nil {
		temporary.Close()
		return fmt.Errorf("restricting credential file: %w", err)
	}
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return fmt.Errorf("writing credential file: %w", err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("closing credential file: %w", err)
	}
	if err := os.Rename(temporaryPath, store.path); err != nil {
		return fmt.Errorf("installing credential file: %w", err)
	}
	return nil
}

// Clear removes the cache. A missing file is not an error.
func (store *FileStore) Clear() error {
	if err := os.Remove(store.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing credential file: %w", err)
	}
	return nil
}
