// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/fieldreport/lib/sealed"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestCredentialValidity(t *testing.T) {
	tests := []struct {
		name       string
		credential Credential
		want       bool
	}{
		{"future expiry", Credential{AccessToken: "a", Expiry: epoch.Add(time.Minute)}, true},
		{"past expiry", Credential{AccessToken: "a", Expiry: epoch.Add(-time.Minute)}, false},
		{"expiry equals now", Credential{AccessToken: "a", Expiry: epoch}, false},
		{"no expiry", Credential{AccessToken: "a"}, true},
		{"no token", Credential{Expiry: epoch.Add(time.Hour)}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.credential.Valid(epoch); got != test.want {
				t.Errorf("Valid() = %v, want %v", got, test.want)
			}
		})
	}

	if (Credential{AccessToken: "a"}).Refreshable() {
		t.Error("credential without refresh token reported refreshable")
	}
	if !(Credential{AccessToken: "a", RefreshToken: "r"}).Refreshable() {
		t.Error("credential with refresh token reported not refreshable")
	}
}

func TestHasScopes(t *testing.T) {
	credential := Credential{Scopes: []string{"email", "store.readwrite"}}
	if !credential.HasScopes([]string{"email"}) {
		t.Error("granted scope reported missing")
	}
	if credential.HasScopes([]string{"email", "admin"}) {
		t.Error("missing scope reported granted")
	}
}

func TestFileStoreSaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "credential.json")
	store := NewFileStore(path)

	if _, ok := store.Load(); ok {
		t.Fatal("Load on missing file reported a credential")
	}

	saved := Credential{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       epoch,
		Scopes:       []string{"email"},
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("cache mode = %o, want 600", info.Mode().Perm())
	}

	loaded, ok := store.Load()
	if !ok {
		t.Fatal("Load after Save reported absent")
	}
	if loaded.AccessToken != "access" || loaded.RefreshToken != "refresh" || !loaded.Expiry.Equal(epoch) {
		t.Errorf("loaded %+v, want %+v", loaded, saved)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := store.Load(); ok {
		t.Error("Load after Clear reported a credential")
	}
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestFileStoreCorruptCacheIsAbsent(t *testing.T) {
	for name, content := range map[string]string{
		"garbage":         "not json at all",
		"truncated":       `{"access_token": "abc"`,
		"no access token": `{"refresh_token": "r"}`,
		"wrong shape":     `{"access_token": 42}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "credential.json")
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			if credential, ok := NewFileStore(path).Load(); ok {
				t.Errorf("Load() = %+v, want absent", credential)
			}
		})
	}
}

func TestFileStoreToleratesHandEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")
	content := `{
		// pasted from another machine
		"access_token": "abc",
		"refresh_token": "def",
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	credential, ok := NewFileStore(path).Load()
	if !ok {
		t.Fatal("Load rejected a commented cache file")
	}
	if credential.AccessToken != "abc" || credential.RefreshToken != "def" {
		t.Errorf("loaded %+v", credential)
	}
}

func TestFileStoreSealed(t *testing.T) {
	identity, err := sealed.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "credential.json")
	store := NewFileStore(path, WithSealing(identity))

	if err := store.Save(Credential{AccessToken: "very-secret"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "very-secret") {
		t.Fatal("sealed cache contains the plaintext token")
	}
	loaded, ok := store.Load()
	if !ok || loaded.AccessToken != "very-secret" {
		t.Fatalf("Load() = %+v, %v", loaded, ok)
	}

	other, err := sealed.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, ok := NewFileStore(path, WithSealing(other)).Load(); ok {
		t.Error("cache sealed to another identity loaded")
	}
	if _, ok := NewFileStore(path).Load(); ok {
		t.Error("sealed cache loaded without an identity")
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	store := NewMemoryStore(&Credential{AccessToken: "a"})
	loaded, ok := store.Load()
	if !ok {
		t.Fatal("Load reported absent")
	}
	loaded.AccessToken = "mutated"
	again, _ := store.Load()
	if again.AccessToken != "a" {
		t.Error("mutating a loaded credential changed the store")
	}
}
