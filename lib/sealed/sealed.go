// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

// Identity is an age x25519 keypair.
type Identity struct {
	identity *age.X25519Identity
}

// Generate creates a new random identity.
func Generate() (*Identity, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}
	return &Identity{identity: identity}, nil
}

// ParseIdentity parses an AGE-SECRET-KEY-1... string.
func ParseIdentity(text string) (*Identity, error) {
	identity, err := age.ParseX25519Identity(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("invalid age identity: %w", err)
	}
	return &Identity{identity: identity}, nil
}

// LoadIdentity reads an identity file. Lines starting with '#' are
// comments, matching the files age-keygen writes; the first key line
// is used.
func LoadIdentity(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return ParseIdentity(line)
	}
	return nil, fmt.Errorf("identity file %s contains no key", path)
}

// WriteFile writes the identity to path with mode 0600, creating the
// parent directory. An existing file is never overwritten.
func (identity *Identity) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating identity directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating identity file: %w", err)
	}
	content := fmt.Sprintf("# public key: %s\n%s\n", identity.Recipient(), identity.identity.String())
	if _, err := file.WriteString(content); err != nil {
		file.Close()
		return fmt.Errorf("writing identity file: %w", err)
	}
	return file.Close()
}

// Recipient returns the public key in age1... form.
func (identity *Identity) Recipient() string {
	return identity.identity.Recipient().String()
}

// Seal encrypts plaintext to the given age1... recipients and returns
// base64 ciphertext.
func Seal(plaintext []byte, recipientKeys ...string) (string, error) {
	if len(recipientKeys) == 0 {
		return "", errors.New("at least one recipient is required")
	}
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return "", fmt.Errorf("parsing recipient %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipients...)
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return "", fmt.Errorf("writing plaintext: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing encryption: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext.Bytes()), nil
}

// Open decrypts base64 ciphertext produced by [Seal].
func Open(ciphertext string, identity *Identity) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return nil, fmt.Errorf("decoding base64 ciphertext: %w", err)
	}
	reader, err := age.Decrypt(bytes.NewReader(raw), identity.identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading plaintext: %w", err)
	}
	return plaintext, nil
}
