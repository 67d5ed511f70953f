// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package attachment describes files attached to an occurrence. The
// files stay on the reporter's machine; the report carries each file's
// name, size and a keyed BLAKE3 digest so a reviewer can confirm that
// a copy they receive later is the one that was attached.
package attachment

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/fieldreport/lib/schema"
)

// MaxSize is the largest file that can be attached.
const MaxSize = 64 << 20

// ErrTooLarge is returned for files over MaxSize.
var ErrTooLarge = errors.New("attachment too large")

// ErrMismatch is returned by Verify when the content differs.
var ErrMismatch = errors.New("attachment content does not match its digest")

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

// domainKey separates attachment digests from any other BLAKE3 use of
// the same bytes. ASCII "fieldreport.attachment", zero-padded.
var domainKey = [32]byte{
	'f', 'i', 'e', 'l', 'd', 'r', 'e', 'p', 'o', 'r', 't', '.',
	'a', 't', 't', 'a', 'c', 'h', 'm', 'e', 'n', 't',
}

func newHasher() *blake3.Hasher {
	// NewKeyed only fails for a key that is not 32 bytes.
	hasher, err := blake3.NewKeyed(domainKey[:])
	if err != nil {
		panic("attachment: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

// Sum returns the attachment digest of data.
func Sum(data []byte) Hash {
	hasher := newHasher()
	hasher.Write(data)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}

// FormatHash returns the hex form stored in reports.
func FormatHash(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

// ParseHash parses a 64-character hex digest.
func ParseHash(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing attachment digest: %w", err)
	}
	if len(decoded) != len(hash) {
		return hash, fmt.Errorf("attachment digest is %d bytes, want %d", len(decoded), len(hash))
	}
	copy(hash[:], decoded)
	return hash, nil
}

// digest streams reader through the hasher, refusing more than
// MaxSize bytes.
func digest(reader io.Reader) (Hash, int64, error) {
	hasher := newHasher()
	size, err := io.Copy(hasher, io.LimitReader(reader, MaxSize+1))
	if err != nil {
		return Hash{}, size, err
	}
	if size > MaxSize {
		return Hash{}, size, fmt.Errorf("%w: over %d bytes", ErrTooLarge, MaxSize)
	}
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash, size, nil
}

// Describe reads the file at path and returns its descriptor. The
// name is the base name; directories are rejected.
func Describe(path string) (schema.Attachment, error) {
	file, err := os.Open(path)
	if err != nil {
		return schema.Attachment{}, fmt.Errorf("opening attachment: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return schema.Attachment{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return schema.Attachment{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxSize {
		return schema.Attachment{}, fmt.Errorf("%s: %w: %d bytes", path, ErrTooLarge, info.Size())
	}

	hash, size, err := digest(file)
	if err != nil {
		return schema.Attachment{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return schema.Attachment{
		Name:   filepath.Base(path),
		Size:   size,
		Digest: FormatHash(hash),
	}, nil
}

// Verify checks that reader holds the content described by attached.
func Verify(reader io.Reader, attached schema.Attachment) error {
	want, err := ParseHash(attached.Digest)
	if err != nil {
		return err
	}
	got, size, err := digest(reader)
	if err != nil {
		return err
	}
	if size != attached.Size || got != want {
		return fmt.Errorf("%s: %w", attached.Name, ErrMismatch)
	}
	return nil
}
