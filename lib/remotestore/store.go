// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotestore

import (
	"context"
	"errors"
	"fmt"
)

// Row is one table row: cells in column order.
type Row = []string

// Store is a remote tabular store.
type Store interface {
	// Append adds rows to the end of table.
	Append(ctx context.Context, table string, rows ...Row) error

	// Scan returns every row of table in insertion order.
	Scan(ctx context.Context, table string) ([]Row, error)

	// Update replaces every row whose cell at keyColumn equals key
	// (case-insensitively) with row, and returns how many rows matched.
	Update(ctx context.Context, table string, keyColumn int, key string, row Row) (int, error)
}

// ErrNoSuchTable reports that a table the caller expected is absent.
var ErrNoSuchTable = errors.New("no such table")

// NoSuchTable returns an error wrapping ErrNoSuchTable for table.
func NoSuchTable(table string) error {
	return fmt.Errorf("%w: %q", ErrNoSuchTable, table)
}

// TransientError marks a failure that may succeed on retry: a network
// error, a timeout, a server that is briefly unavailable.
type TransientError struct {
	Err error
}

func (err *TransientError) Error() string {
	return err.Err.Error()
}

func (err *TransientError) Unwrap() error {
	return err.Err
}

// Transient wraps err as a TransientError. Transient(nil) is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err, or anything it wraps, is transient.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}
