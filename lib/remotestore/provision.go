// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotestore

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/fieldreport/lib/schema"
)

// TableCreator is a store that can create tables.
type TableCreator interface {
	CreateTable(ctx context.Context, table string, columns []string) error
}

// Provision creates the occurrence, test and user tables under the
// given names. Tables that already exist are left untouched.
func Provision(ctx context.Context, creator TableCreator, tables schema.Tables) error {
	layouts := []struct {
		name    string
		columns []string
	}{
		{tables.Occurrences, schema.OccurrenceColumns},
		{tables.Tests, schema.TestColumns},
		{tables.Users, schema.UserColumns},
	}
	for _, layout := range layouts {
		if err := creator.CreateTable(ctx, layout.name, layout.columns); err != nil {
			return fmt.Errorf("creating table %q: %w", layout.name, err)
		}
	}
	return nil
}
