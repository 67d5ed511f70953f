// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the fieldreport data model and its layout in
// the remote tabular store.
//
// The store holds three logical tables:
//
//   - Occurrences: one header row per submitted report
//     ([OccurrenceColumns]). The test list and attachment list are
//     serialized as JSON into their own cells.
//   - Tests: one row per [TestRecord], linked to its header by
//     occurrence id ([TestColumns]).
//   - Users: the access directory, one row per account
//     ([UserColumns]). Rows are created by access requests and
//     mutated by administrators.
//
// Rows are ordered string cells. Each type has a Row method producing
// its cells and a FromRow function parsing them back. Parsers accept
// short rows (missing trailing cells read as empty) because
// spreadsheet-style stores drop trailing blanks.
//
// This package depends on no other fieldreport packages.
package schema
