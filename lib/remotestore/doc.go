// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package remotestore defines the tabular store fieldreport persists
// to, and two of its backends.
//
// A [Store] holds named tables of string rows and supports exactly
// three operations: append rows, scan a table, and update rows whose
// key column matches. There are no queries and no transactions across
// calls. Tables must exist before use; operating on a missing table
// fails with an error wrapping [ErrNoSuchTable], which callers treat
// as a configuration problem rather than a transient failure.
//
// [Memory] keeps tables in process and can inject failures for tests.
// [SQLite] keeps them in a local database (see lib/sqlitepool). The
// HTTP client in lib/storeservice is the third backend.
package remotestore
