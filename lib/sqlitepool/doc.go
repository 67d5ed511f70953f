// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens a pool of SQLite connections with the
// pragmas every fieldreport database uses, on top of
// zombiezen.com/go/sqlite.
//
// Every connection is prepared with:
//
//   - journal_mode=WAL: readers never block the single writer.
//   - synchronous=NORMAL: commits survive a process crash.
//   - busy_timeout=5000: wait for the write lock instead of failing
//     with SQLITE_BUSY.
//   - foreign_keys=ON: the store schema relies on row ownership.
//   - temp_store=MEMORY.
//
// [Config.Schema] is executed on every new connection, so it must be
// idempotent (CREATE ... IF NOT EXISTS). [Pool.Write] and [Pool.Read]
// wrap Take/Put and transaction handling for the common case.
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{Path: path, Schema: schema})
//	err = pool.Write(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, "INSERT ...", &sqlitex.ExecOptions{Args: args})
//	})
package sqlitepool
