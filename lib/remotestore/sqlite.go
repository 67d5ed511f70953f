// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotestore

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/fieldreport/lib/codec"
	"github.com/bureau-foundation/fieldreport/lib/sqlitepool"
)

// sqliteSchema stores logical tables as metadata rows plus one
// CBOR-encoded payload per logical row. seq preserves insertion order.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS fr_tables (
	name    TEXT PRIMARY KEY,
	columns BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS fr_rows (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	table_name TEXT NOT NULL REFERENCES fr_tables(name) ON DELETE CASCADE,
	data       BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS fr_rows_by_table ON fr_rows(table_name, seq);
`

// SQLite is a Store backed by a local SQLite database.
type SQLite struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   path,
		Schema: sqliteSchema,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	return &SQLite{pool: pool, logger: logger}, nil
}

// Close closes the database.
func (store *SQLite) Close() error {
	return store.pool.Close()
}

// CreateTable registers a logical table with its column names.
func (store *SQLite) CreateTable(ctx context.Context, table string, columns []string) error {
	encoded, err := codec.Marshal(columns)
	if err != nil {
		return fmt.Errorf("encoding columns: %w", err)
	}
	return store.pool.Write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			"INSERT INTO fr_tables (name, columns) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
			&sqlitex.ExecOptions{Args: []any{table, encoded}})
	})
}

// Columns returns the column names registered for table.
func (store *SQLite) Columns(ctx context.Context, table string) ([]string, error) {
	var columns []string
	err := store.pool.Read(ctx, func(conn *sqlite.Conn) error {
		found := false
		err := sqlitex.Execute(conn, "SELECT columns FROM fr_tables WHERE name = ?", &sqlitex.ExecOptions{
			Args: []any{table},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				return codec.Unmarshal(columnBytes(stmt, 0), &columns)
			},
		})
		if err != nil {
			return err
		}
		if !found {
			return NoSuchTable(table)
		}
		return nil
	})
	return columns, err
}

func (store *SQLite) Append(ctx context.Context, table string, rows ...Row) error {
	payloads := make([][]byte, len(rows))
	for index, row := range rows {
		encoded, err := codec.Marshal(row)
		if err != nil {
			return fmt.Errorf("encoding row %d: %w", index, err)
		}
		payloads[index] = encoded
	}
	return store.pool.Write(ctx, func(conn *sqlite.Conn) error {
		if err := requireTable(conn, table); err != nil {
			return err
		}
		for _, payload := range payloads {
			err := sqlitex.Execute(conn, "INSERT INTO fr_rows (table_name, data) VALUES (?, ?)",
				&sqlitex.ExecOptions{Args: []any{table, payload}})
			if err != nil {
				return fmt.Errorf("inserting into %q: %w", table, err)
			}
		}
		return nil
	})
}

func (store *SQLite) Scan(ctx context.Context, table string) ([]Row, error) {
	var rows []Row
	err := store.pool.Read(ctx, func(conn *sqlite.Conn) error {
		if err := requireTable(conn, table); err != nil {
			return err
		}
		return eachRow(conn, table, func(_ int64, row Row) error {
			rows = append(rows, row)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (store *SQLite) Update(ctx context.Context, table string, keyColumn int, key string, row Row) (int, error) {
	encoded, err := codec.Marshal(row)
	if err != nil {
		return 0, fmt.Errorf("encoding row: %w", err)
	}
	matched := 0
	err = store.pool.Write(ctx, func(conn *sqlite.Conn) error {
		if err := requireTable(conn, table); err != nil {
			return err
		}
		var targets []int64
		err := eachRow(conn, table, func(seq int64, existing Row) error {
			if KeyMatches(existing, keyColumn, key) {
				targets = append(targets, seq)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, seq := range targets {
			err := sqlitex.Execute(conn, "UPDATE fr_rows SET data = ? WHERE seq = ?",
				&sqlitex.ExecOptions{Args: []any{encoded, seq}})
			if err != nil {
				return fmt.Errorf("updating %q row %d: %w", table, seq, err)
			}
		}
		matched = len(targets)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return matched, nil
}

func requireTable(conn *sqlite.Conn, table string) error {
	found := false
	err := sqlitex.Execute(conn, "SELECT 1 FROM fr_tables WHERE name = ?", &sqlitex.ExecOptions{
		Args: []any{table},
		ResultFunc: func(*sqlite.Stmt) error {
			found = true
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("looking up table %q: %w", table, err)
	}
	if !found {
		return NoSuchTable(table)
	}
	return nil
}

func eachRow(conn *sqlite.Conn, table string, fn func(seq int64, row Row) error) error {
	return sqlitex.Execute(conn, "SELECT seq, data FROM fr_rows WHERE table_name = ? ORDER BY seq", &sqlitex.ExecOptions{
		Args: []any{table},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			seq := stmt.ColumnInt64(0)
			data := columnBytes(stmt, 1)
			var row Row
			if err := codec.Unmarshal(data, &row); err != nil {
				diagnostic, _ := codec.Diagnose(data)
				return fmt.Errorf("decoding %q row %d (%s): %w", table, seq, diagnostic, err)
			}
			return fn(seq, row)
		},
	})
}

func columnBytes(stmt *sqlite.Stmt, column int) []byte {
	data := make([]byte, stmt.ColumnLen(column))
	stmt.ColumnBytes(column, data)
	return data
}
