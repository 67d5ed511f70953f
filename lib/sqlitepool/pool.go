// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Config holds the parameters for opening a pool. Path is required.
type Config struct {
	// Path is the database file. The parent directory must exist.
	// ":memory:" works only with PoolSize 1, since every in-memory
	// connection is a separate database.
	Path string

	// PoolSize defaults to max(runtime.NumCPU(), 4).
	PoolSize int

	// Schema is an idempotent SQL script run on every new connection.
	Schema string

	// Logger receives open and close events. Nil discards.
	Logger *slog.Logger

	// OnConnect runs after pragmas and Schema on every new connection.
	OnConnect func(conn *sqlite.Conn) error
}

// Pool is a fixed-size SQLite connection pool. Pool is safe for
// concurrent use; a connection taken from it is not.
type Pool struct {
	inner  *sqlitex.Pool
	logger *slog.Logger
	path   string
}

// Open creates the pool. Connections are opened lazily.
func Open(cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlitepool: Path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = max(runtime.NumCPU(), 4)
	}

	inner, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepareConnection(conn, cfg.Schema, cfg.OnConnect)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: opening %s: %w", cfg.Path, err)
	}
	logger.Info("sqlite pool opened", "path", cfg.Path, "pool_size", poolSize)
	return &Pool{inner: inner, logger: logger, path: cfg.Path}, nil
}

// Take borrows a connection, blocking until one is free or ctx ends.
// The caller must Put it back.
func (p *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: take: %w", err)
	}
	return conn, nil
}

// Put returns a connection to the pool. Put(nil) is a no-op.
func (p *Pool) Put(conn *sqlite.Conn) {
	p.inner.Put(conn)
}

// Write runs fn inside an immediate transaction on a pooled
// connection. The transaction commits when fn returns nil and rolls
// back otherwise.
func (p *Pool) Write(ctx context.Context, fn func(conn *sqlite.Conn) error) (err error) {
	conn, err := p.Take(ctx)
	if err != nil {
		return err
	}
	defer p.Put(conn)

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("sqlitepool: begin: %w", err)
	}
	defer endFn(&err)
	return fn(conn)
}

// Read runs fn inside a deferred transaction, giving it a consistent
// snapshot.
func (p *Pool) Read(ctx context.Context, fn func(conn *sqlite.Conn) error) (err error) {
	conn, err := p.Take(ctx)
	if err != nil {
		return err
	}
	defer p.Put(conn)

	endFn := sqlitex.Transaction(conn)
	defer endFn(&err)
	return fn(conn)
}

// Close closes every connection, waiting for borrowed ones.
func (p *Pool) Close() error {
	if err := p.inner.Close(); err != nil {
		p.logger.Error("sqlite pool close error", "path", p.path, "error", err)
		return fmt.Errorf("sqlitepool: closing %s: %w", p.path, err)
	}
	p.logger.Info("sqlite pool closed", "path", p.path)
	return nil
}

func prepareConnection(conn *sqlite.Conn, schema string, onConnect func(*sqlite.Conn) error) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlitepool: %s: %w", pragma, err)
		}
	}
	if schema != "" {
		if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
			return fmt.Errorf("sqlitepool: applying schema: %w", err)
		}
	}
	if onConnect != nil {
		if err := onConnect(conn); err != nil {
			return fmt.Errorf("sqlitepool: OnConnect: %w", err)
		}
	}
	return nil
}
