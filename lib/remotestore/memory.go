// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotestore

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// Operation names a Store method, for failure injection.
type Operation string

const (
	OpAppend Operation = "append"
	OpScan   Operation = "scan"
	OpUpdate Operation = "update"
)

// Call records one operation against a Memory store.
type Call struct {
	Op    Operation
	Table string
	Rows  int
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.Mutex
	tables map[string][]Row
	calls  []Call

	// failures maps "op table" to the error the next calls return.
	failures map[string]error
}

// NewMemory returns a store containing the named empty tables.
func NewMemory(tables ...string) *Memory {
	memory := &Memory{
		tables:   make(map[string][]Row),
		failures: make(map[string]error),
	}
	for _, table := range tables {
		memory.tables[table] = nil
	}
	return memory
}

// CreateTable adds an empty table. Existing tables are left alone.
// Memory tables are schemaless; columns is accepted so Memory can be
// provisioned like the other backends.
func (memory *Memory) CreateTable(ctx context.Context, table string, columns []string) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, exists := memory.tables[table]; !exists {
		memory.tables[table] = nil
	}
	return nil
}

// DropTable removes a table and its rows.
func (memory *Memory) DropTable(table string) {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	delete(memory.tables, table)
}

// FailWith makes every later op on table return err, until cleared
// with a nil err.
func (memory *Memory) FailWith(op Operation, table string, err error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	key := string(op) + " " + table
	if err == nil {
		delete(memory.failures, key)
		return
	}
	memory.failures[key] = err
}

// Calls returns the operations performed so far, in order.
func (memory *Memory) Calls() []Call {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	return slices.Clone(memory.calls)
}

// Rows returns a copy of table's rows, or nil when it does not exist.
func (memory *Memory) Rows(table string) []Row {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	return cloneRows(memory.tables[table])
}

func (memory *Memory) Append(ctx context.Context, table string, rows ...Row) error {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	memory.calls = append(memory.calls, Call{Op: OpAppend, Table: table, Rows: len(rows)})
	if err := memory.check(ctx, OpAppend, table); err != nil {
		return err
	}
	memory.tables[table] = append(memory.tables[table], cloneRows(rows)...)
	return nil
}

func (memory *Memory) Scan(ctx context.Context, table string) ([]Row, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	memory.calls = append(memory.calls, Call{Op: OpScan, Table: table})
	if err := memory.check(ctx, OpScan, table); err != nil {
		return nil, err
	}
	return cloneRows(memory.tables[table]), nil
}

func (memory *Memory) Update(ctx context.Context, table string, keyColumn int, key string, row Row) (int, error) {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	memory.calls = append(memory.calls, Call{Op: OpUpdate, Table: table, Rows: 1})
	if err := memory.check(ctx, OpUpdate, table); err != nil {
		return 0, err
	}
	matched := 0
	for index, existing := range memory.tables[table] {
		if KeyMatches(existing, keyColumn, key) {
			memory.tables[table][index] = slices.Clone(row)
			matched++
		}
	}
	return matched, nil
}

func (memory *Memory) check(ctx context.Context, op Operation, table string) error {
	if err := ctx.Err(); err != nil {
		return Transient(err)
	}
	if err, ok := memory.failures[string(op)+" "+table]; ok {
		return err
	}
	if _, exists := memory.tables[table]; !exists {
		return NoSuchTable(table)
	}
	return nil
}

// KeyMatches reports whether row's cell at keyColumn equals key,
// ignoring case and surrounding whitespace.
func KeyMatches(row Row, keyColumn int, key string) bool {
	if keyColumn < 0 || keyColumn >= len(row) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(row[keyColumn]), strings.TrimSpace(key))
}

func cloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	cloned := make([]Row, len(rows))
	for index, row := range rows {
		cloned[index] = slices.Clone(row)
	}
	return cloned
}
