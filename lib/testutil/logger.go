// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// Logger returns a debug-level logger that writes through t.Log.
func Logger(t testing.TB) *slog.Logger {
	t.Helper()
	writer := &testWriter{t: t}
	return slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// testWriter forwards complete lines to t.Log. Writes after the test
// finishes are dropped; background goroutines may still be logging.
type testWriter struct {
	t       testing.TB
	mu      sync.Mutex
	pending bytes.Buffer
}

func (writer *testWriter) Write(data []byte) (int, error) {
	writer.mu.Lock()
	defer writer.mu.Unlock()
	writer.pending.Write(data)
	for {
		line, err := writer.pending.ReadString('\n')
		if err != nil {
			// Incomplete line: put it back for the next write.
			writer.pending.Reset()
			writer.pending.WriteString(line)
			break
		}
		writer.log(strings.TrimSuffix(line, "\n"))
	}
	return len(data), nil
}

func (writer *testWriter) log(line string) {
	defer func() {
		// t.Log panics once the test has completed.
		_ = recover()
	}()
	writer.t.Log(line)
}
