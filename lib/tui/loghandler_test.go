// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []tea.Msg
}

func (sender *recordingSender) Send(msg tea.Msg) {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	sender.messages = append(sender.messages, msg)
}

func (sender *recordingSender) records() []LogRecordMsg {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	var records []LogRecordMsg
	for _, msg := range sender.messages {
		if record, ok := msg.(LogRecordMsg); ok {
			records = append(records, record)
		}
	}
	return records
}

func TestLogHandlerSurfacesWarnings(t *testing.T) {
	var file bytes.Buffer
	handler := NewLogHandler(slog.LevelWarn, slog.NewTextHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sender := &recordingSender{}
	handler.SetProgram(sender)
	logger := slog.New(handler).With("screen", "home")

	logger.Info("profile resolved", "email", "a@example.org")
	logger.Warn("store slow", "table", "Users")

	records := sender.records()
	if len(records) != 1 {
		t.Fatalf("%d records sent, want 1", len(records))
	}
	if records[0].Level != slog.LevelWarn {
		t.Errorf("level = %v", records[0].Level)
	}
	if want := "store slow (screen=home, table=Users)"; records[0].Summary != want {
		t.Errorf("summary = %q, want %q", records[0].Summary, want)
	}
	if !strings.Contains(file.String(), "profile resolved") || !strings.Contains(file.String(), "store slow") {
		t.Errorf("next handler missed records:\n%s", file.String())
	}
}

func TestLogHandlerBeforeProgram(t *testing.T) {
	handler := NewLogHandler(slog.LevelWarn, nil)
	logger := slog.New(handler)
	logger.Error("dropped")

	sender := &recordingSender{}
	handler.SetProgram(sender)
	slog.New(handler.WithGroup("auth")).Error("kept", "attempt", 2)

	records := sender.records()
	if len(records) != 1 || records[0].Summary != "kept (auth.attempt=2)" {
		t.Errorf("records = %+v", records)
	}
}

func TestLogHandlerEnabled(t *testing.T) {
	handler := NewLogHandler(slog.LevelWarn, nil)
	if handler.Enabled(t.Context(), slog.LevelInfo) {
		t.Error("info enabled without a next handler")
	}
	if !handler.Enabled(t.Context(), slog.LevelError) {
		t.Error("error not enabled")
	}
}
