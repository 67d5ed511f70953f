// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// LogRecordMsg delivers a slog record to the bubbletea model for
// display in the status bar.
type LogRecordMsg struct {
	Summary string
	Level   slog.Level
}

// LogFadeMsg is sent after [LogFadeDelay] to clear a log line from the
// status bar. Seq identifies the line it was scheduled for; a newer
// line has a higher Seq and must not be cleared early.
type LogFadeMsg struct {
	Seq int
}

// LogFadeDelay is how long a log line stays in the status bar.
const LogFadeDelay = 5 * time.Second

// FadeAfterDelay returns the command that produces a LogFadeMsg for
// the status line numbered seq.
func FadeAfterDelay(seq int) tea.Cmd {
	return tea.Tick(LogFadeDelay, func(time.Time) tea.Msg { return LogFadeMsg{Seq: seq} })
}

// Sender is the part of *tea.Program the handler needs.
type Sender interface {
	Send(tea.Msg)
}

type senderBox struct{ Sender }

// LogHandler is a slog.Handler that forwards every record to an
// optional next handler (usually the log file) and sends records at or
// above its level into a bubbletea program as LogRecordMsg.
//
// The program is attached with SetProgram after it is created. Records
// arriving before that reach only the next handler. Handlers derived
// with WithAttrs or WithGroup share the program pointer.
type LogHandler struct {
	level   slog.Level
	next    slog.Handler
	program *atomic.Pointer[senderBox]
	attrs   []slog.Attr
	groups  []string
}

// NewLogHandler creates a handler that surfaces records at or above
// level. next may be nil.
func NewLogHandler(level slog.Level, next slog.Handler) *LogHandler {
	return &LogHandler{
		level:   level,
		next:    next,
		program: &atomic.Pointer[senderBox]{},
	}
}

// SetProgram attaches the receiving program. Safe from any goroutine.
// Passing nil detaches it.
func (handler *LogHandler) SetProgram(program Sender) {
	if program == nil {
		handler.program.Store(nil)
		return
	}
	handler.program.Store(&senderBox{program})
}

// Enabled reports whether either destination wants the level.
func (handler *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= handler.level {
		return true
	}
	return handler.next != nil && handler.next.Enabled(ctx, level)
}

// Handle forwards the record to the next handler and, if it is at or
// above the handler's level, to the program.
func (handler *LogHandler) Handle(ctx context.Context, record slog.Record) error {
	var nextErr error
	if handler.next != nil && handler.next.Enabled(ctx, record.Level) {
		nextErr = handler.next.Handle(ctx, record)
	}
	if record.Level < handler.level {
		return nextErr
	}
	box := handler.program.Load()
	if box == nil {
		return nextErr
	}
	box.Send(LogRecordMsg{Summary: handler.summarize(record), Level: record.Level})
	return nextErr
}

// summarize builds "message (key=value, ...)" with group prefixes.
func (handler *LogHandler) summarize(record slog.Record) string {
	prefix := ""
	if len(handler.groups) > 0 {
		prefix = strings.Join(handler.groups, ".") + "."
	}
	var parts []string
	for _, attr := range handler.attrs {
		parts = append(parts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
	}
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, fmt.Sprintf("%s%s=%s", prefix, attr.Key, attr.Value))
		return true
	})
	if len(parts) == 0 {
		return record.Message
	}
	return record.Message + " (" + strings.Join(parts, ", ") + ")"
}

// WithAttrs returns a derived handler carrying attrs.
func (handler *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := handler.clone()
	derived.attrs = append(derived.attrs, attrs...)
	if handler.next != nil {
		derived.next = handler.next.WithAttrs(attrs)
	}
	return derived
}

// WithGroup returns a derived handler nested under name.
func (handler *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	derived := handler.clone()
	derived.groups = append(derived.groups, name)
	if handler.next != nil {
		derived.next = handler.next.WithGroup(name)
	}
	return derived
}

func (handler *LogHandler) clone() *LogHandler {
	return &LogHandler{
		level:   handler.level,
		next:    handler.next,
		program: handler.program,
		attrs:   append([]slog.Attr(nil), handler.attrs...),
		groups:  append([]string(nil), handler.groups...),
	}
}
