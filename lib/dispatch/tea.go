// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import tea "github.com/charmbracelet/bubbletea"

// CompletionMsg carries one queued completion into a bubbletea
// Update. The model must call Run and then re-issue Listen.
type CompletionMsg struct {
	completion func()
}

// Run executes the completion on the calling goroutine.
func (msg CompletionMsg) Run() {
	if msg.completion != nil {
		msg.completion()
	}
}

// Listen returns a command that blocks until a completion is queued
// and delivers it as a CompletionMsg. The command returns nil when the
// dispatcher's context ends.
func (dispatcher *Dispatcher) Listen() tea.Cmd {
	return func() tea.Msg {
		completion, err := dispatcher.take(dispatcher.ctx)
		if err != nil {
			return nil
		}
		return CompletionMsg{completion: completion}
	}
}
