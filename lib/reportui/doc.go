// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package reportui is the interactive terminal front end. A single
// bubbletea [Model] draws whatever the navigation controller says is
// current: the login prompt, the access request form, the pending
// notice, the home menu, the occurrence form, or the administrator's
// user directory.
//
// The bubbletea goroutine is the UI goroutine. Every controller call,
// draft edit and completion runs inside Update. Background work goes
// through a [dispatch.Dispatcher], whose completions arrive as
// [dispatch.CompletionMsg] through the command returned by Listen.
// After every message the model compares the controller's view with
// the one it last drew and creates or discards per-screen state: the
// access request form lives only while Unregistered, the draft only on
// the occurrence screen, the directory listing only on the directory
// screen.
package reportui
