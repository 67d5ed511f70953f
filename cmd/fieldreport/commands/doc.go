// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the fieldreport command tree.
//
// Every command loads its configuration from --config, or from
// FIELDREPORT_CONFIG when the flag is absent, and assembles the same
// components the terminal app uses: a credential cache, an auth
// session, the configured store backend, the access resolver and the
// submission pipeline. Non-interactive commands act on that
// environment directly; "run" hands it to the bubbletea model in
// lib/reportui.
package commands
