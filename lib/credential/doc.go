// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package credential caches the OAuth credential between runs.
//
// A [Store] loads, saves and clears one [Credential]. Load never fails:
// a missing, unreadable, corrupt or undecryptable cache reads as
// absent, so a damaged file degrades to "not logged in" instead of
// stopping the app. [FileStore] writes JSON through a temporary file
// and rename, optionally sealed to an age identity; [MemoryStore]
// keeps the credential in process for tests and --no-cache runs.
package credential
