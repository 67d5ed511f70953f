// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package failure classifies the errors that cross component
// boundaries: authentication, identity and profile lookups, form
// validation, and the three ways a write to the remote store can go
// wrong.
//
// Components return an [*Error] carrying a [Kind] and the underlying
// cause. Callers branch on the kind (via [KindOf] or the Is helpers)
// rather than parsing messages, and the UI renders [UserMessage],
// which tells the user whether to fix their input, sign in again, try
// again later, or ask an administrator to fix the configuration.
//
// This package depends on no other fieldreport packages.
package failure
