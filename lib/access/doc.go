// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package access resolves an account's role and approval status from
// the Users table and implements the access request and
// administrative approval workflow.
//
// Nothing here caches. Every [Resolver.ResolveProfile] scans the
// table, so an administrator's edit takes effect at the caller's next
// decision without the user signing out.
package access
