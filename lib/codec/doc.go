// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is fieldreport's CBOR configuration.
//
// JSON is used where people or third-party services read the bytes:
// the credential cache, the cell values of the test and attachment
// lists, CLI output. CBOR is used where only fieldreport reads them:
// row payloads in the SQLite store and the store service's request
// and response bodies.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so
// the same row always encodes to the same bytes. Struct types that
// only ever travel as CBOR use `cbor` tags; types shared with JSON
// use `json` tags, which fxamacker/cbor reads as a fallback.
package codec
