// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package storeservice exposes a [remotestore.Store] over HTTP and
// provides a [Client] that implements Store against it.
//
// Bodies are CBOR ([codec.ContentType]). Routes:
//
//	GET  /health
//	POST /v1/tables                    create a table {name, columns}
//	GET  /v1/tables/{table}/rows       scan {rows}
//	POST /v1/tables/{table}/rows       append {rows}
//	PUT  /v1/tables/{table}/rows       update {key_column, key, row} -> {updated}
//
// Errors are {code, message} with codes no_such_table (404),
// bad_request (400), unauthorized (401), unsupported (501) and
// internal (500). When the server is configured with a token every
// /v1 request must carry it as a bearer token.
//
// The client maps no_such_table to [remotestore.ErrNoSuchTable] and
// network failures and 5xx answers to [remotestore.TransientError],
// so callers classify service failures the same way they classify
// local ones.
package storeservice
