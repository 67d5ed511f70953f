// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storeservice

// Error codes carried in errorResponse.Code.
const (
	codeNoSuchTable  = "no_such_table"
	codeBadRequest   = "bad_request"
	codeUnauthorized = "unauthorized"
	codeUnsupported  = "unsupported"
	codeInternal     = "internal"
)

type createTableRequest struct {
	Name    string   `cbor:"name"`
	Columns []string `cbor:"columns"`
}

type rowsBody struct {
	Rows [][]string `cbor:"rows"`
}

type updateRequest struct {
	KeyColumn int      `cbor:"key_column"`
	Key       string   `cbor:"key"`
	Row       []string `cbor:"row"`
}

type updateResponse struct {
	Updated int `cbor:"updated"`
}

type errorResponse struct {
	Code    string `cbor:"code"`
	Message string `cbor:"message"`
}

type healthResponse struct {
	Status string `cbor:"status"`
}
