// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP body readers and network
// error classification shared by the OAuth provider and the store
// service client.
//
// Every response body read is capped at MaxResponseSize so a
// misbehaving server cannot exhaust memory. Error bodies are capped
// much lower because they only end up in messages.
package netutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/bureau-foundation/fieldreport/lib/codec"
)

// MaxResponseSize bounds response body reads: 32 MB. A full table scan
// of a busy deployment is a few megabytes.
const MaxResponseSize int64 = 32 << 20

// maxErrorBody bounds the part of an error body kept for messages.
const maxErrorBody int64 = 4 << 10

// ReadResponse reads a response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeJSON reads a JSON response body and decodes it into v.
func DecodeJSON(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// DecodeCBOR reads a CBOR response body and decodes it into v.
func DecodeCBOR(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return codec.Unmarshal(data, v)
}

// ErrorBody returns the start of an error response body for a
// diagnostic message. Read errors are ignored.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	return string(data)
}

// IsNetworkError reports whether err is a failure to reach or talk to
// the peer (refused, reset, timed out, cut off mid-body) as opposed
// to a well-formed answer the peer chose to give.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EPIPE, syscall.EHOSTUNREACH, syscall.ENETUNREACH:
			return true
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
