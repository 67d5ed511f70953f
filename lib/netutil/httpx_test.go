// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"testing"

	"github.com/bureau-foundation/fieldreport/lib/codec"
)

type failReader struct{}

func (failReader) Read([]byte) (int, error) { return 0, fmt.Errorf("simulated read error") }

func TestReadResponse(t *testing.T) {
	data, err := ReadResponse(strings.NewReader(`{"email":"a@example.org"}`))
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if string(data) != `{"email":"a@example.org"}` {
		t.Errorf("got %q", data)
	}
	if _, err := ReadResponse(failReader{}); err == nil {
		t.Error("read error was swallowed")
	}
}

func TestDecodeJSON(t *testing.T) {
	var info struct {
		Email string `json:"email"`
	}
	if err := DecodeJSON(strings.NewReader(`{"email":"a@example.org","sub":"1"}`), &info); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if info.Email != "a@example.org" {
		t.Errorf("Email = %q", info.Email)
	}
	if err := DecodeJSON(strings.NewReader(`{`), &info); err == nil {
		t.Error("truncated JSON decoded")
	}
}

func TestDecodeCBOR(t *testing.T) {
	data, err := codec.Marshal(map[string]int{"updated": 2})
	if err != nil {
		t.Fatal(err)
	}
	var reply struct {
		Updated int `cbor:"updated"`
	}
	if err := DecodeCBOR(bytes.NewReader(data), &reply); err != nil {
		t.Fatalf("DecodeCBOR: %v", err)
	}
	if reply.Updated != 2 {
		t.Errorf("Updated = %d, want 2", reply.Updated)
	}
}

func TestErrorBodyIsBounded(t *testing.T) {
	body := strings.Repeat("x", int(maxErrorBody)*2)
	if got := ErrorBody(strings.NewReader(body)); int64(len(got)) != maxErrorBody {
		t.Errorf("ErrorBody returned %d bytes, want %d", len(got), maxErrorBody)
	}
	if got := ErrorBody(failReader{}); got != "" {
		t.Errorf("ErrorBody on failing reader = %q", got)
	}
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eof", io.ErrUnexpectedEOF, true},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"wrapped reset", fmt.Errorf("posting rows: %w", syscall.ECONNRESET), true},
		{"plain", errors.New("bad request"), false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsNetworkError(test.err); got != test.want {
				t.Errorf("IsNetworkError(%v) = %v, want %v", test.err, got, test.want)
			}
		})
	}
}
