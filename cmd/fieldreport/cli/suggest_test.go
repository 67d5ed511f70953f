// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"login", "login", 0},
		{"logn", "login", 1},
		{"sumbit", "submit", 2},
		{"kitten", "sitting", 3},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{{Name: "login"}, {Name: "logout"}, {Name: "whoami"}}
	if got := suggestCommand("logot", commands); got != "logout" {
		t.Errorf("suggestCommand(logot) = %q, want logout", got)
	}
	if got := suggestCommand("provision", commands); got != "" {
		t.Errorf("suggestCommand(provision) = %q, want no suggestion", got)
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("request-access", pflag.ContinueOnError)
	flagSet.String("company", "", "")
	flagSet.String("username", "", "")

	if got := suggestFlag([]string{"--compnay=Acme"}, flagSet); got != "--company" {
		t.Errorf("suggestFlag = %q, want --company", got)
	}
	if got := suggestFlag([]string{"--company", "Acme", "--zzzzzzzz"}, flagSet); got != "" {
		t.Errorf("suggestFlag = %q, want no suggestion", got)
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buffer bytes.Buffer
	newLogger(&buffer, false, 0).Info("signed in", "email", "a@example.org")
	if !strings.HasPrefix(buffer.String(), "{") {
		t.Errorf("non-terminal output is not JSON: %q", buffer.String())
	}

	buffer.Reset()
	newLogger(&buffer, true, 0).Info("signed in", "email", "a@example.org")
	if !strings.Contains(buffer.String(), "email=a@example.org") {
		t.Errorf("terminal output is not text: %q", buffer.String())
	}
}
