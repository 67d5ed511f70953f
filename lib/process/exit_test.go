// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestWriteDump(t *testing.T) {
	var output bytes.Buffer
	WriteDump(&output, "index out of range", []byte("goroutine 1 [running]:\nmain.main()"))

	dump := output.String()
	for _, want := range []string{
		"panic: index out of range",
		"go version: " + runtime.Version(),
		"command line: ",
		"goroutine 1 [running]:",
	} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump missing %q:\n%s", want, dump)
		}
	}
	if !strings.HasSuffix(dump, "\n") {
		t.Error("dump does not end with a newline")
	}
}
