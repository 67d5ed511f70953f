// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
)

// ExitPanic is the exit code after an unhandled panic. Ordinary
// failures exit 1.
const ExitPanic = 2

// Fatal writes "error: err" to stderr and exits with code 1. Use it in
// main() for errors from run() where the structured logger may not be
// initialized.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// RecoverAndExit turns a panic that reached main into a diagnostic
// dump on stderr and exit code 2. It must be deferred directly:
//
//	func main() {
//		defer process.RecoverAndExit()
//		...
//	}
func RecoverAndExit() {
	value := recover()
	if value == nil {
		return
	}
	WriteDump(os.Stderr, value, debug.Stack())
	os.Exit(ExitPanic)
}

// WriteDump writes the panic value, the Go version, the command line
// and the stack to w.
func WriteDump(w io.Writer, value any, stack []byte) {
	var dump strings.Builder
	fmt.Fprintf(&dump, "panic: %v\n\n", value)
	fmt.Fprintf(&dump, "go version: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&dump, "command line: %q\n", os.Args)
	if info, ok := debug.ReadBuildInfo(); ok {
		fmt.Fprintf(&dump, "module: %s %s\n", info.Main.Path, info.Main.Version)
	}
	dump.WriteString("\n")
	dump.Write(stack)
	if len(stack) > 0 && stack[len(stack)-1] != '\n' {
		dump.WriteString("\n")
	}
	io.WriteString(w, dump.String())
}
