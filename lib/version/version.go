// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/fieldreport/lib/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	GitCommit = ""
	BuildTime = "unknown"
	Version   = "0.1.0-dev"
)

// Info returns a formatted version string suitable for --version output.
func Info() string {
	commit, dirty := Commit()
	if dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", Version, commit, BuildTime)
}

// Full returns Info plus the Go version and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Commit returns the git commit of the build and whether the tree had
// uncommitted changes. It prefers the injected GitCommit and falls back
// to the toolchain's VCS stamp.
func Commit() (string, bool) {
	if GitCommit != "" {
		return GitCommit, false
	}
	return commitFromBuildInfo(debug.ReadBuildInfo())
}

func commitFromBuildInfo(info *debug.BuildInfo, ok bool) (string, bool) {
	if !ok {
		return "unknown", false
	}
	commit, dirty := "unknown", false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit = setting.Value
			if len(commit) > 12 {
				commit = commit[:12]
			}
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return commit, dirty
}
