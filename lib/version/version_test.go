// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestInfoUsesInjectedCommit(t *testing.T) {
	saved := GitCommit
	t.Cleanup(func() { GitCommit = saved })

	GitCommit = "abc1234"
	if info := Info(); !strings.Contains(info, "abc1234") || !strings.HasPrefix(info, Version) {
		t.Errorf("Info() = %q", info)
	}
	if full := Full(); !strings.Contains(full, "Go: go") {
		t.Errorf("Full() = %q", full)
	}
}

func TestCommitFromBuildInfo(t *testing.T) {
	info := &debug.BuildInfo{Settings: []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.modified", Value: "true"},
	}}
	commit, dirty := commitFromBuildInfo(info, true)
	if commit != "0123456789ab" || !dirty {
		t.Errorf("commitFromBuildInfo = %q, %v", commit, dirty)
	}

	commit, dirty = commitFromBuildInfo(nil, false)
	if commit != "unknown" || dirty {
		t.Errorf("without build info = %q, %v", commit, dirty)
	}
}
