// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import "fmt"

// Build values, set with -ldflags "-X .../internal/version.Version=v1.2.3".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = ""
)

// Info contains build-time version information.
type Info struct {
	Version   string // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string // Short git commit hash (e.g., "abc1234")
	BuildTime string // Build timestamp in RFC3339 format
}

// Current returns the values linked into this binary.
func Current() Info {
	return Info{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}
}

// String formats the info for the -v flag.
func (i Info) String() string {
	s := fmt.Sprintf("tripolar-web %s (%s)", i.Version, i.GitCommit)
	if i.BuildTime != "" {
		s += " built " + i.BuildTime
	}
	return s
}

// UserAgent is sent with every backend call.
func (i Info) UserAgent() string {
	return "tripolar-web/" + i.Version
}
