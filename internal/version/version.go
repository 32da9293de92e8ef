// Package version reports the build's version for -version and build reports.
package version

import (
	"runtime/debug"
)

var (
	// Version information, set at build time via ldflags
	Version = "dev"     // Release tag (e.g., "v0.2.0")
	Commit  = "unknown" // Git commit hash
)

// readBuildInfo is replaced in tests
var readBuildInfo = debug.ReadBuildInfo

// String returns the release tag when one was linked in, else the module
// version recorded by `go install`, else "dev" with the VCS revision the
// binary was built from.
func String() string {
	if Version != "dev" {
		return Version
	}

	info, ok := readBuildInfo()
	if !ok {
		return withCommit("dev", Commit, false)
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	commit, dirty := Commit, false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "unknown" {
				commit = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	return withCommit("dev", commit, dirty)
}

func withCommit(v, commit string, dirty bool) string {
	if commit == "" || commit == "unknown" {
		return v
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	v += "+" + commit
	if dirty {
		v += ".dirty"
	}
	return v
}
