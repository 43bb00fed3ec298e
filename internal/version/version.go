// Package version holds build metadata injected at link time, e.g.
// -ldflags "-X git.home.luguber.info/inful/bookbuilder/internal/version.Version=v1.0.0".
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version   = "unknown"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String renders the version for --version output. When no commit was
// injected the VCS revision recorded by the Go toolchain is used.
func String() string {
	commit := GitCommit
	if commit == "unknown" {
		commit = vcsRevision()
	}
	if commit == "" || commit == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (%s, built %s)", Version, commit, BuildTime)
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}
