package toolexec

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
)

var semver = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?)`)

// DetectVersion runs `name args...` and extracts a version number from its
// output. It returns "" when the tool is missing or prints no version.
func DetectVersion(ctx context.Context, name string, args ...string) string {
	path, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	if len(args) == 0 {
		args = []string{"--version"}
	}
	// #nosec G204 -- path is from exec.LookPath
	out, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
	if err != nil {
		return ""
	}
	return parseVersion(string(out))
}

// parseVersion returns the first dotted version in output, e.g. "3.1.11"
// from "pandoc 3.1.11\nFeatures: ...".
func parseVersion(output string) string {
	if m := semver.FindStringSubmatch(output); len(m) == 2 {
		return m[1]
	}
	return strings.TrimSpace(output)
}
