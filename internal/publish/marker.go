package publish

import (
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// MarkerFile is the custom-domain marker read by the hosting service.
const MarkerFile = "CNAME"

// WriteMarker writes domain to <outputDir>/CNAME and returns the file path.
// An empty domain writes nothing and returns "".
func WriteMarker(outputDir, domain string) (string, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return "", nil
	}
	path := filepath.Join(outputDir, MarkerFile)
	if err := os.WriteFile(path, []byte(domain+"\n"), 0o644); err != nil { //nolint:gosec // published file
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot write domain marker").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return path, nil
}
