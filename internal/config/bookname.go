package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// packageManifest is the subset of package.json used to name the book.
type packageManifest struct {
	Name string `json:"name"`
}

// ResolveBookName derives a book name for root: the package.json name when
// present (scope prefixes like "@org/" are dropped), else the root's base name.
func ResolveBookName(root string) (string, error) {
	path := filepath.Join(root, "package.json")
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return "", ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read package.json").
			WithContext("path", path).
			Build()
	default:
		var pkg packageManifest
		if err := json.Unmarshal(data, &pkg); err != nil {
			return "", ferrors.WrapError(err, ferrors.CategoryConfig, "invalid package.json").
				WithContext("path", path).
				Build()
		}
		if name := strings.TrimSpace(pkg.Name); name != "" {
			if i := strings.LastIndex(name, "/"); i >= 0 {
				name = name[i+1:]
			}
			return name, nil
		}
	}
	return filepath.Base(filepath.Clean(root)), nil
}
