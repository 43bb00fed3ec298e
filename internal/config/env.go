package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

// envFiles are tried in order; the first one found wins.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads the first environment file found in dir. Variables
// already present in the process environment are never overridden.
// It returns the file that was loaded, or "" when none exists.
func loadEnvFiles(dir string) (string, error) {
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", ferrors.WrapError(err, ferrors.CategoryConfig, "failed to stat environment file").
				WithContext("path", path).
				Build()
		}
		if err := godotenv.Load(path); err != nil {
			return "", ferrors.WrapError(err, ferrors.CategoryConfig, "failed to load environment file").
				WithContext("path", path).
				Build()
		}
		return path, nil
	}
	return "", nil
}
