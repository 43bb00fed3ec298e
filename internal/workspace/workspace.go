package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

// ErrNotCreated is returned when a workspace is used before Create.
var ErrNotCreated = errors.New("workspace not created")

// Manager owns one timestamped workspace directory.
type Manager struct {
	baseDir string
	prefix  string
	dir     string
	logger  *slog.Logger
}

// NewManager returns a manager creating directories named
// bookbuilder-<purpose>-<timestamp>-* under baseDir (os.TempDir when empty).
func NewManager(baseDir, purpose string, logger *slog.Logger) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	prefix := "bookbuilder-"
	if purpose != "" {
		prefix += purpose + "-"
	}
	return &Manager{baseDir: baseDir, prefix: prefix, logger: logger}
}

// Create makes the workspace directory.
func (m *Manager) Create() error {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base: %w", err)
	}
	dir, err := os.MkdirTemp(m.baseDir, m.prefix+time.Now().Format("20060102-150405")+"-")
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.dir = dir
	m.logger.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// Path returns the workspace directory, empty before Create.
func (m *Manager) Path() string {
	return m.dir
}

// Cleanup removes the workspace directory. It is safe to call repeatedly.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	m.logger.Debug("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}

// Subdir creates and returns a subdirectory of the workspace.
func (m *Manager) Subdir(name string) (string, error) {
	if m.dir == "" {
		return "", ErrNotCreated
	}
	sub := filepath.Join(m.dir, name)
	if err := os.MkdirAll(sub, 0o750); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}
	return sub, nil
}
