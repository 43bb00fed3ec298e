package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/testutil"
)

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cli := &CLI{Config: filepath.Join(dir, config.DefaultPath)}
	cfg, err := cli.loadConfig(slog.Default())
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, "docs", "README.md"), cfg.SummaryPath())
}

func TestLoadConfigExplicitMissingFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cli := &CLI{Config: filepath.Join(dir, "other.yaml")}
	_, err := cli.loadConfig(slog.Default())
	require.Error(t, err)
	classified, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryConfig, classified.Category())
}

func TestInitWritesLoadableConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultPath)
	cli := &CLI{Config: path}

	require.NoError(t, (&InitCmd{}).Run(&Global{Logger: slog.Default()}, cli))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPublishBranch, cfg.Publish.Branch)

	err = (&InitCmd{}).Run(&Global{Logger: slog.Default()}, cli)
	require.Error(t, err)
	require.NoError(t, (&InitCmd{Force: true}).Run(&Global{Logger: slog.Default()}, cli))
}

func TestInitOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	cli := &CLI{Config: config.DefaultPath}

	require.NoError(t, (&InitCmd{Output: dir}).Run(&Global{Logger: slog.Default()}, cli))
	_, err := os.Stat(filepath.Join(dir, config.DefaultPath))
	require.NoError(t, err)
}

func TestMergeCommandWritesCombinedDocument(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"docs/README.md":      "# Book\n\n* [One](ch01/README.md)\n",
		"docs/ch01/README.md": "# One\n\nBody.\n",
	})
	t.Chdir(dir)

	cli := &CLI{Config: filepath.Join(dir, config.DefaultPath)}
	reportPath := filepath.Join(dir, "report.json")
	require.NoError(t, (&MergeCmd{Report: reportPath}).Run(&Global{Logger: slog.Default()}, cli))

	combined := filepath.Join(dir, config.DefaultOutputDir, filepath.Base(dir)+".md")
	data, err := os.ReadFile(combined)
	require.NoError(t, err)
	assert.Equal(t, "# One\n\nBody.\n\n", string(data))

	_, err = os.Stat(reportPath)
	assert.NoError(t, err)
}

func TestMergeCommandMissingSummary(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cli := &CLI{Config: filepath.Join(dir, config.DefaultPath)}
	err := (&MergeCmd{}).Run(&Global{Logger: slog.Default()}, cli)
	require.Error(t, err)
	assert.Equal(t, 11, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}
