package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPath)
	writeFile(t, path, "book:\n  name: webpack\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, dir, cfg.ProjectRoot)
	require.Equal(t, "webpack", cfg.Book.Name)
	require.Equal(t, DefaultSummary, cfg.Book.Summary)
	require.Equal(t, "gitbook", cfg.Site.Command)
	require.Equal(t, []string{"build"}, cfg.Site.Args)
	require.Equal(t, filepath.Join(dir, "_book"), cfg.OutputDir())
	require.Equal(t, ArchiveEngineGit, cfg.Archive.Engine)
	require.Equal(t, "codes", cfg.Archive.Source)
	require.Equal(t, "HEAD", cfg.Archive.Ref)
	require.True(t, cfg.Archive.SplitPerDirectory())
	require.Equal(t, "webpack.md", cfg.Merge.Output)
	require.False(t, cfg.Merge.IncludeRoot)
	require.Equal(t, ConvertEnginePandoc, cfg.Convert.Engine)
	require.Equal(t, "docs", cfg.Convert.DataDir)
	require.Equal(t, filepath.Join(dir, "_book", "webpack.docx"), cfg.ConvertedPath())
	require.Equal(t, filepath.Join(dir, "_book", "webpack.md"), cfg.CombinedPath())
	require.Equal(t, "gh-pages", cfg.Publish.Branch)
	require.Empty(t, cfg.Publish.Domain)
}

func TestLoadFullConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "book.yaml")
	writeFile(t, path, `project_root: ..
book:
  name: guide
  summary: SUMMARY.md
site:
  command: mdbook
  args: [build, --dest-dir, out]
  output_dir: out
archive:
  engine: Command
  source: samples
  ref: main
  per_directory: false
merge:
  include_root: true
  strip_frontmatter: true
convert:
  engine: native
publish:
  remote: https://example.com/org/guide.git
  branch: pages
  domain: guide.example.com
  auth:
    type: basic
    username: bot
    password: secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, dir, cfg.ProjectRoot)
	require.Equal(t, filepath.Join(dir, "SUMMARY.md"), cfg.SummaryPath())
	require.Equal(t, []string{"build", "--dest-dir", "out"}, cfg.Site.Args)
	require.Equal(t, ArchiveEngineCommand, cfg.Archive.Engine)
	require.False(t, cfg.Archive.SplitPerDirectory())
	require.True(t, cfg.Merge.IncludeRoot)
	require.Equal(t, ConvertEngineNative, cfg.Convert.Engine)
	require.Equal(t, "guide.example.com", cfg.Publish.Domain)
	require.Equal(t, AuthTypeBasic, cfg.Publish.Auth.Type)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("BOOK_DOMAIN", "book.example.org")
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPath)
	writeFile(t, path, "book:\n  name: b\npublish:\n  domain: ${BOOK_DOMAIN}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "book.example.org", cfg.Publish.Domain)
}

func TestLoadReadsDotEnvWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BOOK_TOKEN", "from-process")
	t.Setenv("BOOK_BRANCH", "")
	require.NoError(t, os.Unsetenv("BOOK_BRANCH"))
	writeFile(t, filepath.Join(dir, ".env"), "BOOK_TOKEN=from-file\nBOOK_BRANCH=site\n")
	path := filepath.Join(dir, DefaultPath)
	writeFile(t, path, `book:
  name: b
publish:
  branch: ${BOOK_BRANCH}
  auth:
    type: token
    token: ${BOOK_TOKEN}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "site", cfg.Publish.Branch)
	require.Equal(t, "from-process", cfg.Publish.Auth.Token)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("book:\n  name: b\n  title: x\n"), t.TempDir())
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestParseEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Parse(nil, dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Base(dir), cfg.Book.Name)
}

func TestDefaultUsesPackageJSONName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"name": "dive-into-webpack", "version": "1.0.0"}`)

	cfg, err := Default(dir)
	require.NoError(t, err)
	require.Equal(t, "dive-into-webpack", cfg.Book.Name)
	require.Equal(t, "dive-into-webpack.md", cfg.Merge.Output)
}

func TestResolveBookName(t *testing.T) {
	t.Run("scoped package", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "package.json"), `{"name": "@org/handbook"}`)
		name, err := ResolveBookName(dir)
		require.NoError(t, err)
		require.Equal(t, "handbook", name)
	})
	t.Run("no package.json", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "my-book")
		require.NoError(t, os.Mkdir(dir, 0o750))
		name, err := ResolveBookName(dir)
		require.NoError(t, err)
		require.Equal(t, "my-book", name)
	})
	t.Run("empty name", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "fallback")
		writeFile(t, filepath.Join(dir, "package.json"), `{"private": true}`)
		name, err := ResolveBookName(dir)
		require.NoError(t, err)
		require.Equal(t, "fallback", name)
	})
	t.Run("malformed", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "package.json"), `{`)
		_, err := ResolveBookName(dir)
		require.Error(t, err)
		require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	})
}

func TestInitWritesLoadableExample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPath)
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Base(dir), cfg.Book.Name)
	require.Equal(t, DefaultPublishBranch, cfg.Publish.Branch)

	err = Init(path, false)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	require.NoError(t, Init(path, true))
}
