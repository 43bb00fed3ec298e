package publish

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/testutil"
)

// requireGit skips push tests on hosts where the local transport has no
// git-receive-pack to talk to.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func siteDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"index.html":        "<html>book</html>",
		"gitbook/style.css": "body{}",
		"ch01/index.html":   "<html>ch01</html>",
	})
	return dir
}

func branchFiles(t *testing.T, repo *git.Repository, branch string) (map[string]string, *object.Commit) {
	t.Helper()
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	require.NoError(t, err)
	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)

	files := map[string]string{}
	iter, err := commit.Files()
	require.NoError(t, err)
	require.NoError(t, iter.ForEach(func(f *object.File) error {
		content, err := f.Contents()
		files[f.Name] = content
		return err
	}))
	return files, commit
}

func newPublisher(opts Options) *Publisher {
	p := NewPublisher(opts, nil)
	p.now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }
	return p
}

func TestWriteMarker(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteMarker(dir, " docs.example.com ")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, MarkerFile), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "docs.example.com\n", string(data))

	path, err = WriteMarker(t.TempDir(), "")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestWriteMarkerMissingDir(t *testing.T) {
	_, err := WriteMarker(filepath.Join(t.TempDir(), "missing"), "docs.example.com")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}

func TestPublishPushesBranch(t *testing.T) {
	requireGit(t)
	remote, remoteDir := testutil.InitBareRepo(t)
	out := siteDir(t)
	_, err := WriteMarker(out, "docs.example.com")
	require.NoError(t, err)

	res, err := newPublisher(Options{
		OutputDir:    out,
		ProjectRoot:  t.TempDir(),
		Remote:       remoteDir,
		Branch:       "gh-pages",
		Message:      "Updates",
		Author:       config.AuthorConfig{Name: "bot", Email: "bot@example.com"},
		WorkspaceDir: t.TempDir(),
	}).Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, remoteDir, res.Remote)
	assert.Equal(t, 4, res.Files)

	files, commit := branchFiles(t, remote, "gh-pages")
	assert.Equal(t, map[string]string{
		"index.html":        "<html>book</html>",
		"gitbook/style.css": "body{}",
		"ch01/index.html":   "<html>ch01</html>",
		"CNAME":             "docs.example.com\n",
	}, files)
	assert.Equal(t, res.Commit, commit.Hash.String())
	assert.Equal(t, "Updates", commit.Message)
	assert.Equal(t, "bot", commit.Author.Name)
	assert.Zero(t, commit.NumParents())
}

func TestPublishReplacesHistory(t *testing.T) {
	requireGit(t)
	remote, remoteDir := testutil.InitBareRepo(t)
	opts := Options{
		ProjectRoot: t.TempDir(),
		Remote:      remoteDir,
		Branch:      "gh-pages",
		Message:     "Updates",
		Author:      config.AuthorConfig{Name: "bot", Email: "bot@example.com"},
	}

	opts.OutputDir = siteDir(t)
	_, err := newPublisher(opts).Publish(context.Background())
	require.NoError(t, err)

	second := t.TempDir()
	testutil.WriteFiles(t, second, map[string]string{"index.html": "<html>v2</html>"})
	opts.OutputDir = second
	_, err = newPublisher(opts).Publish(context.Background())
	require.NoError(t, err)

	files, commit := branchFiles(t, remote, "gh-pages")
	assert.Equal(t, map[string]string{"index.html": "<html>v2</html>"}, files)
	assert.Zero(t, commit.NumParents())
}

func TestPublishDefaultsToProjectOrigin(t *testing.T) {
	requireGit(t)
	remote, remoteDir := testutil.InitBareRepo(t)
	project, projectDir := testutil.InitRepo(t)
	_, err := project.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{remoteDir}})
	require.NoError(t, err)

	res, err := newPublisher(Options{
		ProjectRoot: projectDir,
		OutputDir:   siteDir(t),
		Branch:      "pages",
		Message:     "Updates",
		Author:      config.AuthorConfig{Name: "bot", Email: "bot@example.com"},
	}).Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, remoteDir, res.Remote)

	files, _ := branchFiles(t, remote, "pages")
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"ch01/index.html", "gitbook/style.css", "index.html"}, names)
}

func TestPublishNamedRemote(t *testing.T) {
	project, projectDir := testutil.InitRepo(t)
	_, err := project.CreateRemote(&gitconfig.RemoteConfig{Name: "pages", URLs: []string{"https://example.com/pages.git"}})
	require.NoError(t, err)

	url, err := NewPublisher(Options{ProjectRoot: projectDir, Remote: "pages"}, nil).remoteURL()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/pages.git", url)
}

func TestPublishNoRemote(t *testing.T) {
	_, projectDir := testutil.InitRepo(t)

	_, err := NewPublisher(Options{
		ProjectRoot: projectDir,
		OutputDir:   siteDir(t),
		Branch:      "gh-pages",
	}, nil).Publish(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNoRemote)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryPublish))
	assert.True(t, ferrors.HasSeverity(err, ferrors.SeverityWarning))
}

func TestPublishOutsideRepository(t *testing.T) {
	_, err := NewPublisher(Options{ProjectRoot: t.TempDir(), OutputDir: siteDir(t), Branch: "gh-pages"}, nil).
		Publish(context.Background())
	require.ErrorIs(t, err, ErrNoRemote)
}

func TestPublishPushFailureIsWarning(t *testing.T) {
	requireGit(t)
	_, err := newPublisher(Options{
		ProjectRoot: t.TempDir(),
		OutputDir:   siteDir(t),
		Remote:      filepath.Join(t.TempDir(), "does-not-exist.git"),
		Branch:      "gh-pages",
		Message:     "Updates",
		Author:      config.AuthorConfig{Name: "bot", Email: "bot@example.com"},
	}).Publish(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasSeverity(err, ferrors.SeverityWarning))
	c, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	op, _ := c.Context().GetString("op")
	assert.Equal(t, "push", op)
}

func TestPublishMissingOutput(t *testing.T) {
	_, err := newPublisher(Options{
		ProjectRoot: t.TempDir(),
		OutputDir:   filepath.Join(t.TempDir(), "missing"),
		Remote:      "https://example.com/repo.git",
		Branch:      "gh-pages",
	}).Publish(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasSeverity(err, ferrors.SeverityWarning))
}

func TestPublishInvalidAuth(t *testing.T) {
	_, err := newPublisher(Options{
		ProjectRoot: t.TempDir(),
		OutputDir:   siteDir(t),
		Remote:      "https://example.com/repo.git",
		Branch:      "gh-pages",
		Auth:        &config.AuthConfig{Type: config.AuthTypeToken},
	}).Publish(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryAuth))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil, "push", ""))

	err := classify(assert.AnError, "push", "u")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryPublish))

	err = classify(errString("authentication required"), "push", "u")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryAuth))

	err = classify(errString("repository not found"), "push", "u")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

type errString string

func (e errString) Error() string { return string(e) }
