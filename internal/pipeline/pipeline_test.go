package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
	"git.home.luguber.info/inful/bookbuilder/internal/testutil"
	"git.home.luguber.info/inful/bookbuilder/internal/toolexec"
)

// bookRepo creates a committed book project with three listed chapters, one
// of which is missing, and two code sample directories.
func bookRepo(t *testing.T) string {
	t.Helper()
	repo, dir := testutil.InitRepo(t)
	testutil.WriteFiles(t, dir, map[string]string{
		"docs/README.md": "# Book\n\n* [One](ch01/README.md)\n* [Two](ch02/README.md)\n* [Three](ch03/README.md)\n",
		"docs/ch01/README.md": "# One\n\nSee [Two](../ch02/README.md) and [site](https://example.com).\n\n" +
			"![diagram](img/d.png)\n",
		"docs/ch03/README.md": "# Three\n",
		"codes/ch01/main.go":  "package main\n",
		"codes/ch03/run.sh":   "echo hi\n",
	})
	testutil.CommitAll(t, repo, "book")
	return dir
}

func bookConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	cfg, err := config.Default(root)
	require.NoError(t, err)
	cfg.Book.Name = "mybook"
	cfg.Merge.Output = "mybook.md"
	cfg.Convert.Engine = config.ConvertEngineNative
	cfg.Publish.Skip = true
	return cfg
}

// siteRunner fakes the site compiler by creating its output directory.
func siteRunner(cfg *config.Config, calls *[]toolexec.Command) toolexec.Runner {
	return toolexec.RunnerFunc(func(_ context.Context, cmd toolexec.Command) error {
		*calls = append(*calls, cmd)
		if err := os.MkdirAll(cfg.OutputDir(), 0o750); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(cfg.OutputDir(), "index.html"), []byte("<html></html>"), 0o600)
	})
}

func fixedID() string { return "build-1" }

func TestBuildRunsAllStages(t *testing.T) {
	root := bookRepo(t)
	cfg := bookConfig(t, root)
	cfg.Publish.Domain = "book.example.com"

	var calls []toolexec.Command
	report, err := NewBuilder(cfg, WithRunner(siteRunner(cfg, &calls)), WithBuildIDs(fixedID)).
		Build(context.Background(), Options{})
	require.NoError(t, err)

	require.Len(t, calls, 1)
	assert.Equal(t, "gitbook", calls[0].Name)
	assert.Equal(t, []string{"build"}, calls[0].Args)
	assert.Equal(t, root, calls[0].Dir)

	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, "build-1", report.BuildID)
	assert.Equal(t, []string{
		filepath.Join(root, "docs", "ch01", "README.md"),
		filepath.Join(root, "docs", "ch03", "README.md"),
	}, report.ChaptersMerged)
	assert.Equal(t, []string{filepath.Join(root, "docs", "ch02", "README.md")}, report.ChaptersSkipped)
	assert.Len(t, report.Archives, 2)
	assert.NotEmpty(t, report.Fingerprint)

	combined, err := os.ReadFile(filepath.Join(root, "_book", "mybook.md"))
	require.NoError(t, err)
	assert.Equal(t, "# One\n\nSee *Two* and *site(https://example.com)*.\n\n"+
		"![diagram]("+filepath.ToSlash(filepath.Join(root, "docs", "ch01", "img", "d.png"))+")\n\n"+
		"# Three\n\n", string(combined))

	assert.FileExists(t, filepath.Join(root, "_book", "ch01.zip"))
	assert.FileExists(t, filepath.Join(root, "_book", "ch03.zip"))
	assert.FileExists(t, filepath.Join(root, "_book", "mybook.docx"))
	marker, err := os.ReadFile(filepath.Join(root, "_book", "CNAME"))
	require.NoError(t, err)
	assert.Equal(t, "book.example.com\n", string(marker))

	assert.Equal(t, StageCount{Skipped: 1}, report.StageCounts[StagePublish])
	assert.Equal(t, StageCount{Success: 1}, report.StageCounts[StageMergeMarkdown])
}

func TestBuildToolFailureAbortsWithExitCode(t *testing.T) {
	root := bookRepo(t)
	cfg := bookConfig(t, root)

	runner := toolexec.RunnerFunc(func(context.Context, toolexec.Command) error {
		return &toolexec.ExitError{Tool: "gitbook", Code: 3, Output: "boom"}
	})
	report, err := NewBuilder(cfg, WithRunner(runner)).Build(context.Background(), Options{})
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.Equal(t, StageRenderSite, se.Stage)
	assert.Equal(t, 3, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))

	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.NoFileExists(t, filepath.Join(root, "_book", "mybook.md"))
	assert.NotContains(t, report.StageCounts, StageMergeMarkdown)
}

func TestBuildPublishFailureIsWarning(t *testing.T) {
	root := bookRepo(t)
	cfg := bookConfig(t, root)
	cfg.Publish.Skip = false
	cfg.Publish.Remote = filepath.Join(t.TempDir(), "missing.git")

	rec := &countingRecorder{}
	var logs bytes.Buffer
	var calls []toolexec.Command
	report, err := NewBuilder(cfg,
		WithRunner(siteRunner(cfg, &calls)),
		WithRecorder(rec),
		WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))),
		WithWorkspaceDir(t.TempDir()),
	).Build(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeWarning, report.Outcome)
	require.Len(t, report.Warnings, 1)
	assert.Empty(t, report.Errors)
	assert.Equal(t, StageErrorWarning, report.StageErrorKinds[StagePublish])
	assert.Nil(t, report.Published)
	assert.Equal(t, 1, rec.publishFailures)
	assert.Equal(t, metrics.BuildOutcomeWarning, rec.outcome)
	assert.FileExists(t, filepath.Join(root, "_book", "mybook.md"))
	assert.Contains(t, logs.String(), `"level":"ERROR","msg":"Publish failed"`)
}

func TestBuildCanceled(t *testing.T) {
	root := bookRepo(t)
	cfg := bookConfig(t, root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewBuilder(cfg, WithRunner(toolexec.RunnerFunc(func(context.Context, toolexec.Command) error {
		t.Fatal("no tool may run after cancellation")
		return nil
	}))).Build(ctx, Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeCanceled, report.Outcome)
}

func TestBuildOptionsSkipStages(t *testing.T) {
	root := bookRepo(t)
	cfg := bookConfig(t, root)

	report, err := NewBuilder(cfg, WithRunner(toolexec.RunnerFunc(func(context.Context, toolexec.Command) error {
		t.Fatal("site compiler must not run")
		return nil
	}))).Build(context.Background(), Options{SkipSite: true, SkipArchive: true, SkipConvert: true})
	require.NoError(t, err)

	for _, stage := range []StageName{StageRenderSite, StageArchiveSamples, StageConvertDocument, StagePublish} {
		assert.Equal(t, StageCount{Skipped: 1}, report.StageCounts[stage], stage)
	}
	assert.FileExists(t, filepath.Join(root, "_book", "mybook.md"))
	assert.NoFileExists(t, filepath.Join(root, "_book", "mybook.docx"))
}

func TestMergeOnly(t *testing.T) {
	root := bookRepo(t)
	cfg := bookConfig(t, root)

	report, err := NewBuilder(cfg).Merge(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, report.ChaptersMerged, 2)
	assert.Contains(t, report.StageCounts, StageMergeMarkdown)
	assert.Equal(t, StageCount{Skipped: 1}, report.StageCounts[StageConvertDocument])
}

func TestMergeMissingSummaryIsFatal(t *testing.T) {
	root := t.TempDir()
	cfg := bookConfig(t, root)

	_, err := NewBuilder(cfg).Merge(context.Background(), false)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
	assert.Equal(t, 11, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestClassifyStageResult(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		result StageResult
		abort  bool
	}{
		{"success", nil, StageResultSuccess, false},
		{"plain error", errors.New("x"), StageResultFatal, true},
		{"context canceled", context.Canceled, StageResultCanceled, true},
		{"warning", NewWarnStageError(StagePublish, errors.New("x")), StageResultWarning, false},
		{"fatal", NewFatalStageError(StagePublish, errors.New("x")), StageResultFatal, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ClassifyStageResult(StagePublish, tt.err)
			assert.Equal(t, tt.result, out.Result)
			assert.Equal(t, tt.abort, out.Abort)
		})
	}
}

func TestReportPersist(t *testing.T) {
	r := NewBuildReport("id-1", "mybook")
	r.ChaptersMerged = []string{"/a.md"}
	r.AddStageError(NewWarnStageError(StagePublish, errors.New("push rejected")))
	r.RecordStageResult(StagePublish, StageResultWarning, nil)

	path := filepath.Join(t.TempDir(), "reports", "build.json")
	require.NoError(t, r.Persist(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "id-1", got["build_id"])
	assert.Equal(t, "warning", got["outcome"])
	assert.Equal(t, []any{"/a.md"}, got["chapters_merged"])
	assert.Equal(t, []any{}, got["chapters_skipped"])
	require.Len(t, got["warnings"], 1)
	assert.True(t, strings.Contains(got["warnings"].([]any)[0].(string), "push rejected"))
}

type countingRecorder struct {
	metrics.NoopRecorder
	publishFailures int
	outcome         metrics.BuildOutcomeLabel
}

func (c *countingRecorder) IncPublishResult(success bool) {
	if !success {
		c.publishFailures++
	}
}

func (c *countingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) { c.outcome = o }
