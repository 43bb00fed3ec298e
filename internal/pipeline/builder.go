package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
	"git.home.luguber.info/inful/bookbuilder/internal/toolexec"
)

// BuildState is shared by the stages of one run.
type BuildState struct {
	Config   *config.Config
	Report   *BuildReport
	Runner   toolexec.Runner
	Recorder metrics.Recorder
	Logger   *slog.Logger
	// WorkspaceDir is the parent of ephemeral publish workspaces.
	WorkspaceDir string
}

// Options selects stages on top of the configuration's own skip flags.
type Options struct {
	SkipSite    bool
	SkipArchive bool
	SkipConvert bool
	SkipPublish bool
}

// Builder runs the book build stages against one configuration.
type Builder struct {
	cfg          *config.Config
	runner       toolexec.Runner
	recorder     metrics.Recorder
	logger       *slog.Logger
	newID        func() string
	workspaceDir string
}

// Option configures a Builder.
type Option func(*Builder)

// WithRunner replaces the external tool runner.
func WithRunner(r toolexec.Runner) Option { return func(b *Builder) { b.runner = r } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(b *Builder) { b.recorder = r } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(b *Builder) { b.logger = l } }

// WithBuildIDs replaces the build id generator.
func WithBuildIDs(fn func() string) Option { return func(b *Builder) { b.newID = fn } }

// WithWorkspaceDir sets where publish workspaces are created.
func WithWorkspaceDir(dir string) Option { return func(b *Builder) { b.workspaceDir = dir } }

// NewBuilder returns a Builder for cfg.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.runner == nil {
		b.runner = toolexec.NewBinaryRunner(b.logger)
	}
	return b
}

// Build runs the full pipeline: render the site, archive code samples, merge
// the chapters, convert the merged document, write the domain marker and
// publish. A failed publish is a warning; any other failure aborts the build.
func (b *Builder) Build(ctx context.Context, opts Options) (*BuildReport, error) {
	cfg := b.cfg
	plan := NewPlan().
		AddIf(!cfg.Site.Skip && !opts.SkipSite, StageRenderSite, stageRenderSite).
		AddIf(!cfg.Archive.Skip && !opts.SkipArchive, StageArchiveSamples, stageArchiveSamples).
		Add(StageMergeMarkdown, stageMergeMarkdown).
		AddIf(cfg.Convert.Engine != config.ConvertEngineNone && !opts.SkipConvert, StageConvertDocument, stageConvertDocument).
		Add(StageWriteMarker, stageWriteMarker).
		AddIf(!cfg.Publish.Skip && !opts.SkipPublish, StagePublish, stagePublish)
	return b.run(ctx, plan)
}

// Merge only rebuilds the combined document, optionally converting it.
func (b *Builder) Merge(ctx context.Context, convert bool) (*BuildReport, error) {
	plan := NewPlan().
		Add(StageMergeMarkdown, stageMergeMarkdown).
		AddIf(convert && b.cfg.Convert.Engine != config.ConvertEngineNone, StageConvertDocument, stageConvertDocument)
	return b.run(ctx, plan)
}

// Publish writes the domain marker and publishes the existing output directory.
func (b *Builder) Publish(ctx context.Context) (*BuildReport, error) {
	plan := NewPlan().
		Add(StageWriteMarker, stageWriteMarker).
		Add(StagePublish, stagePublish)
	return b.run(ctx, plan)
}

func (b *Builder) run(ctx context.Context, plan *Plan) (*BuildReport, error) {
	id := b.newID()
	logger := b.logger.With(logfields.BuildID(id))
	bs := &BuildState{
		Config:       b.cfg,
		Report:       NewBuildReport(id, b.cfg.Book.Name),
		Runner:       b.runner,
		Recorder:     b.recorder,
		Logger:       logger,
		WorkspaceDir: b.workspaceDir,
	}

	logger.Info("Build started", logfields.Name(b.cfg.Book.Name), logfields.Count(len(plan.Defs)))
	err := RunStages(ctx, bs, plan.Defs)

	r := bs.Report
	r.Finish()
	r.DeriveOutcome()
	elapsed := r.End.Sub(r.Start)
	b.recorder.ObserveBuildDuration(elapsed)
	b.recorder.IncBuildOutcome(r.MetricsOutcome())

	attrs := []any{
		slog.String("outcome", string(r.Outcome)),
		logfields.DurationMS(float64(elapsed.Milliseconds())),
		slog.String("summary", r.Summary()),
	}
	switch r.Outcome {
	case OutcomeSuccess:
		logger.Info("Build finished", attrs...)
	case OutcomeWarning:
		logger.Warn("Build finished with warnings", attrs...)
	default:
		logger.Error("Build failed", append(attrs, logfields.Error(err))...)
	}
	return r, err
}
