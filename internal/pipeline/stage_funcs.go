package pipeline

import (
	"context"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/bookbuilder/internal/archive"
	"git.home.luguber.info/inful/bookbuilder/internal/convert"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/markdown"
	"git.home.luguber.info/inful/bookbuilder/internal/merge"
	"git.home.luguber.info/inful/bookbuilder/internal/publish"
	"git.home.luguber.info/inful/bookbuilder/internal/site"
	"git.home.luguber.info/inful/bookbuilder/internal/toolexec"
)

func stageRenderSite(ctx context.Context, bs *BuildState) error {
	cfg := bs.Config
	bs.Report.SiteToolVersion = toolexec.DetectVersion(ctx, cfg.Site.Command)
	return site.NewGenerator(bs.Runner, site.Options{
		Command:     cfg.Site.Command,
		Args:        cfg.Site.Args,
		ProjectRoot: cfg.ProjectRoot,
		OutputDir:   cfg.OutputDir(),
	}).Generate(ctx)
}

func stageArchiveSamples(ctx context.Context, bs *BuildState) error {
	cfg := bs.Config
	archives, err := archive.NewArchiver(bs.Runner, archive.Options{
		Engine:       cfg.Archive.Engine,
		ProjectRoot:  cfg.ProjectRoot,
		Source:       cfg.Archive.Source,
		Ref:          cfg.Archive.Ref,
		OutputDir:    cfg.OutputDir(),
		PerDirectory: cfg.Archive.SplitPerDirectory(),
		Name:         cfg.Book.Name,
	}, bs.Logger).Run(ctx)
	bs.Report.Archives = append(bs.Report.Archives, archives...)
	bs.Recorder.AddArchives(len(archives))
	return err
}

func stageMergeMarkdown(ctx context.Context, bs *BuildState) error {
	cfg := bs.Config
	concat := merge.New(merge.Options{
		IncludeRoot:      cfg.Merge.IncludeRoot,
		StripFrontmatter: cfg.Merge.StripFrontmatter,
		Rewrite: markdown.RewriteOptions{
			PlainInternalLabels: cfg.Merge.PlainInternalLabels,
			PlainExternalLinks:  cfg.Merge.PlainExternalLinks,
		},
	}, merge.WithLogger(bs.Logger))

	res, err := concat.Concatenate(ctx, cfg.SummaryPath())
	if err != nil {
		return err
	}

	out := cfg.CombinedPath()
	if err := os.MkdirAll(cfg.OutputDir(), 0o750); err != nil {
		return fsError(err, "cannot create output directory", cfg.OutputDir())
	}
	if err := os.WriteFile(out, res.Content, 0o644); err != nil { //nolint:gosec // published artifact
		return fsError(err, "cannot write combined document", out)
	}

	r := bs.Report
	for _, ch := range res.Chapters {
		r.ChaptersMerged = append(r.ChaptersMerged, ch.Path)
	}
	for _, ch := range res.Skipped {
		r.ChaptersSkipped = append(r.ChaptersSkipped, ch.Path)
	}
	r.CombinedPath = out
	r.Fingerprint = res.Fingerprint
	bs.Recorder.SetChapters(len(res.Chapters), len(res.Skipped))

	bs.Logger.Info("Merged chapters",
		logfields.Path(out),
		logfields.Count(len(res.Chapters)),
		slog.Int("skipped", len(res.Skipped)))
	return nil
}

func stageConvertDocument(ctx context.Context, bs *BuildState) error {
	cfg := bs.Config
	conv, ok := convert.New(cfg.Convert.Engine, bs.Runner, convert.Options{
		Command:      cfg.Convert.Command,
		Format:       cfg.Convert.Format,
		ProjectRoot:  cfg.ProjectRoot,
		DataDir:      cfg.Convert.DataDir,
		ReferenceDoc: cfg.Convert.ReferenceDoc,
		ExtraArgs:    cfg.Convert.ExtraArgs,
	}, bs.Logger)
	if !ok {
		return nil
	}
	out := cfg.ConvertedPath()
	if err := conv.Convert(ctx, cfg.CombinedPath(), out); err != nil {
		return err
	}
	bs.Report.ConvertedPath = out
	bs.Logger.Info("Converted combined document", logfields.Path(out))
	return nil
}

func stageWriteMarker(_ context.Context, bs *BuildState) error {
	cfg := bs.Config
	if cfg.Publish.Domain == "" {
		return nil
	}
	if err := os.MkdirAll(cfg.OutputDir(), 0o750); err != nil {
		return fsError(err, "cannot create output directory", cfg.OutputDir())
	}
	path, err := publish.WriteMarker(cfg.OutputDir(), cfg.Publish.Domain)
	if err != nil {
		return err
	}
	bs.Report.MarkerPath = path
	return nil
}

// stagePublish never aborts the build: any failure is reported as a warning.
func stagePublish(ctx context.Context, bs *BuildState) error {
	cfg := bs.Config
	res, err := publish.NewPublisher(publish.Options{
		ProjectRoot:  cfg.ProjectRoot,
		OutputDir:    cfg.OutputDir(),
		Remote:       cfg.Publish.Remote,
		Branch:       cfg.Publish.Branch,
		Message:      cfg.Publish.Message,
		Author:       cfg.Publish.Author,
		Auth:         cfg.Publish.Auth,
		WorkspaceDir: bs.WorkspaceDir,
	}, bs.Logger).Publish(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return NewCanceledStageError(StagePublish, err)
		}
		bs.Recorder.IncPublishResult(false)
		bs.Logger.Error("Publish failed", logfields.Branch(cfg.Publish.Branch), logfields.Error(err))
		return NewWarnStageError(StagePublish, err)
	}
	bs.Recorder.IncPublishResult(true)
	bs.Report.Published = res
	return nil
}

func fsError(err error, msg, path string) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, msg).
		Fatal().
		WithContext("path", path).
		Build()
}
