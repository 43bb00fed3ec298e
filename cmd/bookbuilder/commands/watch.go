package commands

import (
	"context"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/pipeline"
	"git.home.luguber.info/inful/bookbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Convert  bool          `help:"Also convert the merged document on every rebuild"`
	Debounce time.Duration `help:"Quiet period before rebuilding" default:"300ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g.Logger)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	builder := pipeline.NewBuilder(cfg, pipeline.WithLogger(g.Logger))
	rebuild := func(ctx context.Context) error {
		_, err := builder.Merge(ctx, w.Convert)
		return err
	}
	if err := rebuild(ctx); err != nil {
		g.Logger.Warn("Initial merge failed; watching anyway", logfields.Error(err))
	}

	return watch.New(rebuild, watch.Options{
		Dirs:     []string{filepath.Dir(cfg.SummaryPath())},
		Exclude:  []string{cfg.OutputDir()},
		Summary:  cfg.SummaryPath(),
		Debounce: w.Debounce,
		Logger:   g.Logger,
	}).Run(ctx)
}
