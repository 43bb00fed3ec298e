package commands

import (
	"fmt"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
	"git.home.luguber.info/inful/bookbuilder/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SkipSite    bool   `name:"skip-site" help:"Do not run the site compiler"`
	SkipArchive bool   `name:"skip-archive" help:"Do not write code sample archives"`
	SkipConvert bool   `name:"skip-convert" help:"Do not convert the merged document"`
	NoPublish   bool   `name:"no-publish" help:"Do not push the output directory"`
	Report      string `name:"report" help:"Write a JSON build report to this path" type:"path"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus textfile metrics to this path" type:"path"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g.Logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	reg := prom.NewRegistry()
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if b.MetricsFile != "" {
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	builder := pipeline.NewBuilder(cfg,
		pipeline.WithLogger(g.Logger),
		pipeline.WithRecorder(recorder))
	report, buildErr := builder.Build(ctx, pipeline.Options{
		SkipSite:    b.SkipSite,
		SkipArchive: b.SkipArchive,
		SkipConvert: b.SkipConvert,
		SkipPublish: b.NoPublish,
	})

	writeArtifacts(g.Logger, report, b.Report, reg, b.MetricsFile)
	if buildErr != nil {
		return buildErr
	}
	fmt.Println(report.Summary())
	return nil
}

// writeArtifacts persists the optional report and metrics files. Failures are
// logged; they never change the build result.
func writeArtifacts(logger *slog.Logger, report *pipeline.BuildReport, reportPath string, reg *prom.Registry, metricsPath string) {
	if reportPath != "" && report != nil {
		if err := report.Persist(reportPath); err != nil {
			logger.Warn("Failed to write build report", logfields.Path(reportPath), logfields.Error(err))
		}
	}
	if metricsPath != "" {
		if err := metrics.WriteTextfile(reg, metricsPath); err != nil {
			logger.Warn("Failed to write metrics", logfields.Path(metricsPath), logfields.Error(err))
		}
	}
}
