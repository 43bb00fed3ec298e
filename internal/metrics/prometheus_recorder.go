package metrics

import (
	"fmt"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "bookbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	stageDuration  *prom.HistogramVec
	buildDuration  prom.Histogram
	stageResults   *prom.CounterVec
	buildOutcome   *prom.CounterVec
	chapters       *prom.GaugeVec
	archives       prom.Counter
	publishResults *prom.CounterVec
	lastBuild      prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.chapters = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "chapters",
			Help:      "Chapters of the last merge by state",
		}, []string{"state"})
		pr.archives = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "archives_written_total",
			Help:      "Code sample archives written",
		})
		pr.publishResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "publish_results_total",
			Help:      "Publish attempts by result",
		}, []string{"result"})
		pr.lastBuild = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_build_timestamp_seconds",
			Help:      "Unix time the last build finished",
		})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
			pr.chapters, pr.archives, pr.publishResults, pr.lastBuild)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
	p.lastBuild.SetToCurrentTime()
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetChapters(merged, skipped int) {
	if p == nil || p.chapters == nil {
		return
	}
	p.chapters.WithLabelValues("merged").Set(float64(merged))
	p.chapters.WithLabelValues("skipped").Set(float64(skipped))
}

func (p *PrometheusRecorder) AddArchives(n int) {
	if p == nil || p.archives == nil {
		return
	}
	p.archives.Add(float64(n))
}

func (p *PrometheusRecorder) IncPublishResult(success bool) {
	if p == nil || p.publishResults == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.publishResults.WithLabelValues(res).Inc()
}

// WriteTextfile writes every metric in g to path in the text exposition
// format read by the node exporter textfile collector.
func WriteTextfile(g prom.Gatherer, path string) error {
	if err := prom.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
