package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/archive"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
	"git.home.luguber.info/inful/bookbuilder/internal/publish"
	"git.home.luguber.info/inful/bookbuilder/internal/version"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// StageCount aggregates counts of outcomes for a stage.
type StageCount struct {
	Success  int `json:"success,omitempty"`
	Warning  int `json:"warning,omitempty"`
	Fatal    int `json:"fatal,omitempty"`
	Canceled int `json:"canceled,omitempty"`
	Skipped  int `json:"skipped,omitempty"`
}

// BuildReport captures what one build did.
type BuildReport struct {
	SchemaVersion   int
	BuildID         string
	Book            string
	Start           time.Time
	End             time.Time
	Errors          []error // fatal or canceled stage errors (at most one)
	Warnings        []error // non-fatal issues such as a failed publish
	StageDurations  map[string]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount
	Outcome         BuildOutcome

	ChaptersMerged  []string // chapter paths in merge order
	ChaptersSkipped []string // listed in the summary but missing
	Archives        []archive.Archive
	CombinedPath    string
	Fingerprint     string // content fingerprint of the combined document
	ConvertedPath   string
	MarkerPath      string
	Published       *publish.Result

	BookbuilderVersion string
	SiteToolVersion    string // version reported by the site compiler, if detectable
}

// NewBuildReport constructs a new BuildReport.
func NewBuildReport(buildID, book string) *BuildReport {
	return &BuildReport{
		SchemaVersion:      1,
		BuildID:            buildID,
		Book:               book,
		Start:              time.Now(),
		StageDurations:     make(map[string]time.Duration),
		StageErrorKinds:    make(map[StageName]StageErrorKind),
		StageCounts:        make(map[StageName]StageCount),
		BookbuilderVersion: version.Version,
	}
}

// AddStageError records se as an error or a warning depending on its kind.
func (r *BuildReport) AddStageError(se *StageError) {
	r.StageErrorKinds[se.Stage] = se.Kind
	if se.Kind == StageErrorWarning {
		r.Warnings = append(r.Warnings, se)
		return
	}
	r.Errors = append(r.Errors, se)
}

// RecordStageResult updates BuildReport counters and emits metrics (if recorder non-nil).
func (r *BuildReport) RecordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	if r.StageCounts == nil {
		r.StageCounts = make(map[StageName]StageCount)
	}
	sc := r.StageCounts[stage]
	label := metrics.ResultLabel(res)
	switch res {
	case StageResultSuccess:
		sc.Success++
	case StageResultWarning:
		sc.Warning++
	case StageResultFatal:
		sc.Fatal++
	case StageResultCanceled:
		sc.Canceled++
	case StageResultSkipped:
		sc.Skipped++
	}
	r.StageCounts[stage] = sc
	if recorder != nil {
		recorder.IncStageResult(string(stage), label)
	}
}

// Finish sets the end time of the report.
func (r *BuildReport) Finish() { r.End = time.Now() }

// DeriveOutcome sets the Outcome field based on recorded errors/warnings.
func (r *BuildReport) DeriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if errors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// MetricsOutcome maps Outcome onto the metrics label set.
func (r *BuildReport) MetricsOutcome() metrics.BuildOutcomeLabel {
	return metrics.BuildOutcomeLabel(r.Outcome)
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("book=%s chapters=%d skipped=%d archives=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.Book, len(r.ChaptersMerged), len(r.ChaptersSkipped), len(r.Archives),
		dur.Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), r.Outcome)
}

// Persist writes the report as JSON to path atomically.
func (r *BuildReport) Persist(path string) error {
	if r.End.IsZero() {
		r.Finish()
		r.DeriveOutcome()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("ensure report directory: %w", err)
	}
	jb, err := json.MarshalIndent(r.SanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(jb, '\n'), 0o600); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	return nil
}

// SanitizedCopy returns a copy with errors converted to strings and
// durations to milliseconds for JSON output.
func (r *BuildReport) SanitizedCopy() *BuildReportSerializable {
	s := &BuildReportSerializable{
		SchemaVersion:      r.SchemaVersion,
		BuildID:            r.BuildID,
		Book:               r.Book,
		Start:              r.Start,
		End:                r.End,
		Errors:             make([]string, len(r.Errors)),
		Warnings:           make([]string, len(r.Warnings)),
		StageDurationsMS:   make(map[string]int64, len(r.StageDurations)),
		StageErrorKinds:    make(map[string]string, len(r.StageErrorKinds)),
		StageCounts:        make(map[string]StageCount, len(r.StageCounts)),
		Outcome:            string(r.Outcome),
		ChaptersMerged:     nonNil(r.ChaptersMerged),
		ChaptersSkipped:    nonNil(r.ChaptersSkipped),
		Archives:           r.Archives,
		CombinedPath:       r.CombinedPath,
		Fingerprint:        r.Fingerprint,
		ConvertedPath:      r.ConvertedPath,
		MarkerPath:         r.MarkerPath,
		Published:          r.Published,
		BookbuilderVersion: r.BookbuilderVersion,
		SiteToolVersion:    r.SiteToolVersion,
	}
	if s.Archives == nil {
		s.Archives = []archive.Archive{}
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	for k, v := range r.StageDurations {
		s.StageDurationsMS[k] = v.Milliseconds()
	}
	for k, v := range r.StageErrorKinds {
		s.StageErrorKinds[string(k)] = string(v)
	}
	for k, v := range r.StageCounts {
		s.StageCounts[string(k)] = v
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// BuildReportSerializable mirrors BuildReport with string errors for JSON output.
type BuildReportSerializable struct {
	SchemaVersion      int                   `json:"schema_version"`
	BuildID            string                `json:"build_id"`
	Book               string                `json:"book"`
	Start              time.Time             `json:"start"`
	End                time.Time             `json:"end"`
	Errors             []string              `json:"errors"`
	Warnings           []string              `json:"warnings"`
	StageDurationsMS   map[string]int64      `json:"stage_durations_ms"`
	StageErrorKinds    map[string]string     `json:"stage_error_kinds"`
	StageCounts        map[string]StageCount `json:"stage_counts"`
	Outcome            string                `json:"outcome"`
	ChaptersMerged     []string              `json:"chapters_merged"`
	ChaptersSkipped    []string              `json:"chapters_skipped"`
	Archives           []archive.Archive     `json:"archives"`
	CombinedPath       string                `json:"combined_path,omitempty"`
	Fingerprint        string                `json:"fingerprint,omitempty"`
	ConvertedPath      string                `json:"converted_path,omitempty"`
	MarkerPath         string                `json:"marker_path,omitempty"`
	Published          *publish.Result       `json:"published,omitempty"`
	BookbuilderVersion string                `json:"bookbuilder_version,omitempty"`
	SiteToolVersion    string                `json:"site_tool_version,omitempty"`
}
