package pipeline

import (
	"context"
	"fmt"
)

// Stage is a discrete unit of work in a book build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageRenderSite      StageName = "render_site"
	StageArchiveSamples  StageName = "archive_samples"
	StageMergeMarkdown   StageName = "merge_markdown"
	StageConvertDocument StageName = "convert_document"
	StageWriteMarker     StageName = "write_marker"
	StagePublish         StageName = "publish"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the stage and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// NewFatalStageError creates a new fatal stage error.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func NewWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
	StageResultSkipped  StageResult = "skipped"
)

// StageDef pairs a stage name with its executing function. Skipped stages
// are kept so the report lists them.
type StageDef struct {
	Name StageName
	Fn   Stage
	Skip bool
}

// Plan is a fluent builder for ordered stage definitions.
type Plan struct{ Defs []StageDef }

// NewPlan creates an empty plan.
func NewPlan() *Plan { return &Plan{Defs: make([]StageDef, 0, 6)} }

// Add appends a stage unconditionally.
func (p *Plan) Add(name StageName, fn Stage) *Plan {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn})
	return p
}

// AddIf appends a stage that only runs when cond is true.
func (p *Plan) AddIf(cond bool, name StageName, fn Stage) *Plan {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn, Skip: !cond})
	return p
}
