package pipeline

import (
	"context"
	"errors"
)

// StageOutcome is the normalized result of running one stage.
type StageOutcome struct {
	Stage  StageName
	Error  *StageError
	Result StageResult
	Abort  bool
}

func resultFromStageErrorKind(k StageErrorKind) StageResult {
	switch k {
	case StageErrorWarning:
		return StageResultWarning
	case StageErrorCanceled:
		return StageResultCanceled
	default:
		return StageResultFatal
	}
}

// ClassifyStageResult converts a raw stage error into a StageOutcome.
// Errors that are not StageErrors are fatal unless they are context
// cancellation.
func ClassifyStageResult(stage StageName, err error) StageOutcome {
	if err == nil {
		return StageOutcome{Stage: stage, Result: StageResultSuccess}
	}

	var se *StageError
	if !errors.As(err, &se) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			se = NewCanceledStageError(stage, err)
		} else {
			se = NewFatalStageError(stage, err)
		}
	}

	return StageOutcome{
		Stage:  stage,
		Error:  se,
		Result: resultFromStageErrorKind(se.Kind),
		Abort:  se.Kind != StageErrorWarning,
	}
}
