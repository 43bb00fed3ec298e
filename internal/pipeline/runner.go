package pipeline

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

// RunStages executes stages in order, recording timing and stopping on the
// first fatal or canceled stage.
func RunStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	for _, st := range stages {
		if st.Skip {
			bs.Logger.Debug("Stage skipped", logfields.Stage(string(st.Name)))
			bs.Report.RecordStageResult(st.Name, StageResultSkipped, bs.Recorder)
			continue
		}

		select {
		case <-ctx.Done():
			se := NewCanceledStageError(st.Name, ctx.Err())
			bs.Report.AddStageError(se)
			bs.Report.RecordStageResult(st.Name, StageResultCanceled, bs.Recorder)
			return se
		default:
		}

		bs.Logger.Debug("Stage starting", logfields.Stage(string(st.Name)))
		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)

		bs.Report.StageDurations[string(st.Name)] = dur
		bs.Recorder.ObserveStageDuration(string(st.Name), dur)

		out := ClassifyStageResult(st.Name, err)
		if out.Error != nil {
			bs.Report.AddStageError(out.Error)
		}
		bs.Report.RecordStageResult(st.Name, out.Result, bs.Recorder)

		level := slog.LevelInfo
		if out.Result != StageResultSuccess {
			level = slog.LevelWarn
		}
		bs.Logger.Log(ctx, level, "Stage complete",
			logfields.Stage(string(st.Name)),
			logfields.DurationMS(float64(dur.Milliseconds())),
			slog.String("result", string(out.Result)))

		if out.Abort {
			return out.Error
		}
	}
	return nil
}
