package experiment

import (
	"context"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/gridsweep/gridsweep/internal/result"
)

// Observer is notified after each completed run of a configuration.
// Side channel only: an absent observer never affects results.
type Observer func(label string, completed, total int)

// Executor runs the pipeline repeat times against one configuration.
type Executor struct {
	Log      *zap.SugaredLogger
	Observer Observer
	// Retries is the number of extra attempts per run before the failure
	// is surfaced as a RunFailedError. Zero means one attempt.
	Retries uint
}

// Run executes the pipeline repeat times. Runs are independent: each one
// gets a freshly constructed model and manager. On failure the partial
// result set collected so far travels with the error; it is never lost.
func (e *Executor) Run(ctx context.Context, cfg *RunConfig, repeat int, factory PipelineFactory) (*result.RunResultSet, error) {
	if repeat < 1 {
		return nil, &InvalidRepeatCountError{Repeat: repeat}
	}
	set := result.NewRunResultSet()
	for i := 0; i < repeat; i++ {
		if err := ctx.Err(); err != nil {
			return set, &RunFailedError{Label: cfg.Label(), Run: i + 1, Total: repeat, Partial: set, Err: err}
		}
		res, err := e.runOnce(ctx, cfg.ForRun(i), factory)
		if err != nil {
			return set, &RunFailedError{Label: cfg.Label(), Run: i + 1, Total: repeat, Partial: set, Err: err}
		}
		if err := set.Add(res); err != nil {
			return set, err
		}
		if e.Log != nil {
			e.Log.Debugw("run complete", "label", cfg.Label(), "run", i+1, "total", repeat)
		}
		if e.Observer != nil {
			e.Observer(cfg.Label(), i+1, repeat)
		}
	}
	return set, nil
}

func (e *Executor) runOnce(ctx context.Context, cfg *RunConfig, factory PipelineFactory) (*result.RunResult, error) {
	var res *result.RunResult
	err := retry.Do(
		func() error {
			model, err := factory.NewModel(cfg.ModelType(), cfg.ModelParams())
			if err != nil {
				return err
			}
			manager, err := factory.NewManager()
			if err != nil {
				return err
			}
			manager.SetModel(model)
			r, err := manager.RunPipeline(ctx, cfg)
			if err != nil {
				return err
			}
			res = r
			return nil
		},
		retry.Attempts(e.Retries+1),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}
