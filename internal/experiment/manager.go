package experiment

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/gridsweep/gridsweep/internal/config"
	"github.com/gridsweep/gridsweep/internal/grid"
	"github.com/gridsweep/gridsweep/internal/result"
)

// Options configures a sweep over one template.
type Options struct {
	Template   config.Template
	Space      []config.Hyperparameter
	StepCounts map[string]int
	Runs       int
	Seed       int64
	// Parallel is the maximum number of configurations in flight; values
	// below 2 run the sweep strictly sequentially.
	Parallel int
	// ContinueOnError keeps sweeping past a failed configuration. The
	// failing cell contributes a best-effort aggregate of whatever runs it
	// completed, or nothing if none did.
	ContinueOnError bool
	Retries         uint
	Log             *zap.SugaredLogger
	Observer        Observer
}

// Manager enumerates the grid, builds each configuration, executes it, and
// collates the aggregates. Configurations execute lazily, one grid cell at
// a time; only the grid's shape is computed up front.
type Manager struct {
	opts Options
	grid *grid.Grid
}

func NewManager(opts Options) (*Manager, error) {
	if opts.Runs < 1 {
		return nil, &InvalidRepeatCountError{Repeat: opts.Runs}
	}
	g, err := grid.Expand(opts.Space, opts.StepCounts)
	if err != nil {
		return nil, err
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	return &Manager{opts: opts, grid: g}, nil
}

// AxisSummary describes one hyperparameter's resolved axis.
type AxisSummary struct {
	Name  string
	Steps int
}

// Summary reports the sweep's shape before anything executes.
type Summary struct {
	Axes           []AxisSummary
	Configurations int
	RunsPerConfig  int
}

func (m *Manager) Summary() Summary {
	axes := m.grid.Axes()
	s := Summary{Configurations: m.grid.Size(), RunsPerConfig: m.opts.Runs}
	for _, axis := range axes {
		s.Axes = append(s.Axes, AxisSummary{Name: axis.Name, Steps: len(axis.Values)})
	}
	return s
}

// Validate surfaces structural errors without executing any pipeline:
// label collisions across the whole grid, and bindings that do not resolve
// inside the template. Binding resolution is structural, so probing one
// cell covers every cell.
func (m *Manager) Validate() error {
	seen := make(map[string]bool, m.grid.Size())
	for i := 0; i < m.grid.Size(); i++ {
		label := m.grid.Label(m.grid.At(i))
		if seen[label] {
			return &result.DuplicateLabelError{Label: label}
		}
		seen[label] = true
	}
	_, err := Build(m.opts.Template, m.grid, m.grid.At(0), m.opts.Seed)
	return err
}

// RunAll sweeps the full grid. Cancellation between configurations returns
// the aggregates accumulated so far with a nil error; a configuration
// interrupted mid-repeat is omitted. On a pipeline failure the sweep stops
// (returning partial results alongside the error) unless ContinueOnError
// is set.
func (m *Manager) RunAll(ctx context.Context, factory PipelineFactory) (*result.ExperimentResultSet, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.opts.Log.Infow("starting sweep",
		"configurations", m.grid.Size(),
		"runs_per_config", m.opts.Runs,
		"parallel", m.opts.Parallel,
	)
	if m.opts.Parallel > 1 {
		return m.runParallel(ctx, factory)
	}
	return m.runSequential(ctx, factory)
}

func (m *Manager) runSequential(ctx context.Context, factory PipelineFactory) (*result.ExperimentResultSet, error) {
	set := result.NewExperimentResultSet()
	exec := &Executor{Log: m.opts.Log, Observer: m.opts.Observer, Retries: m.opts.Retries}

	for i := 0; i < m.grid.Size(); i++ {
		if ctx.Err() != nil {
			m.opts.Log.Infow("sweep cancelled", "completed", set.Len(), "total", m.grid.Size())
			return set, nil
		}
		cfg, err := Build(m.opts.Template, m.grid, m.grid.At(i), m.opts.Seed)
		if err != nil {
			return set, err
		}
		m.opts.Log.Infow("running configuration", "label", cfg.Label(), "cell", i+1, "total", m.grid.Size())

		runs, err := exec.Run(ctx, cfg, m.opts.Runs, factory)
		if err != nil {
			agg, done := m.settleFailure(err, set.Len())
			if !done {
				return set, err
			}
			if agg != nil {
				if addErr := set.Add(cfg.Label(), agg); addErr != nil {
					return set, addErr
				}
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return set, nil
			}
			continue
		}
		agg, err := runs.Combine()
		if err != nil {
			return set, err
		}
		if err := set.Add(cfg.Label(), agg); err != nil {
			return set, err
		}
	}
	return set, nil
}

// settleFailure decides what a failed configuration contributes. Returns
// the partial aggregate to record (nil for none) and whether the sweep may
// carry on. Cancellation always omits the interrupted configuration.
func (m *Manager) settleFailure(err error, completed int) (*result.Aggregate, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		m.opts.Log.Infow("sweep cancelled mid-configuration", "completed", completed)
		return nil, true
	}
	var rf *RunFailedError
	if !errors.As(err, &rf) || !m.opts.ContinueOnError {
		return nil, false
	}
	m.opts.Log.Warnw("configuration failed, continuing",
		"label", rf.Label, "failed_run", rf.Run, "collected", rf.Partial.Len(), "cause", rf.Err,
	)
	if rf.Partial.Len() == 0 {
		return nil, true
	}
	agg, cerr := rf.Partial.Combine()
	if cerr != nil {
		return nil, true
	}
	return agg, true
}

// runParallel dispatches grid cells onto a worker pool. Finished aggregates
// are buffered per cell index and collated in grid order once the pool
// drains, so the result set's ordering matches the sequential path.
func (m *Manager) runParallel(ctx context.Context, factory PipelineFactory) (*result.ExperimentResultSet, error) {
	size := m.grid.Size()
	exec := &Executor{Log: m.opts.Log, Observer: m.opts.Observer, Retries: m.opts.Retries}

	aggs := make([]*result.Aggregate, size)
	labels := make([]string, size)

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var failMu sync.Mutex
	var firstFail error

	jobs := make([]Job, size)
	for i := 0; i < size; i++ {
		i := i
		jobs[i] = func() error {
			if cctx.Err() != nil {
				return nil
			}
			cfg, err := Build(m.opts.Template, m.grid, m.grid.At(i), m.opts.Seed)
			if err != nil {
				cancel()
				return err
			}
			labels[i] = cfg.Label()
			m.opts.Log.Infow("running configuration", "label", cfg.Label(), "cell", i+1, "total", size)

			runs, err := exec.Run(cctx, cfg, m.opts.Runs, factory)
			if err != nil {
				agg, done := m.settleFailure(err, 0)
				if agg != nil {
					aggs[i] = agg
				}
				if done {
					return nil
				}
				failMu.Lock()
				if firstFail == nil {
					firstFail = err
				}
				failMu.Unlock()
				cancel()
				return err
			}
			agg, err := runs.Combine()
			if err != nil {
				return err
			}
			aggs[i] = agg
			return nil
		}
	}

	errs := RunPool(m.opts.Parallel, jobs)

	set := result.NewExperimentResultSet()
	for i := 0; i < size; i++ {
		if aggs[i] == nil {
			continue
		}
		if err := set.Add(labels[i], aggs[i]); err != nil {
			return set, err
		}
	}
	if firstFail != nil {
		return set, firstFail
	}
	for _, err := range errs {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			continue
		}
		return set, err
	}
	return set, nil
}
