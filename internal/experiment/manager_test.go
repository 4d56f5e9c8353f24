package experiment_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/gridsweep/gridsweep/internal/config"
	"github.com/gridsweep/gridsweep/internal/experiment"
	"github.com/gridsweep/gridsweep/internal/result"
)

func twoAxisSpace() []config.Hyperparameter {
	return []config.Hyperparameter{
		{Name: "lr", Stage: "model", Values: []any{0.1, 0.2}},
		{Name: "dropout", Stage: "model", Values: []any{0.3, 0.5, 0.7}},
	}
}

func twoAxisLabels() []string {
	return []string{
		"lr=0.1,dropout=0.3",
		"lr=0.1,dropout=0.5",
		"lr=0.1,dropout=0.7",
		"lr=0.2,dropout=0.3",
		"lr=0.2,dropout=0.5",
		"lr=0.2,dropout=0.7",
	}
}

func newManager(t *testing.T, opts experiment.Options) *experiment.Manager {
	t.Helper()
	if opts.Template == nil {
		opts.Template = testTemplate()
	}
	mgr, err := experiment.NewManager(opts)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return mgr
}

func TestSummary(t *testing.T) {
	mgr := newManager(t, experiment.Options{
		Space:      twoAxisSpace(),
		StepCounts: map[string]int{"lr": 2, "dropout": 3},
		Runs:       4,
	})
	s := mgr.Summary()
	if s.Configurations != 6 {
		t.Errorf("expected 6 configurations, got %d", s.Configurations)
	}
	if s.RunsPerConfig != 4 {
		t.Errorf("expected 4 runs per configuration, got %d", s.RunsPerConfig)
	}
	want := []experiment.AxisSummary{{Name: "lr", Steps: 2}, {Name: "dropout", Steps: 3}}
	if !reflect.DeepEqual(s.Axes, want) {
		t.Errorf("expected axes %v, got %v", want, s.Axes)
	}
}

func TestNewManagerInvalidRepeat(t *testing.T) {
	_, err := experiment.NewManager(experiment.Options{Template: testTemplate(), Runs: 0})
	var invalid *experiment.InvalidRepeatCountError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidRepeatCountError, got %v", err)
	}
}

func TestRunAllGridOrder(t *testing.T) {
	fake := newFakePipeline()
	mgr := newManager(t, experiment.Options{
		Space:      twoAxisSpace(),
		StepCounts: map[string]int{"lr": 2, "dropout": 3},
		Runs:       2,
	})
	set, err := mgr.RunAll(context.Background(), fake)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if !reflect.DeepEqual(set.Labels(), twoAxisLabels()) {
		t.Errorf("expected labels %v, got %v", twoAxisLabels(), set.Labels())
	}
	for _, label := range set.Labels() {
		agg, _ := set.Get(label)
		if agg.Runs != 2 {
			t.Errorf("%s: expected 2 aggregated runs, got %d", label, agg.Runs)
		}
		// fake reports the per-label invocation number as its loss
		if agg.Scalars["loss"].Mean != 1.5 {
			t.Errorf("%s: expected mean loss 1.5, got %v", label, agg.Scalars["loss"].Mean)
		}
	}
	if fake.total() != 12 {
		t.Errorf("expected 12 pipeline invocations, got %d", fake.total())
	}
}

func TestRunAllUnboundStageBeforeExecution(t *testing.T) {
	fake := newFakePipeline()
	mgr := newManager(t, experiment.Options{
		Space: []config.Hyperparameter{
			{Name: "lr", Stage: "optimizer", Values: []any{0.1, 0.2}},
		},
		StepCounts: map[string]int{"lr": 2},
		Runs:       1,
	})
	_, err := mgr.RunAll(context.Background(), fake)
	var unbound *experiment.UnboundHyperparameterError
	if !errors.As(err, &unbound) {
		t.Fatalf("expected UnboundHyperparameterError, got %v", err)
	}
	if fake.total() != 0 {
		t.Errorf("expected no pipeline invocations before the error, got %d", fake.total())
	}
}

func TestRunAllDuplicateLabelBeforeExecution(t *testing.T) {
	fake := newFakePipeline()
	// both values round to lr=0 under 6-decimal canonicalization
	mgr := newManager(t, experiment.Options{
		Space: []config.Hyperparameter{
			{Name: "lr", Stage: "model", Values: []any{0.0000001, 0.0000002}},
		},
		StepCounts: map[string]int{"lr": 2},
		Runs:       1,
	})
	_, err := mgr.RunAll(context.Background(), fake)
	var dup *result.DuplicateLabelError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateLabelError, got %v", err)
	}
	if fake.total() != 0 {
		t.Errorf("expected no pipeline invocations before the error, got %d", fake.total())
	}
}

func TestRunAllStopsOnFailure(t *testing.T) {
	fake := newFakePipeline()
	fake.fail = func(label string, call int) error {
		if label == "lr=0.2,dropout=0.3" {
			return fmt.Errorf("diverged")
		}
		return nil
	}
	mgr := newManager(t, experiment.Options{
		Space:      twoAxisSpace(),
		StepCounts: map[string]int{"lr": 2, "dropout": 3},
		Runs:       1,
	})
	set, err := mgr.RunAll(context.Background(), fake)
	var rf *experiment.RunFailedError
	if !errors.As(err, &rf) {
		t.Fatalf("expected RunFailedError, got %v", err)
	}
	if rf.Label != "lr=0.2,dropout=0.3" {
		t.Errorf("unexpected failing label %q", rf.Label)
	}
	// the three configurations that finished first survive in the set
	want := twoAxisLabels()[:3]
	if !reflect.DeepEqual(set.Labels(), want) {
		t.Errorf("expected partial labels %v, got %v", want, set.Labels())
	}
}

func TestRunAllContinueOnErrorKeepsPartialAggregate(t *testing.T) {
	fake := newFakePipeline()
	fake.fail = func(label string, call int) error {
		if label == "lr=0.1" && call == 2 {
			return fmt.Errorf("diverged")
		}
		return nil
	}
	mgr := newManager(t, experiment.Options{
		Space: []config.Hyperparameter{
			{Name: "lr", Stage: "model", Values: []any{0.1, 0.2}},
		},
		StepCounts:      map[string]int{"lr": 2},
		Runs:            3,
		ContinueOnError: true,
	})
	set, err := mgr.RunAll(context.Background(), fake)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	failed, ok := set.Get("lr=0.1")
	if !ok {
		t.Fatal("expected failing configuration's partial aggregate to be kept")
	}
	if failed.Runs != 1 {
		t.Errorf("expected partial aggregate over 1 run, got %d", failed.Runs)
	}
	healthy, _ := set.Get("lr=0.2")
	if healthy == nil || healthy.Runs != 3 {
		t.Errorf("expected full aggregate for healthy configuration, got %+v", healthy)
	}
}

func TestRunAllContinueOnErrorOmitsEmptyPartial(t *testing.T) {
	fake := newFakePipeline()
	fake.fail = func(label string, call int) error {
		if label == "lr=0.1" {
			return fmt.Errorf("bad config")
		}
		return nil
	}
	mgr := newManager(t, experiment.Options{
		Space: []config.Hyperparameter{
			{Name: "lr", Stage: "model", Values: []any{0.1, 0.2}},
		},
		StepCounts:      map[string]int{"lr": 2},
		Runs:            1,
		ContinueOnError: true,
	})
	set, err := mgr.RunAll(context.Background(), fake)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if _, ok := set.Get("lr=0.1"); ok {
		t.Error("expected configuration with no completed runs to be omitted")
	}
	if set.Len() != 1 {
		t.Errorf("expected 1 configuration, got %d", set.Len())
	}
}

func TestRunAllCancellationBetweenConfigurations(t *testing.T) {
	fake := newFakePipeline()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr := newManager(t, experiment.Options{
		Space: []config.Hyperparameter{
			{Name: "lr", Stage: "model", Values: []any{0.1, 0.2, 0.3}},
		},
		StepCounts: map[string]int{"lr": 3},
		Runs:       1,
		Observer: func(label string, completed, total int) {
			if label == "lr=0.1" {
				cancel()
			}
		},
	})
	set, err := mgr.RunAll(ctx, fake)
	if err != nil {
		t.Fatalf("expected partial results without error, got %v", err)
	}
	if !reflect.DeepEqual(set.Labels(), []string{"lr=0.1"}) {
		t.Errorf("expected only the first configuration, got %v", set.Labels())
	}
	if fake.total() != 1 {
		t.Errorf("expected 1 pipeline invocation, got %d", fake.total())
	}
}

func TestRunAllParallelPreservesGridOrder(t *testing.T) {
	fake := newFakePipeline()
	mgr := newManager(t, experiment.Options{
		Space:      twoAxisSpace(),
		StepCounts: map[string]int{"lr": 2, "dropout": 3},
		Runs:       2,
		Parallel:   3,
	})
	set, err := mgr.RunAll(context.Background(), fake)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if !reflect.DeepEqual(set.Labels(), twoAxisLabels()) {
		t.Errorf("expected grid-order labels %v, got %v", twoAxisLabels(), set.Labels())
	}
	for _, label := range set.Labels() {
		agg, _ := set.Get(label)
		if agg.Runs != 2 {
			t.Errorf("%s: expected 2 aggregated runs, got %d", label, agg.Runs)
		}
	}
}

func TestRunAllParallelSurfacesFailure(t *testing.T) {
	fake := newFakePipeline()
	fake.fail = func(label string, call int) error {
		if label == "lr=0.2,dropout=0.5" {
			return fmt.Errorf("diverged")
		}
		return nil
	}
	mgr := newManager(t, experiment.Options{
		Space:      twoAxisSpace(),
		StepCounts: map[string]int{"lr": 2, "dropout": 3},
		Runs:       1,
		Parallel:   2,
	})
	set, err := mgr.RunAll(context.Background(), fake)
	var rf *experiment.RunFailedError
	if !errors.As(err, &rf) {
		t.Fatalf("expected RunFailedError, got %v", err)
	}
	if _, ok := set.Get("lr=0.2,dropout=0.5"); ok {
		t.Error("failed configuration must not appear in the result set")
	}
}
