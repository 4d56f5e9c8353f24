package experiment_test

import (
	"context"
	"sync"

	"github.com/gridsweep/gridsweep/internal/config"
	"github.com/gridsweep/gridsweep/internal/experiment"
	"github.com/gridsweep/gridsweep/internal/result"
)

// fakePipeline counts pipeline invocations and fails on demand. The fail
// hook receives the configuration label and the 1-based invocation number
// for that label.
type fakePipeline struct {
	mu       sync.Mutex
	calls    int
	perLabel map[string]int
	fail     func(label string, call int) error
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{perLabel: make(map[string]int)}
}

func (f *fakePipeline) NewModel(modelType string, params map[string]any) (experiment.Model, error) {
	return modelType, nil
}

func (f *fakePipeline) NewManager() (experiment.ModelManager, error) {
	return &fakeManager{f: f}, nil
}

func (f *fakePipeline) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeManager struct {
	f     *fakePipeline
	model experiment.Model
}

func (m *fakeManager) SetModel(model experiment.Model) { m.model = model }

func (m *fakeManager) RunPipeline(ctx context.Context, cfg *experiment.RunConfig) (*result.RunResult, error) {
	m.f.mu.Lock()
	m.f.calls++
	m.f.perLabel[cfg.Label()]++
	call := m.f.perLabel[cfg.Label()]
	m.f.mu.Unlock()

	if m.f.fail != nil {
		if err := m.f.fail(cfg.Label(), call); err != nil {
			return nil, err
		}
	}
	return &result.RunResult{Scalars: map[string]float64{"loss": float64(call)}}, nil
}

func testTemplate() config.Template {
	return config.Template{
		"model": {
			Meta:   config.Meta{Type: "M", Manager: "fake"},
			Params: map[string]any{"lr": 0.1, "dropout": 0.5},
		},
		"train": {Params: map[string]any{"epochs": 5}},
	}
}
