package experiment

import (
	"context"

	"github.com/gridsweep/gridsweep/internal/result"
)

// Model is a pipeline's model instance. The engine never inspects it; it
// only carries it from the factory to the manager.
type Model = any

// ModelManager drives one full pipeline pass (load, preprocess, train,
// validate, test) for the model bound to it. A call may block for as long
// as training takes; the engine holds no locks across it.
type ModelManager interface {
	SetModel(model Model)
	RunPipeline(ctx context.Context, cfg *RunConfig) (*result.RunResult, error)
}

// PipelineFactory constructs the pipeline components for a single run.
// A fresh model and manager are built per run, so no state leaks between
// repeats beyond what the pipeline's own construction introduces.
type PipelineFactory interface {
	NewModel(modelType string, params map[string]any) (Model, error)
	NewManager() (ModelManager, error)
}
