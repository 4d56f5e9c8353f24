package pipeline

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/gridsweep/gridsweep/internal/experiment"
	"github.com/gridsweep/gridsweep/internal/result"
)

// SmokeFactory builds a synthetic pipeline that derives its metrics from
// the resolved configuration and seed instead of training anything. It
// exists to exercise a sweep end to end: grid shape, labels, aggregation,
// and reporting can all be checked without a real model.
type SmokeFactory struct{}

func (SmokeFactory) NewModel(modelType string, params map[string]any) (experiment.Model, error) {
	if modelType == "" {
		return nil, fmt.Errorf("smoke pipeline: empty model type")
	}
	return &smokeModel{typ: modelType, params: params}, nil
}

func (SmokeFactory) NewManager() (experiment.ModelManager, error) {
	return &smokeManager{}, nil
}

type smokeModel struct {
	typ    string
	params map[string]any
}

type smokeManager struct {
	model *smokeModel
}

func (m *smokeManager) SetModel(model experiment.Model) {
	m.model, _ = model.(*smokeModel)
}

// RunPipeline emits a decaying synthetic loss curve plus final test metrics.
// Deterministic for a given configuration and seed.
func (m *smokeManager) RunPipeline(ctx context.Context, cfg *experiment.RunConfig) (*result.RunResult, error) {
	if m.model == nil {
		return nil, fmt.Errorf("smoke pipeline: no model bound")
	}
	epochs := intParam(cfg.TrainingParams(), "epochs", 10)
	if epochs < 1 {
		epochs = 1
	}
	lr := floatParam(m.model.params, "lr", 0.01)

	rng := rand.New(rand.NewSource(cfg.Seed()))
	loss := make([]float64, epochs)
	for i := 0; i < epochs; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loss[i] = 1.0/(1.0+lr*float64(i+1)*10) + rng.Float64()*0.01
	}
	final := loss[epochs-1]
	return &result.RunResult{
		Scalars: map[string]float64{
			"train_loss": final,
			"test_loss":  final * (1.05 + rng.Float64()*0.05),
		},
		Series: map[string][]float64{
			"loss": loss,
		},
	}, nil
}

func intParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

func floatParam(params map[string]any, key string, def float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}
