package experiment

import (
	"sort"

	"github.com/gridsweep/gridsweep/internal/config"
	"github.com/gridsweep/gridsweep/internal/grid"
)

// RunConfig is a fully resolved, labeled configuration for one grid cell.
// Immutable once built: accessors hand out copies.
type RunConfig struct {
	template config.Template
	label    string
	seed     int64
}

// Build deep-clones the template, writes every assignment value into the
// params subtree of its bound stage, and labels the result. Pure: the input
// template is never touched, and identical inputs produce identical output.
func Build(template config.Template, g *grid.Grid, asn grid.Assignment, seed int64) (*RunConfig, error) {
	clone := template.Clone()
	for _, axis := range g.Axes() {
		value, ok := asn[axis.Name]
		if !ok {
			continue
		}
		stage, ok := clone[axis.Stage]
		if !ok {
			return nil, &UnboundHyperparameterError{Name: axis.Name, Stage: axis.Stage}
		}
		if stage.Params == nil {
			if !axis.Create {
				return nil, &UnboundHyperparameterError{Name: axis.Name, Stage: axis.Stage}
			}
			stage.Params = make(map[string]any)
			clone[axis.Stage] = stage
		}
		if !deepSet(stage.Params, axis.Name, value) {
			if !axis.Create {
				return nil, &UnboundHyperparameterError{Name: axis.Name, Stage: axis.Stage}
			}
			stage.Params[axis.Name] = value
		}
	}
	return &RunConfig{template: clone, label: g.Label(asn), seed: seed}, nil
}

// deepSet replaces the first occurrence of key anywhere in the nested map.
// The current level is checked before descending, and children are visited
// in sorted key order so the choice is deterministic. Returns false if the
// key exists nowhere.
func deepSet(m map[string]any, key string, value any) bool {
	if _, ok := m[key]; ok {
		m[key] = value
		return true
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if child, ok := m[k].(map[string]any); ok {
			if deepSet(child, key, value) {
				return true
			}
		}
	}
	return false
}

// Label is the canonical "name=value,..." identity of this configuration.
func (c *RunConfig) Label() string { return c.label }

// Seed is the plan-level RNG seed threaded through every configuration.
func (c *RunConfig) Seed() int64 { return c.seed }

// ForRun returns a view of the configuration with a seed derived for the
// given 0-based repeat, so repeats are reproducible yet distinct.
func (c *RunConfig) ForRun(run int) *RunConfig {
	return &RunConfig{template: c.template, label: c.label, seed: c.seed + int64(run)}
}

// ModelType names the model the pipeline should construct.
func (c *RunConfig) ModelType() string { return c.template["model"].Meta.Type }

// ManagerType names the pipeline manager that drives the run.
func (c *RunConfig) ManagerType() string { return c.template["model"].Meta.Manager }

func (c *RunConfig) ModelParams() map[string]any         { return c.StageParams("model") }
func (c *RunConfig) PreprocessingParams() map[string]any { return c.StageParams("preprocess") }
func (c *RunConfig) TrainingParams() map[string]any      { return c.StageParams("train") }
func (c *RunConfig) ValidationParams() map[string]any    { return c.StageParams("validate") }
func (c *RunConfig) TestingParams() map[string]any       { return c.StageParams("test") }

// StageParams returns a shallow copy of the named stage's params, or nil if
// the stage is absent.
func (c *RunConfig) StageParams(stage string) map[string]any {
	s, ok := c.template[stage]
	if !ok || s.Params == nil {
		return nil
	}
	out := make(map[string]any, len(s.Params))
	for k, v := range s.Params {
		out[k] = v
	}
	return out
}
