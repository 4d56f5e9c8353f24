package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level sweep document: the pipeline template that every
// run starts from, plus the experiment plan describing how to vary it.
type Config struct {
	Pipeline   Template   `yaml:"pipeline"`
	Experiment Experiment `yaml:"experiment"`
}

// Template maps a stage name ("model", "preprocess", "train", "validate",
// "test") to its configuration.
type Template map[string]Stage

type Stage struct {
	Meta   Meta           `yaml:"meta"`
	Params map[string]any `yaml:"params"`
}

// Meta identifies which model and pipeline manager a stage requests.
// Only the "model" stage carries meta in practice.
type Meta struct {
	Type    string `yaml:"type"`
	Manager string `yaml:"manager"`
}

type Experiment struct {
	Runs            int              `yaml:"runs"`
	Seed            int64            `yaml:"seed"`
	Parallel        int              `yaml:"parallel"`
	Hyperparameters []Hyperparameter `yaml:"hyperparameters"`
}

// Hyperparameter declares one axis of the sweep. Exactly one of Values or
// the Min/Max pair must be set. Stage binds the axis to the params subtree
// of that stage in the template.
type Hyperparameter struct {
	Name   string   `yaml:"name"`
	Stage  string   `yaml:"stage"`
	Values []any    `yaml:"values"`
	Min    *float64 `yaml:"min"`
	Max    *float64 `yaml:"max"`
	Steps  int      `yaml:"steps"`
	Create bool     `yaml:"create"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if len(cfg.Pipeline) == 0 {
		return fmt.Errorf("no pipeline stages defined")
	}
	model, ok := cfg.Pipeline["model"]
	if !ok {
		return fmt.Errorf("pipeline stage %q is required", "model")
	}
	if model.Meta.Type == "" {
		return fmt.Errorf("model stage: meta.type is required")
	}
	if model.Meta.Manager == "" {
		return fmt.Errorf("model stage: meta.manager is required")
	}
	if cfg.Experiment.Runs < 1 {
		return fmt.Errorf("runs must be at least 1")
	}
	seen := make(map[string]bool)
	for i, hp := range cfg.Experiment.Hyperparameters {
		if hp.Name == "" {
			return fmt.Errorf("hyperparameter %d: name is required", i)
		}
		if seen[hp.Name] {
			return fmt.Errorf("hyperparameter %q: declared twice", hp.Name)
		}
		seen[hp.Name] = true
		if hp.Stage == "" {
			return fmt.Errorf("hyperparameter %q: stage binding is required", hp.Name)
		}
		bounded := hp.Min != nil || hp.Max != nil
		if len(hp.Values) > 0 && bounded {
			return fmt.Errorf("hyperparameter %q: values and min/max are mutually exclusive", hp.Name)
		}
		if len(hp.Values) == 0 && !bounded {
			return fmt.Errorf("hyperparameter %q: either values or min/max is required", hp.Name)
		}
		if bounded {
			if hp.Min == nil || hp.Max == nil {
				return fmt.Errorf("hyperparameter %q: min and max must both be set", hp.Name)
			}
			if *hp.Min > *hp.Max {
				return fmt.Errorf("hyperparameter %q: min %v exceeds max %v", hp.Name, *hp.Min, *hp.Max)
			}
		}
	}
	return nil
}

// StepCounts returns the per-hyperparameter step counts of the plan,
// defaulting a discrete axis with no explicit steps to its full value set.
func (e Experiment) StepCounts() map[string]int {
	steps := make(map[string]int, len(e.Hyperparameters))
	for _, hp := range e.Hyperparameters {
		n := hp.Steps
		if n == 0 && len(hp.Values) > 0 {
			n = len(hp.Values)
		}
		steps[hp.Name] = n
	}
	return steps
}

// Clone returns a deep copy of the template. Builders mutate clones only;
// the loaded template itself is never written after orchestration starts.
func (t Template) Clone() Template {
	out := make(Template, len(t))
	for name, stage := range t {
		out[name] = stage.Clone()
	}
	return out
}

func (s Stage) Clone() Stage {
	return Stage{Meta: s.Meta, Params: cloneMap(s.Params)}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		return v
	}
}
