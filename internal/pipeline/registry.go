// Package pipeline wires concrete pipeline implementations to the names a
// template's model meta refers to.
package pipeline

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gridsweep/gridsweep/internal/experiment"
)

// Registry maps a manager name (the template's model.meta.manager) to the
// factory that builds its pipeline components.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]experiment.PipelineFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]experiment.PipelineFactory)}
}

func (r *Registry) Register(name string, factory experiment.PipelineFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

func (r *Registry) Lookup(name string) (experiment.PipelineFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("no pipeline registered for manager %q (registered: %v)", name, r.names())
	}
	return factory, nil
}

// Names returns the registered manager names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Default is the process-wide registry the CLI resolves against.
var Default = NewRegistry()

func init() {
	Default.Register("smoke", SmokeFactory{})
}
