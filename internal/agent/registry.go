package agent

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Factory constructs an agent on first use. The logger is the registry's,
// named after the agent.
type Factory func(logger *zap.Logger) (Agent, error)

// Registry resolves agent names to lazily constructed, cached instances.
//
// Construction happens at most once per name per registry; every pipeline
// run through the same engine shares the same agent instances.
type Registry struct {
	mu        sync.Mutex
	logger    *zap.Logger
	factories map[string]Factory
	instances map[string]Agent
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger:    logger,
		factories: make(map[string]Factory),
		instances: make(map[string]Agent),
	}
}

// Register associates a name with a factory. Registering a name twice
// replaces the factory but not an already-constructed instance.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// RegisterInstance associates a name with an already-built agent.
func (r *Registry) RegisterInstance(a Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[a.Name()] = a
}

// Resolve returns the agent for name, constructing it on first use.
func (r *Registry) Resolve(name string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.instances[name]; ok {
		return a, nil
	}
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("no agent registered with name %q", name)
	}
	a, err := factory(r.logger.Named(name))
	if err != nil {
		return nil, fmt.Errorf("constructing agent %q: %w", name, err)
	}
	r.instances[name] = a
	return a, nil
}

// Names returns every registered name (factories and instances).
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{}, len(r.factories)+len(r.instances))
	var names []string
	for n := range r.factories {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	for n := range r.instances {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	return names
}
