package agent

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the personas available to a worker. The zero value is
// usable; NewRegistry is provided for symmetry.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register adds an agent keyed by its info ID. Duplicate IDs are rejected.
func (r *Registry) Register(a Agent) error {
	if a == nil {
		return fmt.Errorf("agent: cannot register nil agent")
	}
	info := a.Info()
	if err := info.Validate(); err != nil {
		return err
	}
	for _, tool := range a.Tools() {
		if err := tool.Validate(); err != nil {
			return fmt.Errorf("agent: %s: %w", info.ID, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.agents == nil {
		r.agents = make(map[string]Agent)
	}
	if _, exists := r.agents[info.ID]; exists {
		return fmt.Errorf("agent: duplicate registration for %s", info.ID)
	}
	r.agents[info.ID] = a
	return nil
}

// MustRegister registers an agent and panics on failure. Intended for
// startup wiring where a failure is a programming error.
func (r *Registry) MustRegister(a Agent) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Resolve returns the agent registered under id.
func (r *Registry) Resolve(id string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return nil, fmt.Errorf("agent: unknown agent %q", id)
	}
	return a, nil
}

// IDs returns the registered agent IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
