package replication

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/toothbrush/content-replicate/content"
	"golang.org/x/exp/maps"
)

// Target is a destination that receives copies of content.
type Target interface {
	Name() string
	Write(ctx context.Context, node *content.Node) error
	// Remove deletes what Write produced for node, and nothing else.  Missing artifacts are not an
	// error.
	Remove(ctx context.Context, node *content.Node) error
}

// Registry holds the targets a process knows about.  Callers must always name the target they
// want; there is no default.
type Registry struct {
	mu      sync.RWMutex
	targets map[string]Target
}

func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]Target)}
}

func (r *Registry) Register(t Target) error {
	if t == nil {
		return fmt.Errorf("replication: cannot register nil target")
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("replication: target has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.targets[name]; ok {
		return fmt.Errorf("replication: target '%s' already registered", name)
	}
	r.targets[name] = t
	return nil
}

func (r *Registry) Get(name string) (Target, error) {
	if name == "" {
		return nil, fmt.Errorf("replication: no target name given, choose one of %v", r.Names())
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[name]
	if !ok {
		return nil, fmt.Errorf("replication: unknown target '%s'", name)
	}
	return t, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	names := maps.Keys(r.targets)
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
