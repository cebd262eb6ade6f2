package classifier

import (
	"sort"
	"sync"

	"github.com/teranos/classdb/errors"
)

// Registry holds the classifiers known to this process.
type Registry struct {
	mu          sync.RWMutex
	classifiers map[string]Classifier
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{classifiers: make(map[string]Classifier)}
}

// Register adds c under its name. Names must be unique.
func (r *Registry) Register(c Classifier) error {
	name := c.Name()
	if name == "" {
		return errors.NewInvalidRequestError("classifier name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.classifiers[name]; exists {
		return errors.NewInvalidRequestError("classifier already registered: %s", name)
	}
	r.classifiers[name] = c
	return nil
}

// Get returns the classifier registered as name.
func (r *Registry) Get(name string) (Classifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.classifiers[name]
	if !ok {
		return nil, errors.NewNotFoundError("no classifier named %q", name)
	}
	return c, nil
}

// Resolve makes the registry usable as the backing resolver of a Cache.
func (r *Registry) Resolve(name string) (Classifier, error) {
	return r.Get(name)
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classifiers))
	for name := range r.classifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
