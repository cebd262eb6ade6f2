package classifier

import (
	"sync"
)

// Cache memoizes successful resolutions for the life of the process.
// Failures are not remembered, so a classifier that appears later is found
// on the next lookup.
type Cache struct {
	mu       sync.Mutex
	resolver Resolver
	entries  map[string]Classifier
}

// NewCache creates a cache in front of resolver.
func NewCache(resolver Resolver) *Cache {
	return &Cache{
		resolver: resolver,
		entries:  make(map[string]Classifier),
	}
}

// Get returns the cached classifier or resolves it.
func (c *Cache) Get(name string) (Classifier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cl, ok := c.entries[name]; ok {
		return cl, nil
	}
	cl, err := c.resolver.Resolve(name)
	if err != nil {
		return nil, err
	}
	c.entries[name] = cl
	return cl, nil
}

// Len returns how many classifiers are cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
