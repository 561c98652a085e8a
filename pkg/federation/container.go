package federation

import (
	"sort"
	"sync"

	perrors "github.com/green-ecolution/demo-plugin/internal/errors"
	"github.com/green-ecolution/demo-plugin/pkg/vdom"
)

// Factory mounts a fresh instance of an exposed component.
type Factory func() vdom.Component

// Container binds a manifest to the factories of its internal entries.
// It is what a host talks to after loading the plugin: Get resolves a public
// import path to a factory. It is safe for concurrent use.
type Container struct {
	manifest *Manifest

	mu        sync.RWMutex
	factories map[string]Factory
}

// NewContainer creates a container for the given manifest.
func NewContainer(m *Manifest) *Container {
	return &Container{
		manifest:  m,
		factories: make(map[string]Factory),
	}
}

// Manifest returns the container's manifest.
func (c *Container) Manifest() *Manifest {
	return c.manifest
}

// Provide registers the factory for an internal entry ("./internal/counter").
func (c *Container) Provide(entry string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[entry] = f
}

// Get resolves a public import path to the factory of its component.
func (c *Container) Get(public string) (Factory, error) {
	entry, ok := c.manifest.Entry(public)
	if !ok {
		return nil, perrors.New("P016").WithDetailf("%q is not exposed by %s", public, c.manifest.Name)
	}

	c.mu.RLock()
	f, ok := c.factories[entry]
	c.mu.RUnlock()
	if !ok {
		return nil, perrors.New("P021").WithDetailf("%s -> %s", public, entry)
	}
	return f, nil
}

// Check verifies that every exposed path resolves to a factory.
func (c *Container) Check() error {
	for _, public := range c.manifest.ExposedPaths() {
		if _, err := c.Get(public); err != nil {
			return err
		}
	}
	return nil
}

// Entries returns the registered internal entries in sorted order.
func (c *Container) Entries() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]string, 0, len(c.factories))
	for e := range c.factories {
		entries = append(entries, e)
	}
	sort.Strings(entries)
	return entries
}
