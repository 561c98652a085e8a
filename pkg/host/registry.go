package host

import (
	"log/slog"
	"sort"
	"sync"

	perrors "github.com/green-ecolution/demo-plugin/internal/errors"
	"github.com/green-ecolution/demo-plugin/pkg/federation"
	"github.com/green-ecolution/demo-plugin/pkg/vdom"
)

// Provider is a plugin the host can instantiate components from.
// *federation.Container implements it.
type Provider interface {
	Manifest() *federation.Manifest
	Get(public string) (federation.Factory, error)
}

// Registry holds named providers. It resolves each provider's shared
// dependencies against the host scope when the provider is registered.
// It is safe for concurrent use.
type Registry struct {
	scope Scope

	mu        sync.RWMutex
	providers map[string]registered

	logger *slog.Logger
}

type registered struct {
	provider Provider
	shared   []federation.Resolution
}

// NewRegistry creates a registry for a host providing scope.
func NewRegistry(scope Scope) *Registry {
	return &Registry{
		scope:     scope,
		providers: make(map[string]registered),
		logger:    slog.Default().With("component", "host-registry"),
	}
}

// Register validates p's manifest, resolves its shared dependencies and adds
// it under the manifest name.
func (r *Registry) Register(p Provider) ([]federation.Resolution, error) {
	m := p.Manifest()
	if err := m.Validate(); err != nil {
		return nil, err
	}

	shared, err := m.ResolveShared(r.scope)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[m.Name]; exists {
		return nil, perrors.New("P034").WithDetailf("%q", m.Name)
	}
	r.providers[m.Name] = registered{provider: p, shared: shared}

	for _, res := range shared {
		if res.Strategy == federation.UsePrivate {
			r.logger.Warn("shared dependency not served by host",
				"remote", m.Name,
				"dependency", res.Name,
				"reason", res.Reason)
		}
	}
	r.logger.Info("remote registered", "remote", m.Name)
	return shared, nil
}

// Unregister removes a provider. It reports whether one was registered.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.providers[name]
	delete(r.providers, name)
	return ok
}

// Shared returns how the named provider's shared dependencies were resolved.
func (r *Registry) Shared(name string) ([]federation.Resolution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.providers[name]
	return reg.shared, ok
}

// Instantiate mounts a fresh instance of the component the named provider
// exposes under public.
func (r *Registry) Instantiate(name, public string) (vdom.Component, error) {
	r.mu.RLock()
	reg, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, perrors.New("P016").WithDetailf("no remote named %q", name)
	}

	factory, err := reg.provider.Get(public)
	if err != nil {
		return nil, err
	}
	return factory(), nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
