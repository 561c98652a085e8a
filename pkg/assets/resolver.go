package assets

// Resolver provides asset URL resolution.
type Resolver interface {
	// Asset resolves a logical name to its URL path.
	Asset(name string) string
}

// mapResolver wraps a Map to implement Resolver.
type mapResolver struct {
	m      *Map
	prefix string
}

// NewResolver creates a Resolver from a Map with a URL prefix.
//
//	resolver := assets.NewResolver(m, "/")
//	resolver.Asset("RemoteARoot.js") // "/assets/RemoteARoot.3f9a1c0d.js"
func NewResolver(m *Map, prefix string) Resolver {
	return &mapResolver{m: m, prefix: prefix}
}

func (r *mapResolver) Asset(name string) string {
	return r.prefix + r.m.Resolve(name)
}
