// Package assets maps logical bundle file names to their fingerprinted
// versions.
//
// The build writes an assets.json next to the remote entry:
//
//	{
//	  "RemoteARoot.js": "assets/RemoteARoot.3f9a1c0d.js"
//	}
//
// The remote entry file itself is never fingerprinted: hosts fetch it by the
// name declared in the federation manifest. Everything it imports is, so those
// files can be served with immutable cache headers.
package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

// FileName is the name of the asset map written by the build.
const FileName = "assets.json"

// Dir is the bundle subdirectory holding fingerprinted files.
const Dir = "assets"

// Map holds the mapping from logical names to fingerprinted paths.
// It is safe for concurrent use.
type Map struct {
	entries map[string]string
	mu      sync.RWMutex
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{
		entries: make(map[string]string),
	}
}

// Parse decodes an asset map from JSON.
func Parse(data []byte) (*Map, error) {
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	return &Map{entries: entries}, nil
}

// Load reads an assets.json file.
func Load(file string) (*Map, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Marshal encodes the map as indented JSON.
func (m *Map) Marshal() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteFile writes the map as indented JSON.
func (m *Map) WriteFile(file string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(file, data, 0o644)
}

// Resolve returns the fingerprinted path for the given name.
// If not found, returns the name unchanged.
func (m *Map) Resolve(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if resolved, ok := m.entries[name]; ok {
		return resolved
	}
	return name
}

// Has returns true if the map contains the given name.
func (m *Map) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[name]
	return ok
}

// Set adds or updates an entry.
func (m *Map) Set(name, resolved string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[name] = resolved
}

// Len returns the number of entries.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Files returns the fingerprinted paths in sorted order.
func (m *Map) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]string, 0, len(m.entries))
	for _, v := range m.entries {
		files = append(files, v)
	}
	sort.Strings(files)
	return files
}

// IsFingerprinted reports whether a bundle-relative path is one of the
// fingerprinted files of the map.
func (m *Map) IsFingerprinted(p string) bool {
	p = strings.TrimPrefix(p, "/")
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, v := range m.entries {
		if v == p {
			return true
		}
	}
	return false
}

// Fingerprint returns the bundle-relative path for content stored under
// name: "RemoteARoot.js" becomes "assets/RemoteARoot.<hash>.js", where hash is
// the first 8 hex digits of the content's SHA-256.
func Fingerprint(name string, content []byte) string {
	sum := sha256.Sum256(content)
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return path.Join(Dir, base+"."+hex.EncodeToString(sum[:4])+ext)
}
