package federation

import (
	"bytes"
	"encoding/json"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	perrors "github.com/green-ecolution/demo-plugin/internal/errors"
)

const (
	// DefaultName is the plugin identifier hosts register the remote under.
	DefaultName = "demo_plugin"

	// DefaultFilename is the remote entry file produced by the build.
	DefaultFilename = "plugin.js"

	// RootModule is the stable public import path of the counter component.
	// Hosts import against this name; renaming the internal component must
	// not change it.
	RootModule = "./RemoteARoot"

	// RootEntry is the internal entry point RootModule maps to.
	RootEntry = "./internal/counter"
)

// DefaultShared lists the dependencies the plugin expects the host to supply.
var DefaultShared = []string{"react", "react-dom", "@green-ecolution/plugin-interface"}

var nameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Manifest is the federation manifest of a plugin.
type Manifest struct {
	// Name is the plugin identifier.
	Name string `json:"name"`

	// Filename is the remote entry file name, relative to the bundle root.
	Filename string `json:"filename"`

	// Exposes maps public import paths ("./RemoteARoot") to internal entries.
	Exposes map[string]string `json:"exposes"`

	// Shared lists dependencies shared with the host by identity.
	Shared []SharedDependency `json:"shared,omitempty"`
}

// Default returns the manifest of the demo plugin.
func Default() *Manifest {
	m := &Manifest{
		Name:     DefaultName,
		Filename: DefaultFilename,
		Exposes:  map[string]string{RootModule: RootEntry},
	}
	for _, name := range DefaultShared {
		m.Shared = append(m.Shared, SharedDependency{Name: name})
	}
	return m
}

// Parse decodes and validates a manifest.
func Parse(data []byte) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, perrors.New("P017").Wrap(err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and validates a manifest file.
func Load(file string) (*Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, perrors.New("P017").WithDetail(file).Wrap(err)
	}
	return Parse(data)
}

// Marshal encodes the manifest as indented JSON.
func (m *Manifest) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteFile writes the manifest as JSON to file.
func (m *Manifest) WriteFile(file string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return perrors.New("P020").WithDetail(file).Wrap(err)
	}
	return nil
}

// Validate checks the manifest for structural errors.
func (m *Manifest) Validate() error {
	if !nameRe.MatchString(m.Name) {
		return perrors.New("P010").WithDetailf("%q", m.Name)
	}

	if m.Filename == "" || path.Base(m.Filename) != m.Filename ||
		strings.ContainsAny(m.Filename, `\/`) || path.Ext(m.Filename) != ".js" || m.Filename == ".js" {
		return perrors.New("P011").WithDetailf("%q", m.Filename)
	}

	if len(m.Exposes) == 0 {
		return perrors.New("P012")
	}
	for _, public := range m.ExposedPaths() {
		if !strings.HasPrefix(public, "./") || len(public) == 2 {
			return perrors.New("P013").WithDetailf("%q", public)
		}
		if m.Exposes[public] == "" {
			return perrors.New("P013").WithDetailf("%q maps to an empty entry", public)
		}
	}

	seen := make(map[string]bool, len(m.Shared))
	for _, dep := range m.Shared {
		if dep.Name == "" {
			return perrors.New("P014").WithDetail("empty name")
		}
		if seen[dep.Name] {
			return perrors.New("P014").WithDetailf("%q listed twice", dep.Name)
		}
		seen[dep.Name] = true

		if dep.RequiredVersion != "" {
			if _, err := semver.NewConstraint(dep.RequiredVersion); err != nil {
				return perrors.New("P015").WithDetailf("%s: %q", dep.Name, dep.RequiredVersion).Wrap(err)
			}
		}
		if dep.Version != "" {
			if _, err := semver.NewVersion(dep.Version); err != nil {
				return perrors.New("P015").WithDetailf("%s: version %q", dep.Name, dep.Version).Wrap(err)
			}
		}
	}

	return nil
}

// Entry returns the internal entry for a public import path.
func (m *Manifest) Entry(public string) (string, bool) {
	entry, ok := m.Exposes[public]
	return entry, ok
}

// ExposedPaths returns the public import paths in sorted order.
func (m *Manifest) ExposedPaths() []string {
	paths := make([]string, 0, len(m.Exposes))
	for p := range m.Exposes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// SharedNames returns the names of the shared dependencies in declaration order.
func (m *Manifest) SharedNames() []string {
	names := make([]string, len(m.Shared))
	for i, dep := range m.Shared {
		names[i] = dep.Name
	}
	return names
}

// ChunkName returns the base name (without fingerprint) used for the chunk
// of an exposed module: "./RemoteARoot" becomes "RemoteARoot".
func ChunkName(public string) string {
	name := strings.TrimPrefix(public, "./")
	return strings.NewReplacer("/", "_", ".", "_").Replace(name)
}
