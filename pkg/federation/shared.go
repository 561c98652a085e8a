package federation

import (
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"

	perrors "github.com/green-ecolution/demo-plugin/internal/errors"
)

// SharedDependency is a library the plugin and host agree to load once.
type SharedDependency struct {
	// Name is the module name ("react").
	Name string `json:"name"`

	// RequiredVersion is a semver constraint the host's copy must satisfy.
	// Empty accepts any version.
	RequiredVersion string `json:"requiredVersion,omitempty"`

	// Version is the version of the private copy bundled as fallback.
	Version string `json:"version,omitempty"`

	// Singleton forbids a second copy: an incompatible host version is an
	// error instead of a fallback.
	Singleton bool `json:"singleton,omitempty"`
}

// UnmarshalJSON accepts both the short form ("react") and the object form.
func (d *SharedDependency) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*d = SharedDependency{Name: name}
		return nil
	}

	type plain SharedDependency
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("shared dependency: %w", err)
	}
	*d = SharedDependency(p)
	return nil
}

// MarshalJSON writes the short form when only the name is set.
func (d SharedDependency) MarshalJSON() ([]byte, error) {
	if d.RequiredVersion == "" && d.Version == "" && !d.Singleton {
		return json.Marshal(d.Name)
	}
	type plain SharedDependency
	return json.Marshal(plain(d))
}

// HostScope maps shared module names to the versions the host provides.
type HostScope map[string]string

// Strategy is the outcome of resolving one shared dependency.
type Strategy int

const (
	// UseHost means the host's copy is used.
	UseHost Strategy = iota
	// UsePrivate means the plugin loads its own bundled copy.
	UsePrivate
)

// String returns the string representation of the Strategy.
func (s Strategy) String() string {
	switch s {
	case UseHost:
		return "host"
	case UsePrivate:
		return "private"
	default:
		return "unknown"
	}
}

// Resolution records how one shared dependency was resolved.
type Resolution struct {
	Name     string
	Strategy Strategy
	// Version is the version that will be loaded; empty when unknown.
	Version string
	// Reason explains a UsePrivate outcome.
	Reason string
}

// ResolveShared resolves every shared dependency against the host scope.
//
// A dependency uses the host's copy when the host provides it and the
// version satisfies RequiredVersion (or no constraint is given). Otherwise the
// plugin falls back to its private copy, except for singletons, where an
// incompatible host version is reported as error P032. A singleton the host
// does not provide at all still falls back.
func (m *Manifest) ResolveShared(scope HostScope) ([]Resolution, error) {
	out := make([]Resolution, 0, len(m.Shared))

	for _, dep := range m.Shared {
		res, err := resolveOne(dep, scope)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}

	return out, nil
}

func resolveOne(dep SharedDependency, scope HostScope) (Resolution, error) {
	private := Resolution{Name: dep.Name, Strategy: UsePrivate, Version: dep.Version}

	hostVersion, ok := scope[dep.Name]
	if !ok {
		private.Reason = "not provided by host"
		return private, nil
	}

	if dep.RequiredVersion == "" {
		return Resolution{Name: dep.Name, Strategy: UseHost, Version: hostVersion}, nil
	}

	constraint, err := semver.NewConstraint(dep.RequiredVersion)
	if err != nil {
		return Resolution{}, perrors.New("P015").WithDetailf("%s: %q", dep.Name, dep.RequiredVersion).Wrap(err)
	}

	v, err := semver.NewVersion(hostVersion)
	if err != nil {
		if dep.Singleton {
			return Resolution{}, perrors.New("P032").
				WithDetailf("%s: host version %q is not a semantic version", dep.Name, hostVersion)
		}
		private.Reason = fmt.Sprintf("host version %q is not a semantic version", hostVersion)
		return private, nil
	}

	if !constraint.Check(v) {
		if dep.Singleton {
			return Resolution{}, perrors.New("P032").
				WithDetailf("%s: host provides %s, plugin requires %s", dep.Name, hostVersion, dep.RequiredVersion)
		}
		private.Reason = fmt.Sprintf("host provides %s, plugin requires %s", hostVersion, dep.RequiredVersion)
		return private, nil
	}

	return Resolution{Name: dep.Name, Strategy: UseHost, Version: hostVersion}, nil
}
