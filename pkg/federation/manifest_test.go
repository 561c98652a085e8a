package federation

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	perrors "github.com/green-ecolution/demo-plugin/internal/errors"
)

func TestDefaultManifest(t *testing.T) {
	m := Default()

	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if m.Name != "demo_plugin" || m.Filename != "plugin.js" {
		t.Errorf("got name %q filename %q", m.Name, m.Filename)
	}
	if entry, ok := m.Entry("./RemoteARoot"); !ok || entry != RootEntry {
		t.Errorf("Entry(./RemoteARoot) = %q, %v", entry, ok)
	}
	want := []string{"react", "react-dom", "@green-ecolution/plugin-interface"}
	if got := m.SharedNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("SharedNames() = %v, want %v", got, want)
	}
}

func TestParseShortAndLongSharedForms(t *testing.T) {
	data := `{
	  "name": "demo_plugin",
	  "filename": "plugin.js",
	  "exposes": {"./RemoteARoot": "./internal/counter"},
	  "shared": ["react", {"name": "react-dom", "requiredVersion": "^18.2.0", "version": "18.2.0", "singleton": true}]
	}`

	m, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(m.Shared) != 2 {
		t.Fatalf("len(Shared) = %d, want 2", len(m.Shared))
	}
	if m.Shared[0] != (SharedDependency{Name: "react"}) {
		t.Errorf("Shared[0] = %+v", m.Shared[0])
	}
	want := SharedDependency{Name: "react-dom", RequiredVersion: "^18.2.0", Version: "18.2.0", Singleton: true}
	if m.Shared[1] != want {
		t.Errorf("Shared[1] = %+v, want %+v", m.Shared[1], want)
	}

	out, err := m.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(out), `"react",`) {
		t.Errorf("short form should be preserved, got\n%s", out)
	}
	if !strings.Contains(string(out), `"requiredVersion": "^18.2.0"`) {
		t.Errorf("long form should be preserved, got\n%s", out)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(m *Manifest)
		code   string
	}{
		{"empty name", func(m *Manifest) { m.Name = "" }, "P010"},
		{"name with dash", func(m *Manifest) { m.Name = "demo-plugin" }, "P010"},
		{"name starting with digit", func(m *Manifest) { m.Name = "1plugin" }, "P010"},
		{"empty filename", func(m *Manifest) { m.Filename = "" }, "P011"},
		{"filename with dir", func(m *Manifest) { m.Filename = "dist/plugin.js" }, "P011"},
		{"filename not js", func(m *Manifest) { m.Filename = "plugin.mjs" }, "P011"},
		{"filename only extension", func(m *Manifest) { m.Filename = ".js" }, "P011"},
		{"no exposes", func(m *Manifest) { m.Exposes = nil }, "P012"},
		{"exposed path without dot slash", func(m *Manifest) { m.Exposes = map[string]string{"RemoteARoot": "x"} }, "P013"},
		{"exposed path bare", func(m *Manifest) { m.Exposes = map[string]string{"./": "x"} }, "P013"},
		{"exposed empty entry", func(m *Manifest) { m.Exposes = map[string]string{"./A": ""} }, "P013"},
		{"shared empty name", func(m *Manifest) { m.Shared = append(m.Shared, SharedDependency{}) }, "P014"},
		{"shared duplicate", func(m *Manifest) { m.Shared = append(m.Shared, SharedDependency{Name: "react"}) }, "P014"},
		{"bad constraint", func(m *Manifest) { m.Shared[0].RequiredVersion = "not a range" }, "P015"},
		{"bad version", func(m *Manifest) { m.Shared[0].Version = "x.y" }, "P015"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Default()
			tt.modify(m)

			err := m.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !stderrors.Is(err, perrors.New(tt.code)) {
				t.Errorf("Validate() = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("not json")); !stderrors.Is(err, perrors.New("P017")) {
		t.Errorf("Parse(invalid) = %v, want P017", err)
	}
	if _, err := Parse([]byte(`{"name":"a","filename":"a.js","exposes":{"./A":"a"},"extra":1}`)); !stderrors.Is(err, perrors.New("P017")) {
		t.Errorf("Parse(unknown field) = %v, want P017", err)
	}
	if _, err := Parse([]byte(`{"name":"a","filename":"a.js","exposes":{}}`)); !stderrors.Is(err, perrors.New("P012")) {
		t.Errorf("Parse(no exposes) = %v, want P012", err)
	}
}

func TestWriteFileAndLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "manifest.json")

	if err := Default().WriteFile(file); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	m, err := Load(file)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(m, Default()) {
		t.Errorf("Load() = %+v, want %+v", m, Default())
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Load() should fail for a missing file")
	}

	if err := Default().WriteFile(filepath.Join(dir, "nope", "manifest.json")); !stderrors.Is(err, perrors.New("P020")) {
		t.Errorf("WriteFile() into missing dir = %v, want P020", err)
	}
	_ = os.Remove(file)
}

func TestExposedPathsSorted(t *testing.T) {
	m := Default()
	m.Exposes["./Zeta"] = "./z"
	m.Exposes["./Alpha"] = "./a"

	want := []string{"./Alpha", "./RemoteARoot", "./Zeta"}
	if got := m.ExposedPaths(); !reflect.DeepEqual(got, want) {
		t.Errorf("ExposedPaths() = %v, want %v", got, want)
	}
}

func TestChunkName(t *testing.T) {
	tests := map[string]string{
		"./RemoteARoot":   "RemoteARoot",
		"./widgets/Chart": "widgets_Chart",
		"./v1.Button":     "v1_Button",
	}
	for in, want := range tests {
		if got := ChunkName(in); got != want {
			t.Errorf("ChunkName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestManifestFromEntry(t *testing.T) {
	m := Default()
	line, err := EntryManifestLine(m)
	if err != nil {
		t.Fatal(err)
	}
	src := "// header\n" + line + "\n\nexport function init() {}\n"

	got, err := ManifestFromEntry([]byte(src))
	if err != nil {
		t.Fatalf("ManifestFromEntry() error = %v", err)
	}
	if !got.Equal(m) {
		t.Errorf("embedded manifest = %+v, want %+v", got, m)
	}

	if _, err := ManifestFromEntry([]byte("export function init() {}\n")); err == nil {
		t.Error("ManifestFromEntry() should fail without a manifest line")
	}
}

func TestManifestEqual(t *testing.T) {
	a, b := Default(), Default()
	if !a.Equal(b) {
		t.Error("two default manifests should be equal")
	}
	b.Exposes["./Other"] = "./internal/other"
	if a.Equal(b) {
		t.Error("manifests with different exposes should differ")
	}
	var nilManifest *Manifest
	if nilManifest.Equal(a) {
		t.Error("nil manifest should not equal a value")
	}
}
