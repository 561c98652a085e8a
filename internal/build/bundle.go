package build

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/green-ecolution/demo-plugin/internal/errors"
	"github.com/green-ecolution/demo-plugin/pkg/assets"
	"github.com/green-ecolution/demo-plugin/pkg/federation"
)

// ManifestFile is the name of the federation manifest inside a bundle.
const ManifestFile = "manifest.json"

// Cache-Control values for bundle files.
const (
	CacheImmutable  = "public, max-age=31536000, immutable"
	CacheRevalidate = "no-cache"
)

var contentTypes = map[string]string{
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".map":  "application/json; charset=utf-8",
	".css":  "text/css; charset=utf-8",
}

// ContentType returns the media type a bundle file is served with.
func ContentType(name string) string {
	if ct, ok := contentTypes[path.Ext(name)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Bundle is a built plugin held in memory. File names are bundle-relative
// and use forward slashes ("plugin.js", "assets/RemoteARoot.1a2b3c4d.js").
type Bundle struct {
	// Manifest is the federation manifest the bundle was built from.
	Manifest *federation.Manifest

	// Assets maps chunk names to their fingerprinted paths.
	Assets *assets.Map

	files map[string][]byte
}

func newBundle(m *federation.Manifest) *Bundle {
	return &Bundle{
		Manifest: m,
		Assets:   assets.NewMap(),
		files:    make(map[string][]byte),
	}
}

func (b *Bundle) add(name string, data []byte) {
	b.files[name] = data
}

// File returns the contents of a bundle file.
func (b *Bundle) File(name string) ([]byte, bool) {
	data, ok := b.files[strings.TrimPrefix(name, "/")]
	return data, ok
}

// Files returns the bundle's file names in sorted order.
func (b *Bundle) Files() []string {
	names := make([]string, 0, len(b.files))
	for name := range b.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Size returns the total size of all files in bytes.
func (b *Bundle) Size() int64 {
	var n int64
	for _, data := range b.files {
		n += int64(len(data))
	}
	return n
}

// Entry returns the remote entry file name.
func (b *Bundle) Entry() string {
	return b.Manifest.Filename
}

// Chunk returns the fingerprinted chunk path of an exposed module.
func (b *Bundle) Chunk(public string) (string, bool) {
	if _, ok := b.Manifest.Entry(public); !ok {
		return "", false
	}
	name := federation.ChunkName(public) + ".js"
	if !b.Assets.Has(name) {
		return "", false
	}
	return b.Assets.Resolve(name), true
}

// CacheControl returns the Cache-Control value for a bundle file.
// Fingerprinted chunks never change; everything else must be revalidated.
func (b *Bundle) CacheControl(name string) string {
	if b.Assets.IsFingerprinted(strings.TrimPrefix(name, "/")) {
		return CacheImmutable
	}
	return CacheRevalidate
}

// Write writes the bundle into dir, creating it if needed.
func (b *Bundle) Write(dir string) error {
	for _, name := range b.Files() {
		dst := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return errors.New("P020").WithDetail(dst).Wrap(err)
		}
		if err := os.WriteFile(dst, b.files[name], 0o644); err != nil {
			return errors.New("P020").WithDetail(dst).Wrap(err)
		}
	}
	return nil
}

// LoadDir reads a bundle written by Write. The remote entry must embed the
// same manifest as manifest.json, and every chunk listed in assets.json must
// be present.
func LoadDir(dir string) (*Bundle, error) {
	m, err := federation.Load(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	b := newBundle(m)
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		b.add(filepath.ToSlash(rel), data)
		return nil
	})
	if err != nil {
		return nil, errors.New("P017").WithDetail(dir).Wrap(err)
	}

	if data, ok := b.File(assets.FileName); ok {
		am, err := assets.Parse(data)
		if err != nil {
			return nil, errors.New("P017").WithDetail(assets.FileName).Wrap(err)
		}
		b.Assets = am
	}

	if err := b.Verify(); err != nil {
		return nil, err
	}
	return b, nil
}

// Verify checks that the bundle is self-consistent: the remote entry exists
// and embeds the manifest, and each exposed module has its chunk.
func (b *Bundle) Verify() error {
	src, ok := b.File(b.Entry())
	if !ok {
		return errors.New("P033").WithDetailf("remote entry %q is missing", b.Entry())
	}
	embedded, err := federation.ManifestFromEntry(src)
	if err != nil {
		return err
	}
	if !embedded.Equal(b.Manifest) {
		return errors.New("P033").WithDetailf("%s embeds a different manifest than %s", b.Entry(), ManifestFile)
	}

	for _, public := range b.Manifest.ExposedPaths() {
		chunk, ok := b.Chunk(public)
		if !ok {
			return errors.New("P033").WithDetailf("no chunk for %s", public)
		}
		if _, ok := b.File(chunk); !ok {
			return errors.New("P033").WithDetailf("chunk %s for %s is missing", chunk, public)
		}
		if !strings.Contains(string(src), `"./`+path.Clean(chunk)+`"`) {
			return errors.New("P033").WithDetailf("%s does not import %s", b.Entry(), chunk)
		}
	}
	return nil
}
