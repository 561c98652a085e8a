package build

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/green-ecolution/demo-plugin/internal/config"
	"github.com/green-ecolution/demo-plugin/internal/errors"
	"github.com/green-ecolution/demo-plugin/pkg/assets"
	"github.com/green-ecolution/demo-plugin/pkg/federation"
	"github.com/green-ecolution/demo-plugin/pkg/render"
)

// Result contains the build output.
type Result struct {
	// Duration is how long the build took.
	Duration time.Duration

	// Output is the directory the bundle was written to.
	Output string

	// Bundle is the built bundle.
	Bundle *Bundle

	// Files is the number of files written.
	Files int

	// Size is the total size of the bundle in bytes.
	Size int64
}

// Options configures the builder.
type Options struct {
	// Version is stamped into the generated files.
	Version string

	// Clean removes the output directory before writing.
	Clean bool

	// OnProgress is called with progress updates.
	OnProgress func(step string)
}

// Builder produces plugin bundles.
type Builder struct {
	config    *config.Config
	container *federation.Container
	options   Options
	renderer  *render.Renderer
	logger    *slog.Logger
}

// New creates a new builder for the components registered in container.
// The container's manifest is the one that gets built.
func New(cfg *config.Config, container *federation.Container, options Options) *Builder {
	if !options.Clean && cfg.Build.Clean {
		options.Clean = true
	}
	if options.Version == "" {
		options.Version = "dev"
	}

	return &Builder{
		config:    cfg,
		container: container,
		options:   options,
		renderer:  render.NewRenderer(render.RendererConfig{}),
		logger:    slog.Default().With("component", "build"),
	}
}

// Build builds the bundle and writes it to the configured output directory.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	bundle, err := b.Bundle(ctx)
	if err != nil {
		return nil, err
	}

	outputDir := b.config.OutputPath()
	if b.options.Clean {
		b.progress("Cleaning output directory...")
		if err := b.Clean(); err != nil {
			return nil, errors.New("P020").WithDetail(outputDir).Wrap(err)
		}
	}

	b.progress("Writing bundle...")
	if err := bundle.Write(outputDir); err != nil {
		return nil, err
	}

	result := &Result{
		Duration: time.Since(start),
		Output:   outputDir,
		Bundle:   bundle,
		Files:    len(bundle.Files()),
		Size:     bundle.Size(),
	}
	b.logger.Info("bundle written",
		"output", outputDir,
		"files", result.Files,
		"bytes", result.Size,
		"duration", result.Duration)
	return result, nil
}

// Bundle builds the bundle in memory.
func (b *Builder) Bundle(ctx context.Context) (*Bundle, error) {
	m := b.container.Manifest()

	b.progress("Validating manifest...")
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := b.container.Check(); err != nil {
		return nil, err
	}

	bundle := newBundle(m)
	entry := entryData{
		Name:    m.Name,
		Version: b.options.Version,
	}

	for _, public := range m.ExposedPaths() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.progress("Rendering " + public + "...")

		chunk, err := b.chunk(public)
		if err != nil {
			return nil, err
		}
		name := federation.ChunkName(public) + ".js"
		fingerprinted := assets.Fingerprint(name, chunk)
		bundle.add(fingerprinted, chunk)
		bundle.Assets.Set(name, fingerprinted)

		entry.Modules = append(entry.Modules, moduleRef{
			Public: quote(public),
			Chunk:  quote("./" + fingerprinted),
		})
	}

	b.progress("Writing remote entry...")
	line, err := federation.EntryManifestLine(m)
	if err != nil {
		return nil, errors.New("P020").Wrap(err)
	}
	entry.Manifest = line

	var buf bytes.Buffer
	if err := entryTemplate.Execute(&buf, entry); err != nil {
		return nil, errors.New("P020").WithDetail(m.Filename).Wrap(err)
	}
	bundle.add(m.Filename, buf.Bytes())

	manifestJSON, err := m.Marshal()
	if err != nil {
		return nil, errors.New("P020").WithDetail(ManifestFile).Wrap(err)
	}
	bundle.add(ManifestFile, manifestJSON)

	assetsJSON, err := bundle.Assets.Marshal()
	if err != nil {
		return nil, errors.New("P020").WithDetail(assets.FileName).Wrap(err)
	}
	bundle.add(assets.FileName, assetsJSON)

	return bundle, nil
}

// chunk renders the chunk module for one exposed path.
func (b *Builder) chunk(public string) ([]byte, error) {
	factory, err := b.container.Get(public)
	if err != nil {
		return nil, err
	}
	entry, _ := b.container.Manifest().Entry(public)

	comp := factory()
	snap, err := b.renderer.Snapshot(comp)
	if unmounter, ok := comp.(interface{ Unmount() }); ok {
		unmounter.Unmount()
	}
	if err != nil {
		return nil, errors.New("P020").WithDetailf("rendering %s", public).Wrap(err)
	}

	var buf bytes.Buffer
	err = chunkTemplate.Execute(&buf, chunkData{
		Public:  public,
		Entry:   entry,
		Version: b.options.Version,
		Expose:  quote(public),
		HTML:    quote(snap.HTML),
	})
	if err != nil {
		return nil, errors.New("P020").WithDetail(public).Wrap(err)
	}
	return buf.Bytes(), nil
}

// progress reports build progress.
func (b *Builder) progress(step string) {
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
	}
}

// Clean removes the build output directory.
func (b *Builder) Clean() error {
	return os.RemoveAll(b.config.OutputPath())
}

func quote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}
