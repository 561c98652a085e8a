package host

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"

	perrors "github.com/green-ecolution/demo-plugin/internal/errors"
	"github.com/green-ecolution/demo-plugin/pkg/assets"
	"github.com/green-ecolution/demo-plugin/pkg/federation"
)

// maxFileSize bounds every file fetched from a remote.
const maxFileSize = 8 << 20

// Scope is the set of shared modules the host provides, by name and version.
type Scope = federation.HostScope

// Loader fetches remotes over HTTP.
type Loader struct {
	client   *http.Client
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient sets the HTTP client used for fetches.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) {
		l.client = c
	}
}

// WithRetry sets how often a failed fetch is attempted and the initial
// delay between attempts. Client errors (4xx) are never retried.
func WithRetry(attempts uint, delay time.Duration) LoaderOption {
	return func(l *Loader) {
		if attempts == 0 {
			attempts = 1
		}
		l.attempts = attempts
		l.delay = delay
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		client:   &http.Client{Timeout: 30 * time.Second},
		attempts: 3,
		delay:    200 * time.Millisecond,
		logger:   slog.Default().With("component", "host-loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Remote is a loaded remote bundle.
type Remote struct {
	// Base is the URL the bundle is served under, ending in "/".
	Base *url.URL

	// Manifest is the remote's federation manifest.
	Manifest *federation.Manifest

	// Assets is the remote's chunk map.
	Assets *assets.Map

	// Entry is the source of the remote entry.
	Entry []byte

	loader *Loader
}

// Load fetches and verifies the remote served under base.
func (l *Loader) Load(ctx context.Context, base string) (*Remote, error) {
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, perrors.New("P004").WithDetailf("%q", base)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	data, err := l.fetch(ctx, u.JoinPath("manifest.json"))
	if err != nil {
		return nil, err
	}
	m, err := federation.Parse(data)
	if err != nil {
		return nil, err
	}

	data, err = l.fetch(ctx, u.JoinPath(assets.FileName))
	if err != nil {
		return nil, err
	}
	am, err := assets.Parse(data)
	if err != nil {
		return nil, perrors.New("P017").WithDetail(assets.FileName).Wrap(err)
	}

	entry, err := l.fetch(ctx, u.JoinPath(m.Filename))
	if err != nil {
		return nil, err
	}

	r := &Remote{Base: u, Manifest: m, Assets: am, Entry: entry, loader: l}
	if err := r.verify(); err != nil {
		return nil, err
	}

	l.logger.Info("remote loaded",
		"name", m.Name,
		"base", u.String(),
		"exposes", len(m.Exposes))
	return r, nil
}

// verify checks the remote entry against the manifest.
func (r *Remote) verify() error {
	embedded, err := federation.ManifestFromEntry(r.Entry)
	if err != nil {
		return perrors.New("P033").WithDetail(r.Manifest.Filename).Wrap(err)
	}
	if !embedded.Equal(r.Manifest) {
		return perrors.New("P033").WithDetailf("%s embeds a different manifest", r.Manifest.Filename)
	}
	for _, public := range r.Manifest.ExposedPaths() {
		name := federation.ChunkName(public) + ".js"
		if !r.Assets.Has(name) {
			return perrors.New("P033").WithDetailf("no chunk for %s", public)
		}
		if !strings.Contains(string(r.Entry), `"./`+r.Assets.Resolve(name)+`"`) {
			return perrors.New("P033").WithDetailf("%s does not import the chunk of %s", r.Manifest.Filename, public)
		}
	}
	return nil
}

// Resolve returns the absolute URL of the chunk for an exposed module. This
// is what a host's dynamic import of the module ends up loading.
func (r *Remote) Resolve(public string) (string, error) {
	if _, ok := r.Manifest.Entry(public); !ok {
		return "", perrors.New("P016").WithDetailf("%q is not exposed by %s", public, r.Manifest.Name)
	}
	chunk := r.Assets.Resolve(federation.ChunkName(public) + ".js")
	return r.Base.JoinPath(chunk).String(), nil
}

// EntryURL returns the absolute URL of the remote entry.
func (r *Remote) EntryURL() string {
	return r.Base.JoinPath(r.Manifest.Filename).String()
}

// Fetch downloads the chunk for an exposed module.
func (r *Remote) Fetch(ctx context.Context, public string) ([]byte, error) {
	raw, err := r.Resolve(public)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, perrors.New("P004").WithDetail(raw).Wrap(err)
	}
	return r.loader.fetch(ctx, u)
}

// Negotiate resolves the remote's shared dependencies against the host scope.
func (r *Remote) Negotiate(scope Scope) ([]federation.Resolution, error) {
	return r.Manifest.ResolveShared(scope)
}

// fetch GETs u, retrying transport errors and 5xx responses.
func (l *Loader) fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	var (
		body   []byte
		status int
	)

	err := retry.Do(
		func() error {
			status = 0
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
			if err != nil {
				return perrors.New("P030").WithDetail(u.String()).Wrap(err)
			}

			resp, err := l.client.Do(req)
			if err != nil {
				return perrors.New("P030").WithDetail(u.String()).Wrap(err)
			}
			defer resp.Body.Close()

			status = resp.StatusCode
			if resp.StatusCode != http.StatusOK {
				return perrors.New("P031").WithDetailf("GET %s: %s", u, resp.Status)
			}

			body, err = io.ReadAll(io.LimitReader(resp.Body, maxFileSize+1))
			if err != nil {
				return perrors.New("P030").WithDetail(u.String()).Wrap(err)
			}
			if len(body) > maxFileSize {
				return perrors.New("P030").WithDetailf("%s exceeds %d bytes", u, maxFileSize)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(l.attempts),
		retry.Delay(l.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				return false
			}
			return status == 0 || status >= 500 || status == http.StatusTooManyRequests
		}),
		retry.OnRetry(func(n uint, err error) {
			l.logger.Warn("fetch failed, retrying",
				"url", u.String(),
				"attempt", n+1,
				"error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Path, err)
	}
	return body, nil
}
