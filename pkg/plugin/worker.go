package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	perrors "github.com/green-ecolution/demo-plugin/internal/errors"
)

// HeartbeatRecorder observes heartbeat outcomes. *middleware.Metrics
// implements it.
type HeartbeatRecorder interface {
	Heartbeat(status string)
}

type workerConfig struct {
	host              *url.URL
	plugin            Plugin
	apiVersion        string
	heartbeatInterval time.Duration
	refreshLeeway     time.Duration
	client            *http.Client
	attempts          uint
	delay             time.Duration
	recorder          HeartbeatRecorder
}

// WorkerOption configures a Worker.
type WorkerOption func(*workerConfig)

// WithHost sets the host's base URL.
func WithHost(host *url.URL) WorkerOption {
	return func(c *workerConfig) {
		c.host = host
	}
}

// WithPlugin sets the descriptor that is registered.
func WithPlugin(p Plugin) WorkerOption {
	return func(c *workerConfig) {
		c.plugin = p
	}
}

// WithHostAPIVersion sets the host API version (default "v1").
func WithHostAPIVersion(version string) WorkerOption {
	return func(c *workerConfig) {
		c.apiVersion = version
	}
}

// WithHeartbeatInterval sets the heartbeat period (default 30s).
func WithHeartbeatInterval(d time.Duration) WorkerOption {
	return func(c *workerConfig) {
		c.heartbeatInterval = d
	}
}

// WithRefreshLeeway sets how long before expiry the token is renewed
// (default 1m).
func WithRefreshLeeway(d time.Duration) WorkerOption {
	return func(c *workerConfig) {
		c.refreshLeeway = d
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) WorkerOption {
	return func(c *workerConfig) {
		c.client = client
	}
}

// WithRetry sets how often registration is attempted and the initial delay
// between attempts.
func WithRetry(attempts uint, delay time.Duration) WorkerOption {
	return func(c *workerConfig) {
		if attempts == 0 {
			attempts = 1
		}
		c.attempts = attempts
		c.delay = delay
	}
}

// WithRecorder sets the heartbeat recorder.
func WithRecorder(r HeartbeatRecorder) WorkerOption {
	return func(c *workerConfig) {
		c.recorder = r
	}
}

// Worker talks to the host API on behalf of the plugin.
type Worker struct {
	cfg    workerConfig
	tracer trace.Tracer

	mu           sync.Mutex
	token        *Token
	clientID     string
	clientSecret string

	logger *slog.Logger
}

// NewWorker creates a worker. The host URL and a valid descriptor are
// required.
func NewWorker(opts ...WorkerOption) (*Worker, error) {
	cfg := workerConfig{
		apiVersion:        "v1",
		heartbeatInterval: 30 * time.Second,
		refreshLeeway:     time.Minute,
		client:            &http.Client{Timeout: 15 * time.Second},
		attempts:          5,
		delay:             time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.host == nil || cfg.host.Host == "" {
		return nil, perrors.New("P004").WithDetail("host URL is required")
	}
	if err := cfg.plugin.Validate(); err != nil {
		return nil, err
	}
	if cfg.heartbeatInterval <= 0 {
		return nil, perrors.Newf(perrors.CategoryConfig, "heartbeat interval must be positive, got %s", cfg.heartbeatInterval)
	}

	return &Worker{
		cfg:    cfg,
		tracer: otel.Tracer("demo-plugin/plugin"),
		logger: slog.Default().With("component", "plugin-worker", "slug", cfg.plugin.Slug),
	}, nil
}

// Plugin returns the registered descriptor.
func (w *Worker) Plugin() Plugin {
	return w.cfg.plugin
}

// Token returns the current token, or nil before registration.
func (w *Worker) Token() *Token {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.token
}

func (w *Worker) endpoint(elem ...string) string {
	return w.cfg.host.JoinPath(append([]string{"api", w.cfg.apiVersion, "plugin"}, elem...)...).String()
}

type registerRequest struct {
	Plugin
	Auth registerAuth `json:"auth"`
}

type registerAuth struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// MarshalJSON flattens the descriptor next to the auth block.
func (r registerRequest) MarshalJSON() ([]byte, error) {
	desc, err := json.Marshal(r.Plugin)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(desc, &fields); err != nil {
		return nil, err
	}
	fields["auth"] = r.Auth
	return json.Marshal(fields)
}

// Register registers the plugin with the host and stores the returned
// token. Transport errors and 5xx responses are retried.
func (w *Worker) Register(ctx context.Context, clientID, clientSecret string) (*Token, error) {
	if clientID == "" || clientSecret == "" {
		return nil, perrors.New("P003")
	}

	ctx, span := w.tracer.Start(ctx, "plugin.register",
		trace.WithAttributes(attribute.String("plugin.slug", w.cfg.plugin.Slug)))
	defer span.End()

	body, err := json.Marshal(registerRequest{
		Plugin: w.cfg.plugin,
		Auth:   registerAuth{ClientID: clientID, ClientSecret: clientSecret},
	})
	if err != nil {
		return nil, perrors.New("P040").Wrap(err)
	}

	var (
		token  Token
		status int
	)
	err = retry.Do(
		func() error {
			status = 0
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint(), bytes.NewReader(body))
			if err != nil {
				return perrors.New("P040").Wrap(err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json")

			resp, err := w.cfg.client.Do(req)
			if err != nil {
				return perrors.New("P040").Wrap(err)
			}
			defer resp.Body.Close()

			status = resp.StatusCode
			if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
				return perrors.New("P040").WithDetailf("POST %s: %s%s", w.endpoint(), resp.Status, responseDetail(resp.Body))
			}
			token = Token{}
			if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
				return perrors.New("P042").Wrap(err)
			}
			if token.AccessToken == "" {
				return perrors.New("P042").WithDetail("empty access token")
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(w.cfg.attempts),
		retry.Delay(w.cfg.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				return false
			}
			return status == 0 || status >= 500 || status == http.StatusTooManyRequests
		}),
		retry.OnRetry(func(n uint, err error) {
			w.logger.Warn("registration failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "registration failed")
		return nil, err
	}

	token.setExpiry(time.Now())

	w.mu.Lock()
	w.token = &token
	w.clientID = clientID
	w.clientSecret = clientSecret
	w.mu.Unlock()

	w.logger.Info("plugin registered",
		"host", w.cfg.host.String(),
		"expires", token.Expiry)
	return &token, nil
}

// Heartbeat posts one heartbeat with the current token.
func (w *Worker) Heartbeat(ctx context.Context) error {
	token := w.Token()
	if token == nil {
		return perrors.New("P041").WithDetail("plugin is not registered")
	}

	ctx, span := w.tracer.Start(ctx, "plugin.heartbeat")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint(w.cfg.plugin.Slug, "heartbeat"), nil)
	if err != nil {
		return perrors.New("P041").Wrap(err)
	}
	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	req.Header.Set("Authorization", tokenType+" "+token.AccessToken)

	resp, err := w.cfg.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return perrors.New("P041").Wrap(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return perrors.New("P042").WithDetail(resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		span.SetStatus(codes.Error, resp.Status)
		return perrors.New("P041").WithDetailf("%s%s", resp.Status, responseDetail(resp.Body))
	}
	return nil
}

// RunHeartbeat sends a heartbeat every interval until ctx is done. The
// token is renewed before it expires and after the host rejects it. Failed
// heartbeats are logged and recorded; they do not stop the loop.
func (w *Worker) RunHeartbeat(ctx context.Context) error {
	if w.Token() == nil {
		return perrors.New("P041").WithDetail("plugin is not registered")
	}

	ticker := time.NewTicker(w.cfg.heartbeatInterval)
	defer ticker.Stop()

	w.logger.Info("heartbeat started", "interval", w.cfg.heartbeatInterval)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("heartbeat stopped")
			return nil
		case <-ticker.C:
			w.beat(ctx)
		}
	}
}

// beat runs one heartbeat, renewing the token when needed.
func (w *Worker) beat(ctx context.Context) {
	if !w.Token().Valid(time.Now(), w.cfg.refreshLeeway) {
		if err := w.reregister(ctx); err != nil {
			w.record("error")
			w.logger.Error("token renewal failed", "error", err)
			return
		}
	}

	err := w.Heartbeat(ctx)
	var pe *perrors.PluginError
	if stderrors.As(err, &pe) && pe.Code == "P042" {
		w.logger.Warn("heartbeat rejected, registering again", "error", err)
		if err = w.reregister(ctx); err == nil {
			err = w.Heartbeat(ctx)
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.record("error")
		w.logger.Error("heartbeat failed", "error", err)
		return
	}
	w.record("ok")
	w.logger.Debug("heartbeat sent")
}

func (w *Worker) reregister(ctx context.Context) error {
	w.mu.Lock()
	id, secret := w.clientID, w.clientSecret
	w.mu.Unlock()
	_, err := w.Register(ctx, id, secret)
	return err
}

func (w *Worker) record(status string) {
	if w.cfg.recorder != nil {
		w.cfg.recorder.Heartbeat(status)
	}
}

// responseDetail returns a short excerpt of an error response body.
func responseDetail(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 256))
	if len(bytes.TrimSpace(data)) == 0 {
		return ""
	}
	return fmt.Sprintf(" (%s)", bytes.TrimSpace(data))
}
