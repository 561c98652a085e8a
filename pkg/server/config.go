package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/green-ecolution/demo-plugin/pkg/middleware"
)

// SessionConfig holds configuration for live sessions.
type SessionConfig struct {
	// ReadTimeout is the maximum time to wait for a message or pong from
	// the client. Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// PingInterval is the time between pings. Must be shorter than
	// ReadTimeout. Default: 25 seconds.
	PingInterval time.Duration

	// MaxMessageSize is the maximum size of an incoming message.
	// Default: 4KB.
	MaxMessageSize int64

	// SendBuffer is the size of the outgoing message queue.
	// Default: 16.
	SendBuffer int
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		PingInterval:   25 * time.Second,
		MaxMessageSize: 4 * 1024,
		SendBuffer:     16,
	}
}

// ServerConfig holds configuration for the plugin server.
type ServerConfig struct {
	// Address is the listen address (e.g., ":8080").
	Address string

	// PluginName is shown in the greeting and the preview page.
	PluginName string

	// Version is reported by /healthz.
	Version string

	// ReadBufferSize and WriteBufferSize size the websocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// AllowedOrigins lists the origins that may open live sessions and
	// load the bundle cross-origin. Empty allows any origin.
	AllowedOrigins []string

	// CheckOrigin overrides the origin check for live sessions.
	CheckOrigin func(r *http.Request) bool

	// SessionConfig configures live sessions.
	SessionConfig *SessionConfig

	// MaxSessions limits concurrent live sessions. 0 means no limit.
	MaxSessions int

	// ShutdownTimeout bounds graceful shutdown. Default: 10 seconds.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout and IdleTimeout are passed to http.Server.
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration

	// Metrics records request and session metrics. Nil disables them.
	Metrics *middleware.Metrics

	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler

	// TracerName names the OpenTelemetry tracer. Empty disables tracing.
	TracerName string
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           ":8080",
		PluginName:        "CSV Import",
		Version:           "dev",
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		SessionConfig:     DefaultSessionConfig(),
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		TracerName:        "demo-plugin",
	}
}

// fillDefaults sets unset fields from DefaultServerConfig.
func (c *ServerConfig) fillDefaults() {
	defaults := DefaultServerConfig()
	if c.Address == "" {
		c.Address = defaults.Address
	}
	if c.PluginName == "" {
		c.PluginName = defaults.PluginName
	}
	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = defaults.ReadBufferSize
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = defaults.WriteBufferSize
	}
	if c.SessionConfig == nil {
		c.SessionConfig = defaults.SessionConfig
	}
	sc := c.SessionConfig
	ds := defaults.SessionConfig
	if sc.ReadTimeout == 0 {
		sc.ReadTimeout = ds.ReadTimeout
	}
	if sc.WriteTimeout == 0 {
		sc.WriteTimeout = ds.WriteTimeout
	}
	if sc.PingInterval == 0 || sc.PingInterval >= sc.ReadTimeout {
		sc.PingInterval = sc.ReadTimeout * 9 / 10
	}
	if sc.MaxMessageSize == 0 {
		sc.MaxMessageSize = ds.MaxMessageSize
	}
	if sc.SendBuffer == 0 {
		sc.SendBuffer = ds.SendBuffer
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = defaults.IdleTimeout
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = OriginAllowlist(c.AllowedOrigins)
	}
}

// SameOriginCheck validates that the request origin matches the host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && originURL.Host == r.Host
}

// OriginAllowlist returns an origin check that accepts same-origin requests
// and the listed origins. An empty list accepts any origin: a plugin is
// normally embedded by a host served from somewhere else.
func OriginAllowlist(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		if SameOriginCheck(r) {
			return true
		}
		return allowed[r.Header.Get("Origin")]
	}
}
