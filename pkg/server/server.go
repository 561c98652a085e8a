package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/green-ecolution/demo-plugin/internal/build"
	"github.com/green-ecolution/demo-plugin/pkg/federation"
	"github.com/green-ecolution/demo-plugin/pkg/middleware"
	"github.com/green-ecolution/demo-plugin/pkg/render"
)

// Server is the HTTP/WebSocket server of the plugin.
type Server struct {
	config    *ServerConfig
	bundle    *build.Bundle
	container *federation.Container
	sessions  *SessionManager
	renderer  *render.Renderer
	upgrader  websocket.Upgrader
	handler   http.Handler

	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a server for a built bundle. container provides the
// components live sessions mount; it must hold the bundle's manifest.
func New(config *ServerConfig, bundle *build.Bundle, container *federation.Container) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	config.fillDefaults()

	logger := slog.Default().With("component", "server")

	s := &Server{
		config:    config,
		bundle:    bundle,
		container: container,
		sessions:  NewSessionManager(config.MaxSessions, logger),
		renderer:  render.NewRenderer(render.RendererConfig{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: logger,
	}
	s.handler = s.routes()
	return s
}

// routes builds the chi router.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	if s.config.Metrics != nil {
		r.Use(s.config.Metrics.Handler)
	}
	if s.config.TracerName != "" {
		r.Use(middleware.Tracing(
			middleware.WithTracerName(s.config.TracerName),
			middleware.WithRequestFilter(func(r *http.Request) bool {
				return r.URL.Path != "/metrics" && r.URL.Path != "/healthz"
			}),
		))
	}

	r.Get("/", s.handleGreeting)
	r.Get("/healthz", s.handleHealth)
	if s.config.MetricsHandler != nil {
		r.Handle("/metrics", s.config.MetricsHandler)
	}
	r.Get("/preview", s.handlePreview)
	r.Get("/live", s.HandleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(s.cors)
		r.Get("/"+s.bundle.Entry(), s.handleBundleFile)
		r.Get("/"+build.ManifestFile, s.handleBundleFile)
		r.Get("/assets.json", s.handleBundleFile)
		r.Get("/assets/*", s.handleBundleFile)
	})

	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			"address", s.config.Address,
			"entry", s.bundle.Entry(),
			"version", s.config.Version)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes all sessions and shuts the HTTP server down.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.sessions.Shutdown()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Config returns the server configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}

// Bundle returns the bundle being served.
func (s *Server) Bundle() *build.Bundle {
	return s.bundle
}

// SetLogger sets the server logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// started is the process start time; /healthz reports uptime from it.
var started = time.Now()
