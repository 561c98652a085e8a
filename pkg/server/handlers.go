package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/green-ecolution/demo-plugin/internal/build"
	"github.com/green-ecolution/demo-plugin/pkg/assets"
	"github.com/green-ecolution/demo-plugin/pkg/federation"
	"github.com/green-ecolution/demo-plugin/pkg/render"
	"github.com/green-ecolution/demo-plugin/pkg/vdom"
)

// handleGreeting names the plugin.
func (s *Server) handleGreeting(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Hello, World! This is the plugin server for %s\n", s.config.PluginName)
}

// handleHealth reports liveness and the running version.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.config.Version,
		"sessions": s.sessions.Count(),
		"uptime":   time.Since(started).Round(time.Second).String(),
	})
}

// handleBundleFile serves one file of the bundle.
func (s *Server) handleBundleFile(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")
	data, ok := s.bundle.File(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", build.ContentType(name))
	w.Header().Set("Cache-Control", s.bundle.CacheControl(name))
	sum := sha256.Sum256(data)
	w.Header().Set("ETag", `"`+hex.EncodeToString(sum[:8])+`"`)

	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
}

// handlePreview renders a page that loads the remote the way a host does.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	expose := r.URL.Query().Get("expose")
	if expose == "" {
		expose = federation.RootModule
	}
	if _, ok := s.bundle.Manifest.Entry(expose); !ok {
		http.Error(w, "module "+expose+" is not exposed", http.StatusNotFound)
		return
	}

	exposeJSON, _ := json.Marshal(expose)
	script := fmt.Sprintf(`import { init, get } from "./%s";
init({});
const factory = await get(%s);
factory().mount(document.getElementById("plugin-root"));
`, s.bundle.Entry(), exposeJSON)

	var buf bytes.Buffer
	err := s.renderer.RenderPage(&buf, render.PageData{
		Title: s.config.PluginName,
		Body: vdom.Main(
			vdom.H1(s.config.PluginName),
			vdom.Section(vdom.ID("plugin-root")),
		),
		Preload:      []string{assets.NewResolver(s.bundle.Assets, "./").Asset(federation.ChunkName(expose) + ".js")},
		InlineScript: script,
	})
	if err != nil {
		s.logger.Error("preview render error", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", build.CacheRevalidate)
	w.Write(buf.Bytes())
}

// HandleWebSocket upgrades the request and runs a live session for the
// component named by the "expose" query parameter (default ./RemoteARoot).
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	expose := r.URL.Query().Get("expose")
	if expose == "" {
		expose = federation.RootModule
	}
	factory, err := s.container.Get(expose)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	comp := factory()
	session := newSession(conn, expose, comp, s)
	if err := s.sessions.Add(session); err != nil {
		s.logger.Warn("session rejected", "error", err)
		conn.SetWriteDeadline(time.Now().Add(s.config.SessionConfig.WriteTimeout))
		conn.WriteJSON(ServerMessage{Type: MessageError, Error: err.Error()})
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "session limit"),
			time.Now().Add(time.Second))
		conn.Close()
		if m, ok := comp.(Mountable); ok {
			m.Unmount()
		}
		return
	}
	s.config.Metrics.SessionOpened()
	s.logger.Info("session opened", "session", session.ID, "expose", expose)

	session.Start()
	session.ReadLoop()
}

// cors allows configured origins to load the bundle cross-origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(s.config.AllowedOrigins) == 0:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && s.config.CheckOrigin(r):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
