package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/green-ecolution/demo-plugin/internal/build"
	"github.com/green-ecolution/demo-plugin/internal/config"
	"github.com/green-ecolution/demo-plugin/internal/counter"
	"github.com/green-ecolution/demo-plugin/pkg/federation"
	"github.com/green-ecolution/demo-plugin/pkg/middleware"
)

func newTestServer(t *testing.T, modify func(*ServerConfig)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.New()
	container := federation.NewContainer(cfg.Federation)
	counter.Provide(container)

	bundle, err := build.New(cfg, container, build.Options{Version: "test"}).Bundle(context.Background())
	if err != nil {
		t.Fatalf("Bundle() error = %v", err)
	}

	reg := prometheus.NewRegistry()
	sc := DefaultServerConfig()
	sc.Version = "1.0.0-test"
	sc.TracerName = ""
	sc.Metrics = middleware.NewMetrics(middleware.WithRegistry(reg))
	sc.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	if modify != nil {
		modify(sc)
	}

	srv := New(sc, bundle, container)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Sessions().Shutdown()
		ts.Close()
	})
	return srv, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestGreeting(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "plugin server for CSV Import") {
		t.Errorf("body = %q", body)
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var health map[string]any
	if err := json.Unmarshal([]byte(body), &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health["status"] != "ok" || health["version"] != "1.0.0-test" {
		t.Errorf("health = %v", health)
	}
}

func TestBundleFiles(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/plugin.js")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("plugin.js status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("plugin.js Content-Type = %q", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != build.CacheRevalidate {
		t.Errorf("plugin.js Cache-Control = %q, want %q", cc, build.CacheRevalidate)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("plugin.js should be loadable cross-origin")
	}
	if !strings.Contains(body, federation.EntryManifestPrefix) {
		t.Error("plugin.js does not embed the manifest")
	}

	chunk, _ := srv.Bundle().Chunk(federation.RootModule)
	resp, body = get(t, ts.URL+"/"+chunk)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chunk status = %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != build.CacheImmutable {
		t.Errorf("chunk Cache-Control = %q, want %q", cc, build.CacheImmutable)
	}
	if !strings.Contains(body, "export function mount") {
		t.Error("chunk does not export mount")
	}

	resp, body = get(t, ts.URL+"/manifest.json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("manifest status = %d", resp.StatusCode)
	}
	m, err := federation.Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse(manifest.json) error = %v", err)
	}
	if _, ok := m.Entry(federation.RootModule); !ok {
		t.Error("manifest does not expose ./RemoteARoot")
	}

	if resp, _ := get(t, ts.URL+"/assets/nope.js"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing chunk status = %d, want 404", resp.StatusCode)
	}
}

func TestBundleFileConditional(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, _ := get(t, ts.URL+"/plugin.js")
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("no ETag")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/plugin.js", nil)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotModified {
		t.Errorf("conditional status = %d, want 304", resp2.StatusCode)
	}
}

func TestCORSAllowlist(t *testing.T) {
	_, ts := newTestServer(t, func(c *ServerConfig) {
		c.AllowedOrigins = []string{"https://host.example.com"}
	})

	for origin, want := range map[string]string{
		"https://host.example.com": "https://host.example.com",
		"https://evil.example.com": "",
	} {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/plugin.js", nil)
		req.Header.Set("Origin", origin)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != want {
			t.Errorf("origin %s: Allow-Origin = %q, want %q", origin, got, want)
		}
	}
}

func TestPreview(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/preview")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		"<!DOCTYPE html>",
		`id="plugin-root"`,
		`from "./plugin.js"`,
		`get("./RemoteARoot")`,
		`<link href="./assets/RemoteARoot.`,
		`rel="modulepreload"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("preview missing %q", want)
		}
	}

	if resp, _ := get(t, ts.URL+"/preview?expose=./Nope"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown expose status = %d, want 404", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)

	get(t, ts.URL+"/plugin.js")
	_, body := get(t, ts.URL+"/metrics")
	if !strings.Contains(body, `demo_plugin_http_requests_total{method="GET",route="/plugin.js",status="200"} 1`) {
		t.Errorf("metrics missing request counter:\n%s", body)
	}
}

func dialLive(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/live" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func readRender(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	for {
		msg := readMessage(t, conn)
		if msg.Type == MessageRender {
			return msg.HTML
		}
		if msg.Type == MessageError {
			t.Fatalf("server error: %s", msg.Error)
		}
	}
}

func click(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	if err := conn.WriteJSON(ClientMessage{Type: MessageEvent, HID: "h1", Event: "onclick"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
}

func TestLiveSessionCounts(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dialLive(t, ts, "")

	html := readRender(t, conn)
	if !strings.Contains(html, "It works!") || !strings.Contains(html, "Count: 0") {
		t.Fatalf("initial render = %q", html)
	}

	click(t, conn)
	if html := readRender(t, conn); !strings.Contains(html, "Count: 1") {
		t.Errorf("after one click = %q, want Count: 1", html)
	}

	click(t, conn)
	readRender(t, conn)
	click(t, conn)
	if html := readRender(t, conn); !strings.Contains(html, "Count: 3") {
		t.Errorf("after three clicks = %q, want Count: 3", html)
	}
}

func TestLiveSessionsAreIndependent(t *testing.T) {
	_, ts := newTestServer(t, nil)

	a := dialLive(t, ts, "?expose=./RemoteARoot")
	readRender(t, a)
	click(t, a)
	readRender(t, a)

	b := dialLive(t, ts, "")
	if html := readRender(t, b); !strings.Contains(html, "Count: 0") {
		t.Errorf("second session initial render = %q, want Count: 0", html)
	}
}

func TestLiveSessionReconnectResets(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	conn := dialLive(t, ts, "")
	readRender(t, conn)
	click(t, conn)
	readRender(t, conn)
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for srv.Sessions().Count() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := srv.Sessions().Count(); n != 0 {
		t.Fatalf("sessions after close = %d, want 0", n)
	}

	again := dialLive(t, ts, "")
	if html := readRender(t, again); !strings.Contains(html, "Count: 0") {
		t.Errorf("render after reconnect = %q, want Count: 0", html)
	}
}

func TestLiveUnknownHandler(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dialLive(t, ts, "")
	readRender(t, conn)

	conn.WriteJSON(ClientMessage{Type: MessageEvent, HID: "h9", Event: "onclick"})
	msg := readMessage(t, conn)
	if msg.Type != MessageError {
		t.Errorf("message type = %q, want error", msg.Type)
	}

	conn.WriteJSON(ClientMessage{Type: MessagePing})
	if msg := readMessage(t, conn); msg.Type != MessagePong {
		t.Errorf("message type = %q, want pong", msg.Type)
	}
}

func TestLiveUnknownExpose(t *testing.T) {
	_, ts := newTestServer(t, nil)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/live?expose=./Nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Dial() should fail for an unknown module")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v, want 404", resp)
	}
}

func TestLiveSessionLimit(t *testing.T) {
	_, ts := newTestServer(t, func(c *ServerConfig) {
		c.MaxSessions = 1
	})

	first := dialLive(t, ts, "")
	readRender(t, first)

	second := dialLive(t, ts, "")
	if msg := readMessage(t, second); msg.Type != MessageError {
		t.Errorf("second session got %q, want error", msg.Type)
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	conn := dialLive(t, ts, "")
	readRender(t, conn)

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if n := srv.Sessions().Count(); n != 0 {
		t.Errorf("sessions after shutdown = %d, want 0", n)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestOriginAllowlist(t *testing.T) {
	check := OriginAllowlist([]string{"https://host.example.com"})

	tests := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "plugin.example.com", true},
		{"https://plugin.example.com", "plugin.example.com", true},
		{"https://host.example.com", "plugin.example.com", true},
		{"https://evil.example.com", "plugin.example.com", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/live", nil)
		r.Host = tt.host
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := check(r); got != tt.want {
			t.Errorf("check(origin=%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}

	if !OriginAllowlist(nil)(httptest.NewRequest(http.MethodGet, "/", nil)) {
		t.Error("empty allowlist should accept any origin")
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := newSessionID()
		if len(id) != 26 {
			t.Fatalf("id %q has length %d, want 26", id, len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestServerRun(t *testing.T) {
	cfg := config.New()
	container := federation.NewContainer(cfg.Federation)
	counter.Provide(container)
	bundle, err := build.New(cfg, container, build.Options{}).Bundle(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	sc := DefaultServerConfig()
	sc.Address = "127.0.0.1:0"
	srv := New(sc, bundle, container)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
