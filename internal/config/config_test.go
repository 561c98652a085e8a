package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/green-ecolution/demo-plugin/internal/errors"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Build.Output != DefaultOutput {
		t.Errorf("Build.Output = %q, want %q", cfg.Build.Output, DefaultOutput)
	}
	if cfg.Federation == nil || cfg.Federation.Filename != "plugin.js" {
		t.Errorf("Federation = %+v, want default manifest", cfg.Federation)
	}
	if cfg.Plugin.Slug != "csv-import" || cfg.Plugin.Name != "CSV Import" {
		t.Errorf("Plugin = %q/%q, want csv-import/CSV Import", cfg.Plugin.Slug, cfg.Plugin.Name)
	}
	if cfg.Import.SourceEPSG != DefaultSourceEPSG || cfg.Import.TargetEPSG != DefaultTargetEPSG {
		t.Errorf("Import EPSG = %d -> %d", cfg.Import.SourceEPSG, cfg.Import.TargetEPSG)
	}
	if len(cfg.Import.Headers) != 7 {
		t.Errorf("Import.Headers = %v, want 7 columns", cfg.Import.Headers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	content := `{
  "plugin": {"slug": "counter", "name": "Counter"},
  "federation": {
    "name": "counter_plugin",
    "filename": "remote.js",
    "exposes": {"./Root": "./internal/counter"},
    "shared": ["react"]
  },
  "server": {"port": 9090},
  "build": {"output": "out"}
}`
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Plugin.Slug != "counter" {
		t.Errorf("Plugin.Slug = %q, want counter", cfg.Plugin.Slug)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Federation.Filename != "remote.js" {
		t.Errorf("Federation.Filename = %q, want remote.js", cfg.Federation.Filename)
	}
	if _, ok := cfg.Federation.Entry("./RemoteARoot"); ok {
		t.Error("file federation block should replace the default exposes map")
	}
	if got := cfg.Host.HeartbeatInterval; got != DefaultHeartbeatInterval {
		t.Errorf("Host.HeartbeatInterval = %q, want default", got)
	}
	if want := filepath.Join(dir, "out"); cfg.OutputPath() != want {
		t.Errorf("OutputPath() = %q, want %q", cfg.OutputPath(), want)
	}
}

func TestLoadFileInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("LoadFile() should fail on invalid JSON")
	}
	var pe *errors.PluginError
	if !stderrors.As(err, &pe) || pe.Code != "P001" {
		t.Errorf("error = %v, want P001", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PLUGIN_PORT", "7070")
	t.Setenv("HOST_PATH", "https://host.example.com")
	t.Setenv("CLIENT_ID", "id")
	t.Setenv("CLIENT_SECRET", "secret")
	t.Setenv("S3_BUCKET", "bundles")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := New()
	cfg.Server.PublicURL = "https://plugin.example.com/demo"
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Host.ClientID != "id" || cfg.Host.ClientSecret != "secret" {
		t.Errorf("credentials = %q/%q, want id/secret", cfg.Host.ClientID, cfg.Host.ClientSecret)
	}
	if cfg.Storage.Bucket != "bundles" {
		t.Errorf("Storage.Bucket = %q, want bundles", cfg.Storage.Bucket)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	// Unset variables leave file values alone.
	if cfg.Server.PublicURL != "https://plugin.example.com/demo" {
		t.Errorf("Server.PublicURL = %q, want file value", cfg.Server.PublicURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestApplyEnvImport(t *testing.T) {
	t.Setenv("CSV_HEADERS", " a, b ,c,d,e,f,g ")
	t.Setenv("CSV_USED_EPSG", "25833")

	cfg := New()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	want := []string{"a", "b", "c", "d", "e", "f", "g"}
	if strings.Join(cfg.Import.Headers, "|") != strings.Join(want, "|") {
		t.Errorf("Import.Headers = %q, want %q", cfg.Import.Headers, want)
	}
	if cfg.Import.SourceEPSG != 25833 {
		t.Errorf("Import.SourceEPSG = %d, want 25833", cfg.Import.SourceEPSG)
	}
	if cfg.Import.TargetEPSG != DefaultTargetEPSG {
		t.Errorf("Import.TargetEPSG = %d, want default %d", cfg.Import.TargetEPSG, DefaultTargetEPSG)
	}
}

func TestApplyEnvImportInvalidEPSG(t *testing.T) {
	t.Setenv("CSV_USED_EPSG", "utm")

	var pe *errors.PluginError
	err := New().ApplyEnv()
	if !stderrors.As(err, &pe) || pe.Code != "P005" {
		t.Errorf("ApplyEnv() = %v, want P005", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), DotEnvFileName)
	if err := os.WriteFile(path, []byte("DEMO_PLUGIN_TEST_VAR=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DEMO_PLUGIN_TEST_VAR", "")
	os.Unsetenv("DEMO_PLUGIN_TEST_VAR")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("DEMO_PLUGIN_TEST_VAR"); got != "from-file" {
		t.Errorf("DEMO_PLUGIN_TEST_VAR = %q, want from-file", got)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("LoadDotEnv(missing) = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		code   string
	}{
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "P002"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "P002"},
		{"host without credentials", func(c *Config) { c.Host.Path = "https://host.example.com" }, "P003"},
		{"relative host", func(c *Config) {
			c.Host.Path = "host.example.com"
			c.Host.ClientID, c.Host.ClientSecret = "a", "b"
		}, "P004"},
		{"bad public url", func(c *Config) { c.Server.PublicURL = "ftp://x" }, "P004"},
		{"bad manifest", func(c *Config) { c.Federation.Filename = "plugin.css" }, "P011"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			var pe *errors.PluginError
			if !stderrors.As(err, &pe) {
				t.Fatalf("error %T is not a PluginError", err)
			}
			if pe.Code != tt.code {
				t.Errorf("Code = %q, want %q", pe.Code, tt.code)
			}
		})
	}

	cfg := New()
	cfg.Host.HeartbeatInterval = "soon"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject an unparsable duration")
	}
	cfg = New()
	cfg.Log.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject an unknown log format")
	}
}

func TestURLs(t *testing.T) {
	cfg := New()
	cfg.Server.Port = 8123

	u, err := cfg.PublicURL()
	if err != nil {
		t.Fatal(err)
	}
	if u.String() != "http://localhost:8123/" {
		t.Errorf("PublicURL() = %q", u.String())
	}

	cfg.Server.PublicURL = "https://cdn.example.com/plugins/demo"
	u, _ = cfg.PublicURL()
	if u.String() != "https://cdn.example.com/plugins/demo/" {
		t.Errorf("PublicURL() = %q, want trailing slash", u.String())
	}

	if h, err := cfg.HostURL(); h != nil || err != nil {
		t.Errorf("HostURL() = %v, %v, want nil, nil", h, err)
	}

	if cfg.Address() != ":8123" {
		t.Errorf("Address() = %q, want :8123", cfg.Address())
	}
}

func TestDurations(t *testing.T) {
	cfg := New()
	if cfg.HeartbeatEvery() != 30*time.Second {
		t.Errorf("HeartbeatEvery() = %v", cfg.HeartbeatEvery())
	}
	cfg.Server.ShutdownTimeout = "2s"
	if cfg.ShutdownAfter() != 2*time.Second {
		t.Errorf("ShutdownAfter() = %v", cfg.ShutdownAfter())
	}
	cfg.Server.ShutdownTimeout = "bogus"
	if cfg.ShutdownAfter() != 10*time.Second {
		t.Errorf("ShutdownAfter() fallback = %v", cfg.ShutdownAfter())
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	cfg := New()
	cfg.Host.ClientSecret = "do-not-write"
	cfg.Server.Port = 9999

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "do-not-write") {
		t.Error("SaveTo() wrote a secret")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9999 {
		t.Errorf("round trip Port = %d, want 9999", loaded.Server.Port)
	}
}
