package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/green-ecolution/demo-plugin/internal/errors"
	"github.com/green-ecolution/demo-plugin/pkg/federation"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "plugin.json"

	// DotEnvFileName is the name of the optional environment file.
	DotEnvFileName = ".env"

	// DefaultPort is the default plugin server port.
	DefaultPort = 8080

	// DefaultOutput is the default build output directory.
	DefaultOutput = "dist"

	// DefaultAPIVersion is the host API version the worker talks to.
	DefaultAPIVersion = "v1"

	// DefaultHeartbeatInterval is the default heartbeat period.
	DefaultHeartbeatInterval = "30s"

	// DefaultShutdownTimeout is the default graceful shutdown timeout.
	DefaultShutdownTimeout = "10s"

	// DefaultSourceEPSG is ETRS89 / UTM zone 32N, the system the TBZ
	// Flensburg tree register is exported in.
	DefaultSourceEPSG = 25832

	// DefaultTargetEPSG is WGS 84.
	DefaultTargetEPSG = 4326
)

// DefaultCSVHeaders is the column layout of the TBZ tree register export:
// area, street, tree number, species, northing, easting, planting year.
var DefaultCSVHeaders = []string{
	"Gebiet", "Straße", "Baum-Nr.", "Gattung/Art", "Hochwert", "Rechtswert", "Pflanzjahr",
}

// Config represents the complete plugin configuration.
type Config struct {
	// Plugin describes the plugin to the host.
	Plugin PluginConfig `json:"plugin"`

	// Federation is the federation manifest.
	Federation *federation.Manifest `json:"federation,omitempty"`

	// Server contains plugin server settings.
	Server ServerConfig `json:"server"`

	// Build contains bundle build settings.
	Build BuildConfig `json:"build"`

	// Host contains host registration settings.
	Host HostConfig `json:"host"`

	// Storage contains bundle publishing settings.
	Storage StorageConfig `json:"storage"`

	// Import contains tree register CSV settings.
	Import ImportConfig `json:"import"`

	// Log contains logging settings.
	Log LogConfig `json:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// PluginConfig describes the plugin.
type PluginConfig struct {
	Slug        string `json:"slug,omitempty" env:"PLUGIN_SLUG"`
	Name        string `json:"name,omitempty" env:"PLUGIN_NAME"`
	Description string `json:"description,omitempty"`
}

// ServerConfig contains plugin server settings.
type ServerConfig struct {
	// Host is the interface to bind to. Empty binds all interfaces.
	Host string `json:"host,omitempty" env:"PLUGIN_HOST"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" env:"PLUGIN_PORT"`

	// PublicURL is the URL the host reaches the plugin under.
	// Defaults to http://localhost:<port>/.
	PublicURL string `json:"publicURL,omitempty" env:"PLUGIN_PUBLIC_URL"`

	// Dist serves a prebuilt bundle directory instead of building in memory.
	Dist string `json:"dist,omitempty" env:"PLUGIN_DIST"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`

	// AllowedOrigins lists origins allowed to open live sessions.
	// Empty allows any origin.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" env:"PLUGIN_ALLOWED_ORIGINS"`
}

// BuildConfig contains bundle build settings.
type BuildConfig struct {
	// Output is the output directory for builds.
	Output string `json:"output,omitempty"`

	// Clean removes the output directory before building.
	Clean bool `json:"clean,omitempty"`
}

// HostConfig contains host registration settings.
type HostConfig struct {
	// Path is the base URL of the host application. Empty disables
	// registration and heartbeats.
	Path string `json:"path,omitempty" env:"HOST_PATH"`

	// ClientID and ClientSecret authenticate the plugin with the host.
	ClientID     string `json:"-" env:"CLIENT_ID"`
	ClientSecret string `json:"-" env:"CLIENT_SECRET"`

	// APIVersion is the host API version (default "v1").
	APIVersion string `json:"apiVersion,omitempty" env:"HOST_API_VERSION"`

	// HeartbeatInterval is the heartbeat period (e.g., "30s").
	HeartbeatInterval string `json:"heartbeatInterval,omitempty" env:"HEARTBEAT_INTERVAL"`
}

// StorageConfig contains bundle publishing settings.
type StorageConfig struct {
	Bucket          string `json:"bucket,omitempty" env:"S3_BUCKET"`
	Prefix          string `json:"prefix,omitempty" env:"S3_PREFIX"`
	Region          string `json:"region,omitempty" env:"S3_REGION"`
	Endpoint        string `json:"endpoint,omitempty" env:"S3_ENDPOINT"`
	PathStyle       bool   `json:"pathStyle,omitempty" env:"S3_PATH_STYLE"`
	AccessKeyID     string `json:"-" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `json:"-" env:"AWS_SECRET_ACCESS_KEY"`
	SessionToken    string `json:"-" env:"AWS_SESSION_TOKEN"`
}

// ImportConfig contains tree register CSV settings.
type ImportConfig struct {
	// Headers is the exact, ordered header row a CSV file must carry.
	// The first seven columns are read positionally: area, street,
	// tree number, species, northing, easting, planting year.
	Headers []string `json:"headers,omitempty" env:"CSV_HEADERS" envSeparator:","`

	// SourceEPSG is the coordinate system of the CSV's northing/easting columns.
	SourceEPSG int `json:"sourceEPSG,omitempty" env:"CSV_USED_EPSG"`

	// TargetEPSG is the coordinate system trees are converted to.
	TargetEPSG int `json:"targetEPSG,omitempty" env:"CSV_TO_EPSG"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" env:"LOG_LEVEL"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" env:"LOG_FORMAT"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Plugin: PluginConfig{
			Slug:        "csv-import",
			Name:        "CSV Import",
			Description: "A plugin to import CSV files of trees from the TBZ Flensburg into the Green Ecolution system.",
		},
		Federation: federation.Default(),
		Server: ServerConfig{
			Port:            DefaultPort,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Build: BuildConfig{
			Output: DefaultOutput,
		},
		Host: HostConfig{
			APIVersion:        DefaultAPIVersion,
			HeartbeatInterval: DefaultHeartbeatInterval,
		},
		Storage: StorageConfig{
			Region: "us-east-1",
		},
		Import: ImportConfig{
			Headers:    append([]string(nil), DefaultCSVHeaders...),
			SourceEPSG: DefaultSourceEPSG,
			TargetEPSG: DefaultTargetEPSG,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory.
// A missing plugin.json is not an error; defaults are used instead.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := New()
		cfg.applyDefaults()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFromWorkingDir loads plugin.json, .env and the environment from the
// current working directory.
func LoadFromWorkingDir() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, errors.New("P001").Wrap(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		return nil, err
	}
	if err := LoadDotEnv(filepath.Join(dir, DotEnvFileName)); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("P001").WithDetail(path).Wrap(err)
	}

	cfg := New()
	// A file that names its own federation block replaces the default one.
	cfg.Federation = nil
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("P001").
			WithDetail("failed to parse " + path).
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// LoadDotEnv loads a .env file into the process environment. Variables that
// are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.New("P005").WithDetail(path).Wrap(err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto the configuration.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return errors.New("P005").Wrap(err)
	}
	c.applyDefaults()
	return nil
}

// SaveTo writes the configuration to the specified path.
// Secrets are never written.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("P001").Wrap(err)
	}

	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("P001").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	defaults := New()

	if c.Federation == nil {
		c.Federation = defaults.Federation
	}
	if c.Plugin.Slug == "" {
		c.Plugin.Slug = defaults.Plugin.Slug
	}
	if c.Plugin.Name == "" {
		c.Plugin.Name = defaults.Plugin.Name
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Build.Output == "" {
		c.Build.Output = DefaultOutput
	}
	if c.Host.APIVersion == "" {
		c.Host.APIVersion = DefaultAPIVersion
	}
	if c.Host.HeartbeatInterval == "" {
		c.Host.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Storage.Region == "" {
		c.Storage.Region = defaults.Storage.Region
	}
	if len(c.Import.Headers) == 0 {
		c.Import.Headers = defaults.Import.Headers
	}
	for i, h := range c.Import.Headers {
		c.Import.Headers[i] = strings.TrimSpace(h)
	}
	if c.Import.SourceEPSG == 0 {
		c.Import.SourceEPSG = DefaultSourceEPSG
	}
	if c.Import.TargetEPSG == 0 {
		c.Import.TargetEPSG = DefaultTargetEPSG
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("P002").WithDetailf("port %d", c.Server.Port)
	}

	if err := c.Federation.Validate(); err != nil {
		return err
	}

	if _, err := c.PublicURL(); err != nil {
		return err
	}

	if c.Host.Path != "" {
		if _, err := c.HostURL(); err != nil {
			return err
		}
		if c.Host.ClientID == "" || c.Host.ClientSecret == "" {
			return errors.New("P003")
		}
	}

	for _, d := range []struct {
		name  string
		value string
	}{
		{"server.shutdownTimeout", c.Server.ShutdownTimeout},
		{"host.heartbeatInterval", c.Host.HeartbeatInterval},
	} {
		if dur, err := time.ParseDuration(d.value); err != nil || dur <= 0 {
			return errors.Newf(errors.CategoryConfig, "%s: invalid duration %q", d.name, d.value)
		}
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Newf(errors.CategoryConfig, "log.format: unknown format %q", c.Log.Format)
	}

	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// PublicURL returns the URL the plugin is reachable under, always ending in "/".
func (c *Config) PublicURL() (*url.URL, error) {
	raw := c.Server.PublicURL
	if raw == "" {
		raw = fmt.Sprintf("http://localhost:%d/", c.Server.Port)
	}
	u, err := parseAbsURL(raw)
	if err != nil {
		return nil, err
	}
	if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
		u.Path += "/"
	}
	return u, nil
}

// HostURL returns the parsed host base URL, or nil when registration is off.
func (c *Config) HostURL() (*url.URL, error) {
	if c.Host.Path == "" {
		return nil, nil
	}
	return parseAbsURL(c.Host.Path)
}

// HeartbeatEvery returns the heartbeat interval.
func (c *Config) HeartbeatEvery() time.Duration {
	return parseDurationOr(c.Host.HeartbeatInterval, 30*time.Second)
}

// ShutdownAfter returns the graceful shutdown timeout.
func (c *Config) ShutdownAfter() time.Duration {
	return parseDurationOr(c.Server.ShutdownTimeout, 10*time.Second)
}

// OutputPath returns the absolute path to the build output directory.
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.Build.Output) {
		return c.Build.Output
	}
	base := "."
	if c.configPath != "" {
		base = filepath.Dir(c.configPath)
	}
	abs, err := filepath.Abs(filepath.Join(base, c.Build.Output))
	if err != nil {
		return filepath.Join(base, c.Build.Output)
	}
	return abs
}

func parseAbsURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.New("P004").WithDetailf("%q", raw).Wrap(err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, errors.New("P004").WithDetailf("%q: want an absolute http(s) URL", raw)
	}
	return u, nil
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
