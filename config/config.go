package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/cache"
	"github.com/jonwraymond/ems/features"
	"github.com/jonwraymond/ems/observe"
	"github.com/jonwraymond/ems/resilience"
)

// Config is the full client configuration.
type Config struct {
	API     APIConfig      `yaml:"api" toml:"api"`
	Session SessionConfig  `yaml:"session" toml:"session"`
	Cache   CacheConfig    `yaml:"cache" toml:"cache"`
	Health  HealthConfig   `yaml:"health" toml:"health"`
	Observe observe.Config `yaml:"observe" toml:"observe"`
}

// APIConfig configures the backend client.
type APIConfig struct {
	BaseURL       string   `yaml:"base_url" toml:"base_url"`
	TenantHost    string   `yaml:"tenant_host" toml:"tenant_host"`
	DataPath      string   `yaml:"data_path" toml:"data_path"`
	Timeout       Duration `yaml:"timeout" toml:"timeout"`
	MaxConcurrent int      `yaml:"max_concurrent" toml:"max_concurrent"`
}

// SessionConfig configures session persistence. An empty Path keeps the
// session in memory. Watch follows the file for changes made by other
// processes.
type SessionConfig struct {
	Path  string `yaml:"path" toml:"path"`
	Watch bool   `yaml:"watch" toml:"watch"`
}

// PolicyConfig mirrors cache.Policy.
type PolicyConfig struct {
	Capacity int      `yaml:"capacity" toml:"capacity"`
	TTL      Duration `yaml:"ttl" toml:"ttl"`
	Dedupe   bool     `yaml:"dedupe" toml:"dedupe"`
}

// Policy converts to a cache.Policy.
func (p PolicyConfig) Policy() cache.Policy {
	return cache.Policy{Capacity: p.Capacity, TTL: time.Duration(p.TTL), Dedupe: p.Dedupe}
}

// CacheConfig holds the default policy and per-feature overrides.
type CacheConfig struct {
	Default  PolicyConfig            `yaml:"default" toml:"default"`
	Features map[string]PolicyConfig `yaml:"features" toml:"features"`
}

// Policies converts the per-feature overrides.
func (c CacheConfig) Policies() map[string]cache.Policy {
	if len(c.Features) == 0 {
		return nil
	}
	out := make(map[string]cache.Policy, len(c.Features))
	for name, p := range c.Features {
		out[name] = p.Policy()
	}
	return out
}

// HealthConfig configures the backend health check.
type HealthConfig struct {
	Path    string   `yaml:"path" toml:"path"`
	Timeout Duration `yaml:"timeout" toml:"timeout"`
}

// Duration decodes from strings such as "30s" or "2m".
type Duration time.Duration

// UnmarshalText parses a time.ParseDuration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalid, b)
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the configuration used for unset fields.
func Default() Config {
	return Config{
		API: APIConfig{
			Timeout:       Duration(resilience.DefaultTimeout),
			MaxConcurrent: resilience.DefaultMaxConcurrent,
		},
		Health: HealthConfig{Path: "/health", Timeout: Duration(5 * time.Second)},
		Observe: observe.Config{
			ServiceName: "ems",
			Tracing:     observe.TracingConfig{Exporter: "none", SamplePct: 1},
			Metrics:     observe.MetricsConfig{Exporter: "none"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
	}
}

// Load reads, expands and decodes the file at path over Default, then
// validates the result. The format follows the extension: .yaml, .yml
// or .toml.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw, filepath.Ext(path))
}

// Parse decodes data in the format named by ext over Default.
func Parse(data []byte, ext string) (Config, error) {
	expanded, err := ExpandEnv(string(data))
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal([]byte(expanded), &cfg)
	case ".toml":
		err = toml.Unmarshal([]byte(expanded), &cfg)
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("%w: api.base_url is required", api.ErrInvalidBaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("%w: api.timeout must not be negative", ErrInvalid)
	}
	if c.API.MaxConcurrent < 0 {
		return fmt.Errorf("%w: api.max_concurrent must not be negative", ErrInvalid)
	}
	if c.Session.Watch && strings.TrimSpace(c.Session.Path) == "" {
		return fmt.Errorf("%w: session.watch requires session.path", ErrInvalid)
	}
	if err := validatePolicy("cache.default", c.Cache.Default); err != nil {
		return err
	}
	for name, p := range c.Cache.Features {
		if !known(name) {
			return fmt.Errorf("%w: cache.features: unknown feature %q", ErrInvalid, name)
		}
		if err := validatePolicy("cache.features."+name, p); err != nil {
			return err
		}
	}
	return c.Observe.Validate()
}

func validatePolicy(at string, p PolicyConfig) error {
	if p.Capacity < 0 || p.TTL < 0 {
		return fmt.Errorf("%w: %s: capacity and ttl must not be negative", ErrInvalid, at)
	}
	return nil
}

func known(name string) bool {
	for _, n := range features.Names {
		if n == name {
			return true
		}
	}
	return false
}
