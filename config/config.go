// Package config loads pushauth settings from a YAML file and PUSHER_*
// environment variables.
package config

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/net/http/httpproxy"
	"gopkg.in/yaml.v3"

	"github.com/vitalvas/pushauth/endpoint"
)

// Defaults applied by Load.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultListen   = ":8080"
	DefaultLogLevel = "info"
)

// Environment variables read by Load. They override file values.
const (
	EnvURL     = "PUSHER_URL"
	EnvAppID   = "PUSHER_APP_ID"
	EnvKey     = "PUSHER_KEY"
	EnvSecret  = "PUSHER_SECRET"
	EnvCluster = "PUSHER_CLUSTER"
	EnvEnabled = "PUSHER_ENABLED"
)

// ErrInvalid is returned when the loaded configuration is incomplete or
// contradictory.
var ErrInvalid = errors.New("config: invalid configuration")

// Proxy configures the outbound HTTP proxy. Empty fields fall back to the
// standard proxy environment variables.
type Proxy struct {
	HTTP    string `yaml:"http"`
	HTTPS   string `yaml:"https"`
	NoProxy string `yaml:"no_proxy"`
}

// IsZero reports whether no proxy field is set.
func (p Proxy) IsZero() bool {
	return p.HTTP == "" && p.HTTPS == "" && p.NoProxy == ""
}

// config returns the proxy settings with empty fields taken from env.
func (p Proxy) config(env *httpproxy.Config) *httpproxy.Config {
	return &httpproxy.Config{
		HTTPProxy:  cmp.Or(p.HTTP, env.HTTPProxy),
		HTTPSProxy: cmp.Or(p.HTTPS, env.HTTPSProxy),
		NoProxy:    cmp.Or(p.NoProxy, env.NoProxy),
		CGI:        env.CGI,
	}
}

// Config holds everything needed to build a client and the auth server.
type Config struct {
	// URL is a full descriptor; it takes precedence over the explicit
	// credential fields.
	URL string `yaml:"url"`

	AppID   string `yaml:"app_id"`
	Key     string `yaml:"key"`
	Secret  string `yaml:"secret"`
	Cluster string `yaml:"cluster"`

	// Enabled defaults to true when unset.
	Enabled *bool `yaml:"enabled"`

	Timeout  time.Duration `yaml:"timeout"`
	Proxy    Proxy         `yaml:"proxy"`
	Listen   string        `yaml:"listen"`
	LogLevel string        `yaml:"log_level"`
}

// Load reads path (skipped when empty), applies environment overrides and
// defaults, and validates the result.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}

		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// FromEnv builds a configuration from environment variables alone.
func FromEnv() (Config, error) {
	return Load("")
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

func (c *Config) applyEnv() error {
	overrides := map[string]*string{
		EnvURL:     &c.URL,
		EnvAppID:   &c.AppID,
		EnvKey:     &c.Key,
		EnvSecret:  &c.Secret,
		EnvCluster: &c.Cluster,
	}

	for name, field := range overrides {
		if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
			*field = strings.TrimSpace(v)
		}
	}

	if v, ok := os.LookupEnv(EnvEnabled); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, EnvEnabled, v)
		}

		c.Enabled = &enabled
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Enabled == nil {
		enabled := true
		c.Enabled = &enabled
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	if c.Listen == "" {
		c.Listen = DefaultListen
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks that credentials resolve to an endpoint and that the
// remaining settings are usable.
func (c Config) Validate() error {
	if _, err := c.Endpoint(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalid)
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); c.LogLevel != "" && err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	for _, raw := range []string{c.Proxy.HTTP, c.Proxy.HTTPS} {
		if raw == "" {
			continue
		}

		if _, err := url.Parse(raw); err != nil {
			return fmt.Errorf("%w: proxy %q: %w", ErrInvalid, raw, err)
		}
	}

	return nil
}

// IsEnabled reports the effective enabled flag.
func (c Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Endpoint resolves the credentials: URL first, then cluster, then the
// default public host.
func (c Config) Endpoint() (endpoint.Endpoint, error) {
	switch {
	case c.URL != "":
		return endpoint.Parse(c.URL)
	case c.Cluster != "":
		return endpoint.ForCluster(c.Cluster, c.AppID, c.Key, c.Secret)
	default:
		return endpoint.New(c.AppID, c.Key, c.Secret)
	}
}

// HTTPClient returns an HTTP client with the configured timeout and proxy.
func (c Config) HTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if !c.Proxy.IsZero() {
		proxy := c.Proxy.config(httpproxy.FromEnvironment()).ProxyFunc()

		transport.Proxy = func(r *http.Request) (*url.URL, error) {
			return proxy(r.URL)
		}
	}

	return &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
	}
}

// NewLogger builds a production zap logger at the configured level.
func (c Config) NewLogger() (*zap.Logger, error) {
	level := zapcore.InfoLevel

	if c.LogLevel != "" {
		parsed, err := zapcore.ParseLevel(c.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}

		level = parsed
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
