// Package config loads the importer settings and job files from TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"course-importer/gateway"
	"course-importer/scraper"

	"github.com/BurntSushi/toml"
)

// Config represents the TOML configuration file.
type Config struct {
	Import    ImportConfig    `toml:"import"`
	Gateway   GatewayConfig   `toml:"gateway"`
	Endpoints EndpointsConfig `toml:"endpoints"`
	Fetch     FetchConfig     `toml:"fetch"`
	Server    ServerConfig    `toml:"server"`
	Daemon    DaemonConfig    `toml:"daemon"`
}

// ImportConfig maps pipeline settings.
type ImportConfig struct {
	Merge  *bool   `toml:"merge"`
	Season *string `toml:"season"`
}

// GatewayConfig maps persistence settings.
type GatewayConfig struct {
	Kind        string `toml:"kind"`
	DBPath      string `toml:"db"`
	OutDir      string `toml:"out-dir"`
	Timezone    string `toml:"timezone"`
	GithubToken string `toml:"github-token"`
	GithubRepo  string `toml:"github-repo"`
	GithubPath  string `toml:"github-path"`
	GithubAPI   string `toml:"github-api"`
}

// EndpointsConfig overrides provider base URLs.
type EndpointsConfig struct {
	CQU    string `toml:"cqu"`
	WakeUp string `toml:"wakeup"`
	HNVCC  string `toml:"hnvcc"`
}

// FetchConfig maps HTTP client settings.
type FetchConfig struct {
	Timeout   string  `toml:"timeout"`
	RateLimit float64 `toml:"rate"`
	Burst     int     `toml:"burst"`
	UserAgent string  `toml:"user-agent"`
}

// ServerConfig maps the HTTP server settings.
type ServerConfig struct {
	Port string `toml:"port"`
}

// DaemonConfig maps the periodic runner settings.
type DaemonConfig struct {
	Interval string `toml:"interval"`
	Jobs     string `toml:"jobs"`
}

// Defaults.
const (
	DefaultPort     = "8100"
	DefaultInterval = 10 * time.Minute
	DefaultTimezone = "Asia/Shanghai"
)

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// MergeEnabled reports whether adjacent course records are merged. Default true.
func (c Config) MergeEnabled() bool {
	return c.Import.Merge == nil || *c.Import.Merge
}

// Season returns the configured time table season, default summer.
func (c Config) Season() string {
	if c.Import.Season == nil || *c.Import.Season == "" {
		return scraper.SeasonSummer
	}
	return *c.Import.Season
}

// GatewayOptions resolves gateway settings, filling defaults and the GITHUB_TOKEN
// environment variable.
func (c Config) GatewayOptions(provider string) gateway.Options {
	g := c.Gateway
	opts := gateway.Options{
		Kind:        g.Kind,
		DBPath:      g.DBPath,
		OutDir:      g.OutDir,
		Timezone:    g.Timezone,
		Provider:    provider,
		GithubToken: g.GithubToken,
		GithubRepo:  g.GithubRepo,
		GithubPath:  g.GithubPath,
		GithubAPI:   g.GithubAPI,
	}
	if opts.Kind == "" {
		opts.Kind = gateway.KindSQLite
	}
	if opts.DBPath == "" {
		opts.DBPath = DefaultDBPath()
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	if opts.Timezone == "" {
		opts.Timezone = DefaultTimezone
	}
	if opts.GithubToken == "" {
		opts.GithubToken = os.Getenv("GITHUB_TOKEN")
	}
	return opts
}

// ProviderEndpoints returns the base URLs with configured overrides applied.
func (c Config) ProviderEndpoints() scraper.Endpoints {
	ep := scraper.DefaultEndpoints()
	if c.Endpoints.CQU != "" {
		ep.CQU = c.Endpoints.CQU
	}
	if c.Endpoints.WakeUp != "" {
		ep.WakeUp = c.Endpoints.WakeUp
	}
	if c.Endpoints.HNVCC != "" {
		ep.HNVCC = c.Endpoints.HNVCC
	}
	return ep
}

// FetcherConfig converts the fetch section. Zero values are filled by scraper.NewFetcher.
func (c Config) FetcherConfig() (scraper.FetchConfig, error) {
	out := scraper.FetchConfig{
		RateLimit: c.Fetch.RateLimit,
		RateBurst: c.Fetch.Burst,
		UserAgent: c.Fetch.UserAgent,
	}
	if c.Fetch.Timeout != "" {
		d, err := time.ParseDuration(c.Fetch.Timeout)
		if err != nil {
			return out, fmt.Errorf("invalid fetch timeout %q: %w", c.Fetch.Timeout, err)
		}
		out.Timeout = d
	}
	return out, nil
}

// Port returns the HTTP port from the config, then HTTP_PORT, then the default.
func (c Config) Port() string {
	if c.Server.Port != "" {
		return c.Server.Port
	}
	if p := os.Getenv("HTTP_PORT"); p != "" {
		return p
	}
	return DefaultPort
}

// Interval returns the daemon interval.
func (c Config) Interval() (time.Duration, error) {
	if c.Daemon.Interval == "" {
		return DefaultInterval, nil
	}
	d, err := time.ParseDuration(c.Daemon.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid daemon interval %q: %w", c.Daemon.Interval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("daemon interval must be positive, got %s", d)
	}
	return d, nil
}

// JobsGlob returns the pattern matching job files.
func (c Config) JobsGlob() string {
	if c.Daemon.Jobs != "" {
		return c.Daemon.Jobs
	}
	return filepath.Join(XDGConfigHome(), "course-importer", "jobs", "*.toml")
}
