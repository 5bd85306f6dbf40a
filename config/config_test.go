package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"course-importer/gateway"
	"course-importer/scraper"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing config must not fail: %v", err)
	}
	if !cfg.MergeEnabled() || cfg.Season() != scraper.SeasonSummer {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "from-env")
	path := writeFile(t, t.TempDir(), "config.toml", `
[import]
merge = false
season = "winter"

[gateway]
kind = "ics"
out-dir = "/tmp/out"

[endpoints]
wakeup = "http://localhost:9000"

[fetch]
timeout = "5s"
rate = 2.5

[server]
port = "9999"

[daemon]
interval = "1h"
jobs = "/etc/jobs/*.toml"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MergeEnabled() || cfg.Season() != scraper.SeasonWinter {
		t.Fatalf("unexpected import section: %+v", cfg.Import)
	}
	opts := cfg.GatewayOptions("wakeup")
	if opts.Kind != gateway.KindICS || opts.OutDir != "/tmp/out" || opts.Timezone != DefaultTimezone || opts.GithubToken != "from-env" || opts.Provider != "wakeup" {
		t.Fatalf("unexpected gateway options: %+v", opts)
	}
	ep := cfg.ProviderEndpoints()
	if ep.WakeUp != "http://localhost:9000" || ep.CQU != scraper.DefaultEndpoints().CQU {
		t.Fatalf("unexpected endpoints: %+v", ep)
	}
	fc, err := cfg.FetcherConfig()
	if err != nil || fc.Timeout != 5*time.Second || fc.RateLimit != 2.5 {
		t.Fatalf("unexpected fetch config: %+v (%v)", fc, err)
	}
	if cfg.Port() != "9999" {
		t.Fatalf("unexpected port: %s", cfg.Port())
	}
	if d, err := cfg.Interval(); err != nil || d != time.Hour {
		t.Fatalf("unexpected interval: %v (%v)", d, err)
	}
	if cfg.JobsGlob() != "/etc/jobs/*.toml" {
		t.Fatalf("unexpected jobs glob: %s", cfg.JobsGlob())
	}
}

func TestConfigDefaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("XDG_DATA_HOME", "/data")
	var cfg Config
	opts := cfg.GatewayOptions("cqu")
	if opts.Kind != gateway.KindSQLite || opts.DBPath != filepath.Join("/data", "course-importer", "imports.db") {
		t.Fatalf("unexpected default gateway: %+v", opts)
	}
	if cfg.Port() != DefaultPort {
		t.Fatalf("unexpected default port: %s", cfg.Port())
	}
	if d, _ := cfg.Interval(); d != DefaultInterval {
		t.Fatalf("unexpected default interval: %s", d)
	}
	cfg.Daemon.Interval = "-1m"
	if _, err := cfg.Interval(); err == nil {
		t.Fatalf("expected negative interval error")
	}
}

func TestLoadJob(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "my-hnvcc.toml", `
provider = "hnvcc"
year = "2024"
semester = 1
season = "winter"

[gateway]
kind = "json"
out-dir = "/srv/hnvcc"
`)
	job, err := LoadJob(path)
	if err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Name != "my-hnvcc" || job.Year != "2024" || job.Semester != 1 {
		t.Fatalf("unexpected job: %+v", job)
	}
	cfg := job.WithGateway(Config{Gateway: GatewayConfig{Kind: "sqlite", Timezone: "UTC"}})
	if cfg.Gateway.Kind != "json" || cfg.Gateway.OutDir != "/srv/hnvcc" || cfg.Gateway.Timezone != "UTC" {
		t.Fatalf("unexpected gateway override: %+v", cfg.Gateway)
	}
}

func TestLoadJobValidation(t *testing.T) {
	dir := t.TempDir()
	bad := map[string]string{
		"unknown.toml":      `provider = "moodle"`,
		"nokey.toml":        `provider = "wakeup"`,
		"year.toml":         "provider = \"hnvcc\"\nyear = \"24\"",
		"season.toml":       "provider = \"hnvcc\"\nyear = \"2024\"\nseason = \"Summer\"",
		"saved-season.toml": "provider = \"hnvcc\"\nfile = \"page.html\"\nseason = \"spring\"",
		"cqu.toml":          "provider = \"cqu\"\naccess-token = \"\\\"tok\\\"\"",
	}
	for name, content := range bad {
		if _, err := LoadJob(writeFile(t, dir, name, content)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if _, err := LoadJob(writeFile(t, dir, "saved.toml", "provider = \"wakeup\"\nfile = \"blob.txt\"")); err != nil {
		t.Fatalf("file jobs skip credential checks: %v", err)
	}
	if _, err := LoadJob(writeFile(t, dir, "winter.toml", "provider = \"hnvcc\"\nfile = \"page.html\"\nseason = \"winter\"")); err != nil {
		t.Fatalf("winter season must be accepted: %v", err)
	}
}
