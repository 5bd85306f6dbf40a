package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"course-importer/scraper"
	"course-importer/validate"

	"github.com/BurntSushi/toml"
)

// Job describes one import: which provider, how to reach it and where to save.
type Job struct {
	Name     string `toml:"-"`
	Provider string `toml:"provider"`
	// File reads a saved payload instead of fetching it.
	File string `toml:"file"`

	// WakeUp share key.
	Key string `toml:"key"`

	// CQU credentials from a logged-in browser session.
	AccessToken string `toml:"access-token"`
	StudentID   string `toml:"student-id"`

	// HNVCC term selection.
	Year     string `toml:"year"`
	Semester int    `toml:"semester"`
	Season   string `toml:"season"`
	Cookie   string `toml:"cookie"`

	Gateway *GatewayConfig `toml:"gateway"`
}

// LoadJob reads a job file. The job is named after the file.
func LoadJob(path string) (Job, error) {
	var job Job
	if _, err := toml.DecodeFile(path, &job); err != nil {
		return Job{}, fmt.Errorf("failed to decode job %s: %w", path, err)
	}
	job.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := job.Validate(); err != nil {
		return Job{}, fmt.Errorf("job %s: %w", job.Name, err)
	}
	return job, nil
}

// Validate checks the fields the job's provider needs.
func (j Job) Validate() error {
	if _, err := scraper.Lookup(j.Provider); err != nil {
		return err
	}
	if j.Provider == scraper.ProviderHNVCC {
		switch j.Season {
		case "", scraper.SeasonSummer, scraper.SeasonWinter:
		default:
			return fmt.Errorf("season must be %s or %s, got %q", scraper.SeasonSummer, scraper.SeasonWinter, j.Season)
		}
	}
	if j.File != "" {
		return nil
	}
	switch j.Provider {
	case scraper.ProviderWakeUp:
		return validate.Run("validateKey", j.Key)
	case scraper.ProviderCQU:
		if _, err := scraper.CheckAccessToken(j.AccessToken); err != nil {
			return err
		}
		if j.StudentID == "" {
			return fmt.Errorf("student-id is required")
		}
	case scraper.ProviderHNVCC:
		if err := validate.Run("validateYearInput", j.Year); err != nil {
			return err
		}
		if err := validate.Run("validateSemesterIndex", strconv.Itoa(j.Semester)); err != nil {
			return err
		}
	}
	return nil
}

// WithGateway returns cfg with the job's gateway overrides applied.
func (j Job) WithGateway(cfg Config) Config {
	if j.Gateway == nil {
		return cfg
	}
	o := *j.Gateway
	g := &cfg.Gateway
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&g.Kind, o.Kind},
		{&g.DBPath, o.DBPath},
		{&g.OutDir, o.OutDir},
		{&g.Timezone, o.Timezone},
		{&g.GithubToken, o.GithubToken},
		{&g.GithubRepo, o.GithubRepo},
		{&g.GithubPath, o.GithubPath},
		{&g.GithubAPI, o.GithubAPI},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	return cfg
}
