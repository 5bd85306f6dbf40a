package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"course-importer/config"
)

const (
	maxRetries = 3
	retryDelay = 5 * time.Second
)

// runDaemon re-runs every job file on the configured interval until ctx ends.
// A failing job is logged and does not stop the others.
func runDaemon(ctx context.Context, cfg config.Config) error {
	interval, err := cfg.Interval()
	if err != nil {
		return err
	}
	log.Printf("Running jobs from %s every %s", cfg.JobsGlob(), interval)

	for {
		if err := runJobsOnce(ctx, cfg); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func runJobsOnce(ctx context.Context, cfg config.Config) error {
	jobFiles, err := filepath.Glob(cfg.JobsGlob())
	if err != nil {
		return fmt.Errorf("error reading job files: %w", err)
	}
	if len(jobFiles) == 0 {
		log.Printf("No job files match %s", cfg.JobsGlob())
	}

	for _, jobFile := range jobFiles {
		job, err := config.LoadJob(jobFile)
		if err != nil {
			log.Printf("Error loading job (%s): %v", jobFile, err)
			continue
		}

		for retries := 0; retries < maxRetries; retries++ {
			report, err := runJob(ctx, cfg, job)
			if err == nil {
				log.Printf("Job %s imported %d courses on attempt %d", job.Name, len(report.Schedule.Courses), retries+1)
				break
			}
			log.Printf("Error running job %s, attempt %d: %v", job.Name, retries+1, err)
			if !retryable(err) {
				break
			}
			// Wait before retrying in case of transient errors
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}
