package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"course-importer/config"
	"course-importer/gateway"
	"course-importer/pipeline"
	"course-importer/scraper"
	"course-importer/validate"
)

// loadPayload resolves a job to a provider payload, from its saved file or by fetching.
func loadPayload(ctx context.Context, cfg config.Config, job config.Job) (scraper.Payload, error) {
	season := job.Season
	if season == "" {
		season = cfg.Season()
	}

	if job.File != "" {
		data, err := os.ReadFile(job.File)
		if err != nil {
			return scraper.Payload{}, fmt.Errorf("error reading payload file: %w", err)
		}
		if job.Provider == scraper.ProviderCQU {
			return scraper.DecodeCQUEnvelope(data)
		}
		return scraper.Payload{Body: data, Options: map[string]string{scraper.OptionSeason: season}}, nil
	}

	fetchCfg, err := cfg.FetcherConfig()
	if err != nil {
		return scraper.Payload{}, err
	}
	fetcher := scraper.NewFetcher(fetchCfg)
	endpoints := cfg.ProviderEndpoints()

	switch job.Provider {
	case scraper.ProviderCQU:
		return scraper.FetchCQU(ctx, fetcher, endpoints.CQU, job.AccessToken, job.StudentID)
	case scraper.ProviderWakeUp:
		return scraper.FetchWakeUp(ctx, fetcher, endpoints.WakeUp, job.Key)
	case scraper.ProviderHNVCC:
		xnxqid, err := validate.SchoolYearID(job.Year, job.Semester)
		if err != nil {
			return scraper.Payload{}, err
		}
		log.Printf("Fetching HNVCC term %s with the %s time table", xnxqid, season)
		return scraper.FetchHNVCC(ctx, fetcher, endpoints.HNVCC, xnxqid, job.Cookie, season)
	default:
		return scraper.Payload{}, fmt.Errorf("unknown provider %q", job.Provider)
	}
}

// runJob fetches, transforms and saves one import.
func runJob(ctx context.Context, cfg config.Config, job config.Job) (*pipeline.Report, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	adapter, err := scraper.Lookup(job.Provider)
	if err != nil {
		return nil, err
	}
	payload, err := loadPayload(ctx, cfg, job)
	if err != nil {
		return nil, err
	}

	cfg = job.WithGateway(cfg)
	gw, closeFn, err := gateway.Open(cfg.GatewayOptions(job.Provider))
	if err != nil {
		return nil, fmt.Errorf("error opening gateway: %w", err)
	}
	defer func() {
		if cerr := closeFn(); cerr != nil {
			log.Printf("error closing gateway: %v", cerr)
		}
	}()

	p := pipeline.New(gw)
	p.NoMerge = !cfg.MergeEnabled()
	report, err := p.Run(ctx, adapter, payload)
	if run, ok := gw.(*gateway.StoreRun); ok && report != nil && len(report.Saved) > 0 {
		log.Printf("Stored as import %s", run.ID())
	}
	return report, err
}

// retryable reports whether a failed job may succeed on a later attempt.
func retryable(err error) bool {
	return errors.Is(err, scraper.ErrTransport)
}
