package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"course-importer/config"
	"course-importer/gateway"
	"course-importer/site"
)

// startServer serves the import routes until ctx is cancelled.
func startServer(ctx context.Context, cfg config.Config, persist bool) error {
	srv := &site.Server{
		Merge:  cfg.MergeEnabled(),
		Season: cfg.Season(),
	}
	if persist {
		srv.Open = func(provider string) (gateway.Gateway, func() error, error) {
			return gateway.Open(cfg.GatewayOptions(provider))
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("error shutting down server: %v", err)
		}
	}()

	log.Printf("Starting HTTP server on http://localhost:%s\n", cfg.Port())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
