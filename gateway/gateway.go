// Package gateway stores finished canonical schedule records.
package gateway

import (
	"context"
	"fmt"

	"course-importer/model"
)

// Gateway accepts the three canonical collections of an import run. Each call
// succeeds or fails on its own; gateways never roll back earlier calls.
type Gateway interface {
	AcceptScheduleConfig(ctx context.Context, cfg model.ScheduleConfig) error
	AcceptCourses(ctx context.Context, courses []model.Course) error
	AcceptTimeSlots(ctx context.Context, slots []model.TimeSlot) error
}

// Flusher is implemented by gateways that write one artifact from everything
// they accepted.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Options selects and configures a gateway.
type Options struct {
	Kind     string
	DBPath   string
	OutDir   string
	Timezone string
	Provider string

	GithubToken string
	GithubRepo  string
	GithubPath  string
	GithubAPI   string
}

// Gateway kinds.
const (
	KindSQLite = "sqlite"
	KindICS    = "ics"
	KindCSV    = "csv"
	KindJSON   = "json"
	KindGithub = "github"
	KindMemory = "memory"
)

// Open builds the gateway named by opts.Kind. The returned close function
// releases its resources.
func Open(opts Options) (Gateway, func() error, error) {
	noop := func() error { return nil }
	switch opts.Kind {
	case KindSQLite:
		st, err := OpenStore(opts.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return st.Begin(opts.Provider), st.Close, nil
	case KindICS:
		g, err := NewICS(opts.OutDir, opts.Timezone)
		if err != nil {
			return nil, nil, err
		}
		return g, noop, nil
	case KindCSV:
		return NewCSV(opts.OutDir), noop, nil
	case KindJSON:
		return NewJSON(opts.OutDir), noop, nil
	case KindGithub:
		return NewGithub(opts.GithubAPI, opts.GithubToken, opts.GithubRepo, opts.GithubPath), noop, nil
	case KindMemory, "":
		return &Memory{}, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown gateway kind %q", opts.Kind)
	}
}
