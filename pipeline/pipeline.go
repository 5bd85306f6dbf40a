// Package pipeline runs one import: adapter fragments are mapped to canonical
// records, merged into blocks and handed to a persistence gateway.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"course-importer/gateway"
	"course-importer/mapper"
	"course-importer/merge"
	"course-importer/model"
	"course-importer/scraper"
)

// ErrNoCourses aborts an import whose payload yielded no usable course.
var ErrNoCourses = errors.New("no courses found in payload")

// Notifier receives user feedback. It never influences control flow.
type Notifier interface {
	ReportMessage(msg string)
	TaskComplete()
}

// LogNotifier writes feedback to the standard logger.
type LogNotifier struct{}

// ReportMessage implements Notifier.
func (LogNotifier) ReportMessage(msg string) {
	log.Println(msg)
}

// TaskComplete implements Notifier.
func (LogNotifier) TaskComplete() {
	log.Println("All tasks completed.")
}

// Report summarizes one import run.
type Report struct {
	Provider string
	Schedule model.Schedule
	// Parsed is the course count before merging.
	Parsed int
	// Saved lists the accept calls that succeeded.
	Saved []string
}

// Merged is the number of records absorbed into neighbouring blocks.
func (r *Report) Merged() int {
	return r.Parsed - len(r.Schedule.Courses)
}

// PersistError reports the accept calls that failed. Calls that succeeded are
// not rolled back.
type PersistError struct {
	Failed map[string]error
	Saved  []string
}

func (e *PersistError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for name := range e.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %v", name, e.Failed[name]))
	}
	msg := "save failed for " + strings.Join(parts, "; ")
	if len(e.Saved) > 0 {
		msg += " (saved: " + strings.Join(e.Saved, ", ") + ")"
	}
	return msg
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *PersistError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		errs = append(errs, err)
	}
	return errs
}

// Pipeline wires a gateway and a notifier.
type Pipeline struct {
	Gateway  gateway.Gateway
	Notifier Notifier
	// NoMerge hands the mapped records to the gateway as parsed.
	NoMerge bool
}

// New returns a pipeline that merges and reports through the standard logger.
func New(gw gateway.Gateway) *Pipeline {
	return &Pipeline{Gateway: gw, Notifier: LogNotifier{}}
}

// Transform runs the pure part of an import: fragments, mapping and merge.
func Transform(adapter scraper.Adapter, payload scraper.Payload, doMerge bool) (*Report, error) {
	frags, err := adapter.Fragments(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", adapter.Provider(), err)
	}
	schedule := mapper.Map(frags)
	report := &Report{Provider: adapter.Provider(), Parsed: len(schedule.Courses)}
	if doMerge {
		schedule.Courses = merge.Merge(schedule.Courses)
	}
	report.Schedule = schedule
	return report, nil
}

// Run imports one payload. Structural failures abort before anything is saved.
// A failed accept call is returned as *PersistError together with the report.
func (p *Pipeline) Run(ctx context.Context, adapter scraper.Adapter, payload scraper.Payload) (*Report, error) {
	notifier := p.Notifier
	if notifier == nil {
		notifier = LogNotifier{}
	}

	report, err := Transform(adapter, payload, !p.NoMerge)
	if err != nil {
		notifier.ReportMessage("Import failed: " + err.Error())
		return nil, err
	}
	schedule := report.Schedule
	if len(schedule.Courses) == 0 {
		notifier.ReportMessage("No courses were parsed. Check the login state, the selected term or whether the timetable is empty.")
		return report, fmt.Errorf("%s: %w", report.Provider, ErrNoCourses)
	}

	failed := map[string]error{}
	save := func(name string, fn func() error) {
		if err := fn(); err != nil {
			failed[name] = err
			notifier.ReportMessage(fmt.Sprintf("Saving %s failed: %v", name, err))
			return
		}
		report.Saved = append(report.Saved, name)
	}

	save(gateway.CallCourses, func() error {
		return p.Gateway.AcceptCourses(ctx, schedule.Courses)
	})
	if _, ok := failed[gateway.CallCourses]; !ok {
		notifier.ReportMessage(fmt.Sprintf("Imported courses: %d parsed, %d merged, %d saved.",
			report.Parsed, report.Merged(), len(schedule.Courses)))
	}

	save(gateway.CallConfig, func() error {
		return p.Gateway.AcceptScheduleConfig(ctx, schedule.Config)
	})

	if len(schedule.TimeSlots) == 0 {
		notifier.ReportMessage("No time slots found, keeping the existing ones.")
	} else {
		save(gateway.CallTimeSlots, func() error {
			return p.Gateway.AcceptTimeSlots(ctx, schedule.TimeSlots)
		})
	}

	if flusher, ok := p.Gateway.(gateway.Flusher); ok && len(failed) == 0 {
		if err := flusher.Flush(ctx); err != nil {
			failed["flush"] = err
			notifier.ReportMessage(fmt.Sprintf("Writing output failed: %v", err))
		}
	}

	if len(failed) > 0 {
		return report, &PersistError{Failed: failed, Saved: report.Saved}
	}
	notifier.TaskComplete()
	return report, nil
}
