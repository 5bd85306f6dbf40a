package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"course-importer/model"
)

// JSON file names, one per bridge payload.
const (
	ConfigJSON    = "config.json"
	CoursesJSON   = "courses.json"
	TimeSlotsJSON = "time_slots.json"
)

// JSON writes each accepted collection as an indented JSON document in dir.
type JSON struct {
	dir string
}

// NewJSON returns a JSON gateway writing into dir.
func NewJSON(dir string) *JSON {
	return &JSON{dir: dir}
}

// AcceptScheduleConfig implements Gateway.
func (g *JSON) AcceptScheduleConfig(_ context.Context, cfg model.ScheduleConfig) error {
	return g.write(ConfigJSON, cfg)
}

// AcceptCourses implements Gateway.
func (g *JSON) AcceptCourses(_ context.Context, courses []model.Course) error {
	return g.write(CoursesJSON, courses)
}

// AcceptTimeSlots implements Gateway.
func (g *JSON) AcceptTimeSlots(_ context.Context, slots []model.TimeSlot) error {
	return g.write(TimeSlotsJSON, slots)
}

func (g *JSON) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling %s: %w", name, err)
	}
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(g.dir, name), append(data, '\n'), 0o644)
}
