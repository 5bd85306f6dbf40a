package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"course-importer/model"

	"github.com/gocarina/gocsv"
)

// CSV file names.
const (
	CoursesCSV   = "courses.csv"
	TimeSlotsCSV = "time_slots.csv"
	ConfigCSV    = "config.csv"
)

// CSV writes each accepted collection to its own file in dir.
type CSV struct {
	dir string
}

// NewCSV returns a CSV gateway writing into dir.
func NewCSV(dir string) *CSV {
	return &CSV{dir: dir}
}

// CourseRow is one line of courses.csv.
type CourseRow struct {
	model.Course
	Weeks string `csv:"weeks"`
}

// ConfigRow is the single line of config.csv. Absent values are empty cells.
type ConfigRow struct {
	SemesterStartDate    string `csv:"semester_start_date"`
	TotalWeeks           int    `csv:"semester_total_weeks"`
	FirstDayOfWeek       int    `csv:"first_day_of_week"`
	DefaultClassDuration string `csv:"default_class_duration"`
	DefaultBreakDuration string `csv:"default_break_duration"`
}

// AcceptScheduleConfig implements Gateway.
func (g *CSV) AcceptScheduleConfig(_ context.Context, cfg model.ScheduleConfig) error {
	row := ConfigRow{
		TotalWeeks:     cfg.TotalWeeks,
		FirstDayOfWeek: cfg.FirstDayOfWeek,
	}
	if cfg.SemesterStartDate != nil {
		row.SemesterStartDate = *cfg.SemesterStartDate
	}
	if cfg.DefaultClassDuration != nil {
		row.DefaultClassDuration = strconv.Itoa(*cfg.DefaultClassDuration)
	}
	if cfg.DefaultBreakDuration != nil {
		row.DefaultBreakDuration = strconv.Itoa(*cfg.DefaultBreakDuration)
	}
	rows := []*ConfigRow{&row}
	return g.write(ConfigCSV, &rows)
}

// AcceptCourses implements Gateway.
func (g *CSV) AcceptCourses(_ context.Context, courses []model.Course) error {
	rows := make([]*CourseRow, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, &CourseRow{Course: c, Weeks: model.FormatWeeks(c.Weeks)})
	}
	return g.write(CoursesCSV, &rows)
}

// AcceptTimeSlots implements Gateway.
func (g *CSV) AcceptTimeSlots(_ context.Context, slots []model.TimeSlot) error {
	rows := make([]*model.TimeSlot, 0, len(slots))
	for i := range slots {
		rows = append(rows, &slots[i])
	}
	return g.write(TimeSlotsCSV, &rows)
}

func (g *CSV) write(name string, rows any) error {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return err
	}
	out, err := os.Create(filepath.Join(g.dir, name))
	if err != nil {
		return fmt.Errorf("error creating %s: %w", name, err)
	}
	defer out.Close()
	if err := gocsv.MarshalFile(rows, out); err != nil {
		return fmt.Errorf("error writing %s: %w", name, err)
	}
	return out.Close()
}
