// Package mapper converts adapter fragments into canonical schedule records.
package mapper

import (
	"log"
	"math"
	"sort"
	"strconv"
	"strings"

	"course-importer/extract"
	"course-importer/model"
	"course-importer/scraper"
)

// DefaultTotalWeeks is used when a source reports no usable semester length.
const DefaultTotalWeeks = 20

// defaults is the default-substitution table: the value each field takes
// when the source value is absent, null, or not meaningfully present.
var defaults = map[string]any{
	scraper.FieldName:         "",
	scraper.FieldTeacher:      "",
	scraper.FieldPosition:     "",
	scraper.FieldDay:          0,
	scraper.FieldStartSection: 0,
	scraper.FieldEndSection:   0,
	scraper.FieldWeeks:        []int{},

	scraper.FieldNumber:    0,
	scraper.FieldStartTime: "",
	scraper.FieldEndTime:   "",

	scraper.FieldSemesterStartDate: "",
	scraper.FieldTotalWeeks:        DefaultTotalWeeks,
}

// Map converts every fragment of one adapter run. Courses left without a
// teaching week are dropped.
func Map(frags *scraper.Fragments) model.Schedule {
	schedule := model.Schedule{
		Courses:   make([]model.Course, 0, len(frags.Courses)),
		TimeSlots: MapTimeSlots(frags.Slots),
		Config:    MapConfig(frags.Config),
	}
	for _, f := range frags.Courses {
		course := MapCourse(f)
		if len(course.Weeks) == 0 {
			log.Printf("WARN: dropping %q on day %d: no valid weeks", course.Name, course.Day)
			continue
		}
		schedule.Courses = append(schedule.Courses, course)
	}
	return schedule
}

// MapCourse converts one course fragment. A start section without an end
// section covers a single period.
func MapCourse(f scraper.Fragment) model.Course {
	start := number(f, scraper.FieldStartSection)
	end := start
	if present(f[scraper.FieldEndSection]) {
		end = number(f, scraper.FieldEndSection)
	}
	if end < start {
		log.Printf("WARN: section range %d-%d is reversed, swapping", start, end)
		start, end = end, start
	}
	return model.Course{
		Name:         text(f, scraper.FieldName),
		Teacher:      text(f, scraper.FieldTeacher),
		Position:     text(f, scraper.FieldPosition),
		Day:          number(f, scraper.FieldDay),
		StartSection: start,
		EndSection:   end,
		Weeks:        weeks(f, scraper.FieldWeeks),
	}
}

// MapTimeSlots converts slot fragments; a slot without a number takes its 1-based position.
func MapTimeSlots(frags []scraper.Fragment) []model.TimeSlot {
	slots := make([]model.TimeSlot, 0, len(frags))
	for i, f := range frags {
		n := number(f, scraper.FieldNumber)
		if n <= 0 {
			n = i + 1
		}
		slots = append(slots, model.TimeSlot{
			Number:    n,
			StartTime: text(f, scraper.FieldStartTime),
			EndTime:   text(f, scraper.FieldEndTime),
		})
	}
	return slots
}

// MapConfig converts the config fragment. Durations stay unset when absent.
func MapConfig(f scraper.Fragment) model.ScheduleConfig {
	cfg := model.ScheduleConfig{
		TotalWeeks:     number(f, scraper.FieldTotalWeeks),
		FirstDayOfWeek: model.FirstDayMonday,
	}
	if cfg.TotalWeeks <= 0 {
		log.Printf("WARN: invalid semester length %v, using %d weeks", f[scraper.FieldTotalWeeks], DefaultTotalWeeks)
		cfg.TotalWeeks = DefaultTotalWeeks
	}
	if raw := text(f, scraper.FieldSemesterStartDate); raw != "" {
		cfg.SemesterStartDate = extract.NormalizeDate(raw)
	}
	if n, ok := toInt(f[scraper.FieldDefaultClassDuration]); ok {
		cfg.DefaultClassDuration = &n
	}
	if n, ok := toInt(f[scraper.FieldDefaultBreakDuration]); ok {
		cfg.DefaultBreakDuration = &n
	}
	return cfg
}

// present reports whether a value carries meaningful content.
func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case float64:
		return !math.IsNaN(val)
	default:
		return true
	}
}

func text(f scraper.Fragment, key string) string {
	v := f[key]
	if !present(v) {
		return defaults[key].(string)
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		log.Printf("WARN: field %s has unexpected value %v, using default", key, v)
		return defaults[key].(string)
	}
}

func number(f scraper.Fragment, key string) int {
	n, ok := toInt(f[key])
	if !ok {
		if present(f[key]) {
			log.Printf("WARN: field %s has non-numeric value %v, using default", key, f[key])
		}
		return defaults[key].(int)
	}
	return n
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return int(val), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		return n, err == nil
	default:
		return 0, false
	}
}

// weeks coerces a week list into the strictly increasing, duplicate-free form.
func weeks(f scraper.Fragment, key string) []int {
	var raw []int
	switch val := f[key].(type) {
	case []int:
		raw = val
	case []any:
		for _, v := range val {
			if n, ok := toInt(v); ok {
				raw = append(raw, n)
			}
		}
	default:
		if present(val) {
			log.Printf("WARN: field %s has unexpected value %v, using no weeks", key, val)
		}
		return append([]int{}, defaults[key].([]int)...)
	}

	seen := map[int]bool{}
	out := make([]int, 0, len(raw))
	for _, w := range raw {
		if w <= 0 || w > extract.MaxWeek || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}
