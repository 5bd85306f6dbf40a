package model

import (
	"strconv"
	"strings"
)

// TimeSlot represents one numbered class period of the daily schedule.
type TimeSlot struct {
	Number    int    `json:"number" csv:"number"`
	StartTime string `json:"startTime" csv:"start_time"`
	EndTime   string `json:"endTime" csv:"end_time"`
}

// Course represents one contiguous occupation of sections on a weekday.
type Course struct {
	Name         string `json:"name" csv:"name"`
	Teacher      string `json:"teacher" csv:"teacher"`
	Position     string `json:"position" csv:"position"`
	Day          int    `json:"day" csv:"day"`
	StartSection int    `json:"startSection" csv:"start_section"`
	EndSection   int    `json:"endSection" csv:"end_section"`
	Weeks        []int  `json:"weeks" csv:"-"`
}

// ScheduleConfig describes the calendar anchor of an imported schedule.
type ScheduleConfig struct {
	SemesterStartDate    *string `json:"semesterStartDate"`
	TotalWeeks           int     `json:"semesterTotalWeeks"`
	FirstDayOfWeek       int     `json:"firstDayOfWeek"`
	DefaultClassDuration *int    `json:"defaultClassDuration,omitempty"`
	DefaultBreakDuration *int    `json:"defaultBreakDuration,omitempty"`
}

// Schedule bundles the canonical records of one import run.
type Schedule struct {
	Config    ScheduleConfig `json:"config"`
	Courses   []Course       `json:"courses"`
	TimeSlots []TimeSlot     `json:"timeSlots"`
}

// FirstDayMonday is the only supported first day of week.
const FirstDayMonday = 1

// FormatWeeks renders weeks as "[1,2,3]", the form used for ordering and storage.
func FormatWeeks(weeks []int) string {
	parts := make([]string, len(weeks))
	for i, w := range weeks {
		parts[i] = strconv.Itoa(w)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// SameWeeks reports whether both week sequences are identical, element by element.
func SameWeeks(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
