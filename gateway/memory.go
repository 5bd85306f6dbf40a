package gateway

import (
	"context"

	"course-importer/model"
)

// Memory keeps accepted records in process.
type Memory struct {
	Schedule model.Schedule
	// Fail makes the named accept call return this error, for exercising partial saves.
	Fail map[string]error
}

// Accept call names.
const (
	CallConfig    = "config"
	CallCourses   = "courses"
	CallTimeSlots = "timeSlots"
)

// AcceptScheduleConfig implements Gateway.
func (m *Memory) AcceptScheduleConfig(_ context.Context, cfg model.ScheduleConfig) error {
	if err := m.Fail[CallConfig]; err != nil {
		return err
	}
	m.Schedule.Config = cfg
	return nil
}

// AcceptCourses implements Gateway.
func (m *Memory) AcceptCourses(_ context.Context, courses []model.Course) error {
	if err := m.Fail[CallCourses]; err != nil {
		return err
	}
	m.Schedule.Courses = courses
	return nil
}

// AcceptTimeSlots implements Gateway.
func (m *Memory) AcceptTimeSlots(_ context.Context, slots []model.TimeSlot) error {
	if err := m.Fail[CallTimeSlots]; err != nil {
		return err
	}
	m.Schedule.TimeSlots = slots
	return nil
}
