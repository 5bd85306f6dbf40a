package gateway

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"course-importer/extract"
	"course-importer/model"

	ics "github.com/arran4/golang-ical"
)

// ICSFile is the calendar written by the ICS gateway.
const ICSFile = "schedule.ics"

// ErrNoStartDate means events cannot be placed on the calendar.
var ErrNoStartDate = errors.New("schedule has no semester start date")

// ICS collects a schedule and writes one VEVENT per course block and week on Flush.
type ICS struct {
	dir string
	loc *time.Location
	now func() time.Time

	schedule model.Schedule
}

// NewICS returns an ICS gateway writing into dir. An empty timezone means local time.
func NewICS(dir, timezone string) (*ICS, error) {
	loc := time.Local
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
		loc = l
	}
	return &ICS{dir: dir, loc: loc, now: time.Now}, nil
}

// AcceptScheduleConfig implements Gateway.
func (g *ICS) AcceptScheduleConfig(_ context.Context, cfg model.ScheduleConfig) error {
	g.schedule.Config = cfg
	return nil
}

// AcceptCourses implements Gateway.
func (g *ICS) AcceptCourses(_ context.Context, courses []model.Course) error {
	g.schedule.Courses = courses
	return nil
}

// AcceptTimeSlots implements Gateway.
func (g *ICS) AcceptTimeSlots(_ context.Context, slots []model.TimeSlot) error {
	g.schedule.TimeSlots = slots
	return nil
}

// Flush implements Flusher.
func (g *ICS) Flush(_ context.Context) error {
	cal, err := g.Calendar()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(g.dir, ICSFile)
	if err := os.WriteFile(path, []byte(cal.Serialize()), 0o644); err != nil {
		return fmt.Errorf("error writing ICS file: %w", err)
	}
	log.Printf("wrote %d events to %s", len(cal.Events()), path)
	return nil
}

// Calendar builds the calendar from the accepted records.
func (g *ICS) Calendar() (*ics.Calendar, error) {
	cfg := g.schedule.Config
	if cfg.SemesterStartDate == nil {
		return nil, ErrNoStartDate
	}
	start, err := time.ParseInLocation(extract.DateLayout, *cfg.SemesterStartDate, g.loc)
	if err != nil {
		return nil, fmt.Errorf("error parsing semester start date: %w", err)
	}
	weekOne := mondayOf(start)

	slots := make(map[int]model.TimeSlot, len(g.schedule.TimeSlots))
	for _, slot := range g.schedule.TimeSlots {
		slots[slot.Number] = slot
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//course-importer//schedule//EN")
	cal.SetXWRTimezone(g.loc.String())
	stamp := g.now().UTC()

	for _, course := range g.schedule.Courses {
		first, ok := slots[course.StartSection]
		last, ok2 := slots[course.EndSection]
		if !ok || !ok2 {
			log.Printf("WARN: no time slot for %s sections %d-%d, skipping", course.Name, course.StartSection, course.EndSection)
			continue
		}
		for _, week := range course.Weeks {
			eventDate := weekOne.AddDate(0, 0, (week-1)*7+course.Day-1)
			startAt, endAt, err := eventTimes(eventDate, first.StartTime, last.EndTime)
			if err != nil {
				log.Printf("WARN: %s week %d: %v", course.Name, week, err)
				continue
			}
			event := cal.AddEvent(eventID(course.Name, startAt.Format(time.RFC3339), endAt.Format(time.RFC3339)))
			event.SetDtStampTime(stamp)
			event.SetStartAt(startAt)
			event.SetEndAt(endAt)
			event.SetSummary(course.Name)
			if course.Position != "" {
				event.SetLocation(course.Position)
			}
			if course.Teacher != "" {
				event.SetDescription(course.Teacher)
			}
		}
	}
	return cal, nil
}

// mondayOf returns midnight of the Monday starting the week that contains t.
func mondayOf(t time.Time) time.Time {
	offset := int(t.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset = 6
	}
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

// eventTimes combines the event date with "15:04" clock times.
func eventTimes(eventDate time.Time, startTimeStr, endTimeStr string) (startDateTime, endDateTime time.Time, err error) {
	loc := eventDate.Location()
	startTime, err := time.ParseInLocation("15:04", startTimeStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("error parsing start time: %w", err)
	}
	endTime, err := time.ParseInLocation("15:04", endTimeStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("error parsing end time: %w", err)
	}

	startDateTime = time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), startTime.Hour(), startTime.Minute(), 0, 0, loc)
	endDateTime = time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), endTime.Hour(), endTime.Minute(), 0, 0, loc)
	if !endDateTime.After(startDateTime) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s is not after start %s", endTimeStr, startTimeStr)
	}
	return startDateTime, endDateTime, nil
}

func eventID(summary, start, end string) string {
	hash := md5.New()
	hash.Write([]byte(summary + start + end))
	return hex.EncodeToString(hash.Sum(nil))
}
