package scraper

import (
	"encoding/json"
	"log"
	"strings"

	"course-importer/extract"
)

// CQU request names, used as Payload.Parts keys.
const (
	PartStartDate = "startDate"
	PartMaxWeek   = "maxWeek"
	PartTimeSlots = "timeSlots"
	PartSchedule  = "schedule"
)

// CQU maps the structured JSON API of my.cqu.edu.cn.
type CQU struct{}

// Provider implements Adapter.
func (CQU) Provider() string { return ProviderCQU }

// Fragments implements Adapter. Only the schedule part is required; the
// session, week count and time pattern responses fall back to defaults.
func (CQU) Fragments(payload Payload) (*Fragments, error) {
	raw, ok := payload.Parts[PartSchedule]
	if !ok {
		return nil, structural("missing %s response", PartSchedule)
	}
	var schedule struct {
		ClassTimetableVOList []json.RawMessage `json:"classTimetableVOList"`
	}
	if err := json.Unmarshal(raw, &schedule); err != nil {
		return nil, structural("decode %s response: %v", PartSchedule, err)
	}

	frags := &Fragments{
		Courses: cquCourses(schedule.ClassTimetableVOList),
		Slots:   cquTimeSlots(payload.Parts[PartTimeSlots]),
		Config:  Fragment{},
	}

	if raw, ok := payload.Parts[PartStartDate]; ok {
		var session struct {
			Data struct {
				BeginDate any `json:"beginDate"`
			} `json:"data"`
		}
		if err := json.Unmarshal(raw, &session); err != nil {
			log.Printf("WARN: cqu: cannot decode session detail: %v", err)
		} else {
			frags.Config[FieldSemesterStartDate] = session.Data.BeginDate
		}
	} else {
		log.Printf("WARN: cqu: session detail missing, semester start date left empty")
	}

	if raw, ok := payload.Parts[PartMaxWeek]; ok {
		var maxWeek struct {
			Data any `json:"data"`
		}
		if err := json.Unmarshal(raw, &maxWeek); err != nil {
			log.Printf("WARN: cqu: cannot decode max week: %v", err)
		} else {
			frags.Config[FieldTotalWeeks] = maxWeek.Data
		}
	} else {
		log.Printf("WARN: cqu: max week missing, using default week count")
	}

	return frags, nil
}

func cquCourses(entries []json.RawMessage) []Fragment {
	courses := make([]Fragment, 0, len(entries))
	for i, entry := range entries {
		var course map[string]any
		if err := json.Unmarshal(entry, &course); err != nil || course == nil {
			log.Printf("WARN: cqu: skipping timetable entry %d: not an object", i)
			continue
		}

		sections, ok := extract.ParseSections(textOf(course["periodFormat"]))
		if !ok {
			log.Printf("WARN: cqu: skipping %q: unusable period %q", textOf(course["courseName"]), textOf(course["periodFormat"]))
			continue
		}
		weeks := extract.ParseWeekMask(textOf(course["teachingWeek"]))
		if len(weeks) == 0 {
			log.Printf("WARN: cqu: skipping %q: no teaching weeks", textOf(course["courseName"]))
			continue
		}

		position := course["position"]
		if position == nil {
			position = course["roomName"]
		}

		courses = append(courses, Fragment{
			FieldName:         course["courseName"],
			FieldTeacher:      cquTeacher(course["instructorName"]),
			FieldPosition:     position,
			FieldDay:          course["weekDay"],
			FieldStartSection: sections.Start,
			FieldEndSection:   sections.End,
			FieldWeeks:        weeks,
		})
	}
	return courses
}

// cquTeacherSeparator splits instructor values such as "Name-Title".
const cquTeacherSeparator = "-"

// cquTeacher keeps the instructor name before the first separator.
func cquTeacher(v any) any {
	name, ok := v.(string)
	if !ok {
		return v
	}
	if i := strings.Index(name, cquTeacherSeparator); i >= 0 {
		return strings.TrimSpace(name[:i])
	}
	return name
}

func cquTimeSlots(raw []byte) []Fragment {
	if raw == nil {
		log.Printf("WARN: cqu: time pattern missing, no time slots imported")
		return []Fragment{}
	}
	var pattern struct {
		Data struct {
			ClassPeriodVOS []json.RawMessage `json:"classPeriodVOS"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &pattern); err != nil {
		log.Printf("WARN: cqu: cannot decode time pattern: %v", err)
		return []Fragment{}
	}

	slots := make([]Fragment, 0, len(pattern.Data.ClassPeriodVOS))
	for i, entry := range pattern.Data.ClassPeriodVOS {
		var period map[string]any
		if err := json.Unmarshal(entry, &period); err != nil || period == nil {
			log.Printf("WARN: cqu: skipping class period %d: not an object", i)
			continue
		}
		slots = append(slots, Fragment{
			FieldNumber:    period["periodOrder"],
			FieldStartTime: period["startTime"],
			FieldEndTime:   period["endTime"],
		})
	}
	return slots
}

// DecodeCQUEnvelope splits a saved JSON object of the form
// {"schedule": {...}, "timeSlots": {...}, ...} into payload parts.
func DecodeCQUEnvelope(body []byte) (Payload, error) {
	var parts map[string]json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return Payload{}, structural("decode cqu envelope: %v", err)
	}
	payload := Payload{Parts: make(map[string][]byte, len(parts))}
	for name, raw := range parts {
		if string(raw) == "null" {
			continue
		}
		payload.Parts[name] = raw
	}
	return payload, nil
}
