package scraper

import (
	"encoding/json"
	"log"
	"strings"

	"course-importer/extract"
)

// wakeUpMinParts is the number of newline separated JSON chunks in a share blob:
// base config, time slots, UI config, course catalog, scheduling detail.
const wakeUpMinParts = 5

// WakeUp maps WakeUp share-key blobs.
type WakeUp struct{}

// Provider implements Adapter.
func (WakeUp) Provider() string { return ProviderWakeUp }

// Fragments implements Adapter.
func (WakeUp) Fragments(payload Payload) (*Fragments, error) {
	parts := strings.Split(strings.TrimSpace(string(payload.Body)), "\n")
	if len(parts) < wakeUpMinParts {
		return nil, structural("share data has %d parts, expected at least %d", len(parts), wakeUpMinParts)
	}

	var (
		baseConfig map[string]any
		slotsRaw   []json.RawMessage
		uiConfig   map[string]any
		catalogRaw []json.RawMessage
		detailRaw  []json.RawMessage
	)
	targets := []any{&baseConfig, &slotsRaw, &uiConfig, &catalogRaw, &detailRaw}
	for i, target := range targets {
		if err := json.Unmarshal([]byte(strings.TrimSpace(parts[i])), target); err != nil {
			return nil, structural("decode share part %d: %v", i+1, err)
		}
	}

	return &Fragments{
		Courses: wakeUpCourses(catalogRaw, detailRaw),
		Slots:   wakeUpTimeSlots(slotsRaw, wakeUpNodes(uiConfig["nodes"])),
		Config: Fragment{
			FieldSemesterStartDate:    uiConfig["startDate"],
			FieldTotalWeeks:           uiConfig["maxWeek"],
			FieldDefaultClassDuration: baseConfig["courseLen"],
			FieldDefaultBreakDuration: baseConfig["theBreakLen"],
		},
	}, nil
}

// wakeUpNodes returns the set of valid node numbers. The UI config stores either
// an explicit list or a node count.
func wakeUpNodes(raw any) map[int]bool {
	nodes := map[int]bool{}
	switch val := raw.(type) {
	case []any:
		for _, v := range val {
			if n, ok := intOf(v); ok {
				nodes[n] = true
			}
		}
	case float64:
		if val <= 0 {
			log.Printf("WARN: wakeup: invalid node count %v, no time slots will match", val)
			break
		}
		for n := 1; n <= int(val); n++ {
			nodes[n] = true
		}
	default:
		log.Printf("WARN: wakeup: invalid nodes value %v, no time slots will match", raw)
	}
	return nodes
}

func wakeUpTimeSlots(entries []json.RawMessage, nodes map[int]bool) []Fragment {
	slots := make([]Fragment, 0, len(entries))
	for i, entry := range entries {
		var slot struct {
			Node      any    `json:"node"`
			StartTime string `json:"startTime"`
			EndTime   string `json:"endTime"`
		}
		if err := json.Unmarshal(entry, &slot); err != nil {
			log.Printf("WARN: wakeup: skipping time slot %d: %v", i, err)
			continue
		}
		if slot.StartTime == "00:00" || slot.EndTime == "00:00" {
			continue
		}
		node, ok := intOf(slot.Node)
		if !ok || !nodes[node] {
			continue
		}
		slots = append(slots, Fragment{
			FieldNumber:    node,
			FieldStartTime: slot.StartTime,
			FieldEndTime:   slot.EndTime,
		})
	}
	return slots
}

type wakeUpDetail struct {
	ID        any    `json:"id"`
	StartWeek int    `json:"startWeek"`
	EndWeek   int    `json:"endWeek"`
	Type      int    `json:"type"`
	StartNode int    `json:"startNode"`
	Step      int    `json:"step"`
	Day       any    `json:"day"`
	Teacher   string `json:"teacher"`
	Room      string `json:"room"`
}

func wakeUpCourses(catalogRaw, detailRaw []json.RawMessage) []Fragment {
	catalog := map[string]any{}
	for i, entry := range catalogRaw {
		var course struct {
			ID         any `json:"id"`
			CourseName any `json:"courseName"`
		}
		if err := json.Unmarshal(entry, &course); err != nil || course.ID == nil {
			log.Printf("WARN: wakeup: skipping catalog entry %d", i)
			continue
		}
		catalog[textOf(course.ID)] = course.CourseName
	}

	courses := make([]Fragment, 0, len(detailRaw))
	for i, entry := range detailRaw {
		var detail wakeUpDetail
		if err := json.Unmarshal(entry, &detail); err != nil {
			log.Printf("WARN: wakeup: skipping schedule entry %d: %v", i, err)
			continue
		}
		if detail.ID == nil {
			continue
		}
		name, ok := catalog[textOf(detail.ID)]
		if !ok {
			// Catalog and schedule can be out of sync at the source.
			continue
		}

		weeks := extract.ExpandWeeks(detail.StartWeek, detail.EndWeek, detail.Type)
		if len(weeks) == 0 {
			log.Printf("WARN: wakeup: skipping %q: no weeks in %d-%d (type %d)", textOf(name), detail.StartWeek, detail.EndWeek, detail.Type)
			continue
		}
		step := detail.Step
		if step < 1 {
			step = 1
		}

		courses = append(courses, Fragment{
			FieldName:         name,
			FieldTeacher:      detail.Teacher,
			FieldPosition:     detail.Room,
			FieldDay:          detail.Day,
			FieldStartSection: detail.StartNode,
			FieldEndSection:   detail.StartNode + step - 1,
			FieldWeeks:        weeks,
		})
	}
	return courses
}
