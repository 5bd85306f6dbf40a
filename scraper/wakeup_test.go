package scraper

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func wakeUpBlob(parts ...string) []byte {
	return []byte(strings.Join(parts, "\n"))
}

const (
	wakeUpBase     = `{"courseLen":45,"theBreakLen":10}`
	wakeUpSlots    = `[{"node":1,"startTime":"08:00","endTime":"08:45"},{"node":2,"startTime":"08:55","endTime":"09:40"},{"node":3,"startTime":"00:00","endTime":"00:00"},{"node":13,"startTime":"21:00","endTime":"21:45"}]`
	wakeUpUI       = `{"nodes":12,"startDate":"2024/09/02","maxWeek":18}`
	wakeUpCatalog  = `[{"id":7,"courseName":"Math"},{"id":8,"courseName":"Physics"}]`
	wakeUpSchedule = `[{"id":7,"startWeek":1,"endWeek":4,"type":0,"startNode":1,"step":2,"day":2,"teacher":"Li","room":"A101"}]`
)

func TestWakeUpFragmentsSingleEntry(t *testing.T) {
	frags, err := WakeUp{}.Fragments(Payload{Body: wakeUpBlob(wakeUpBase, wakeUpSlots, wakeUpUI, wakeUpCatalog, wakeUpSchedule)})
	if err != nil {
		t.Fatalf("fragments: %v", err)
	}
	if len(frags.Courses) != 1 {
		t.Fatalf("expected 1 course, got %d", len(frags.Courses))
	}
	course := frags.Courses[0]
	if course[FieldName] != "Math" || course[FieldTeacher] != "Li" || course[FieldPosition] != "A101" {
		t.Fatalf("unexpected course text fields: %+v", course)
	}
	if course[FieldStartSection] != 1 || course[FieldEndSection] != 2 {
		t.Fatalf("unexpected sections: %+v", course)
	}
	if !reflect.DeepEqual(course[FieldWeeks], []int{1, 2, 3, 4}) {
		t.Fatalf("unexpected weeks: %v", course[FieldWeeks])
	}

	if len(frags.Slots) != 2 {
		t.Fatalf("expected 2 slots after filtering, got %d: %+v", len(frags.Slots), frags.Slots)
	}
	if frags.Config[FieldSemesterStartDate] != "2024/09/02" || frags.Config[FieldTotalWeeks] != 18.0 {
		t.Fatalf("unexpected config: %+v", frags.Config)
	}
	if frags.Config[FieldDefaultClassDuration] != 45.0 || frags.Config[FieldDefaultBreakDuration] != 10.0 {
		t.Fatalf("unexpected durations: %+v", frags.Config)
	}
}

func TestWakeUpFragmentsParityAndOrphans(t *testing.T) {
	schedule := `[
		{"id":8,"startWeek":1,"endWeek":6,"type":1,"startNode":3,"step":1,"day":1,"teacher":"Wang","room":"B2"},
		{"id":8,"startWeek":1,"endWeek":6,"type":2,"startNode":3,"step":1,"day":1,"teacher":"Wang","room":"B2"},
		{"id":99,"startWeek":1,"endWeek":6,"type":0,"startNode":1,"step":1,"day":3},
		{"startWeek":1,"endWeek":2,"type":0,"startNode":1,"step":1,"day":3},
		{"id":7,"startWeek":"one","endWeek":2}
	]`
	frags, err := WakeUp{}.Fragments(Payload{Body: wakeUpBlob(wakeUpBase, wakeUpSlots, wakeUpUI, wakeUpCatalog, strings.ReplaceAll(schedule, "\n", ""))})
	if err != nil {
		t.Fatalf("fragments: %v", err)
	}
	if len(frags.Courses) != 2 {
		t.Fatalf("expected 2 courses, got %d", len(frags.Courses))
	}
	if !reflect.DeepEqual(frags.Courses[0][FieldWeeks], []int{1, 3, 5}) {
		t.Fatalf("odd weeks: %v", frags.Courses[0][FieldWeeks])
	}
	if !reflect.DeepEqual(frags.Courses[1][FieldWeeks], []int{2, 4, 6}) {
		t.Fatalf("even weeks: %v", frags.Courses[1][FieldWeeks])
	}
}

func TestWakeUpFragmentsKeepsHyphenatedTeacher(t *testing.T) {
	schedule := `[{"id":7,"startWeek":1,"endWeek":2,"type":0,"startNode":1,"step":1,"day":1,"teacher":"Jean-Pierre","room":"A101"}]`
	frags, err := WakeUp{}.Fragments(Payload{Body: wakeUpBlob(wakeUpBase, wakeUpSlots, wakeUpUI, wakeUpCatalog, schedule)})
	if err != nil {
		t.Fatalf("fragments: %v", err)
	}
	if len(frags.Courses) != 1 || frags.Courses[0][FieldTeacher] != "Jean-Pierre" {
		t.Fatalf("expected teacher Jean-Pierre, got %+v", frags.Courses)
	}
}

func TestWakeUpFragmentsSkipsWeeksOutsideRange(t *testing.T) {
	schedule := `[{"id":7,"startWeek":-3,"endWeek":0,"type":0,"startNode":1,"step":1,"day":1},` +
		`{"id":8,"startWeek":59,"endWeek":100000000,"type":0,"startNode":1,"step":1,"day":2}]`
	frags, err := WakeUp{}.Fragments(Payload{Body: wakeUpBlob(wakeUpBase, wakeUpSlots, wakeUpUI, wakeUpCatalog, schedule)})
	if err != nil {
		t.Fatalf("fragments: %v", err)
	}
	if len(frags.Courses) != 1 {
		t.Fatalf("expected only the capped course, got %+v", frags.Courses)
	}
	if !reflect.DeepEqual(frags.Courses[0][FieldWeeks], []int{59, 60}) {
		t.Fatalf("expected weeks capped at 60, got %v", frags.Courses[0][FieldWeeks])
	}
}

func TestWakeUpNodesList(t *testing.T) {
	ui := `{"nodes":[1],"startDate":"2024-09-02","maxWeek":18}`
	frags, err := WakeUp{}.Fragments(Payload{Body: wakeUpBlob(wakeUpBase, wakeUpSlots, ui, wakeUpCatalog, wakeUpSchedule)})
	if err != nil {
		t.Fatalf("fragments: %v", err)
	}
	if len(frags.Slots) != 1 || frags.Slots[0][FieldNumber] != 1 {
		t.Fatalf("expected only node 1, got %+v", frags.Slots)
	}
}

func TestWakeUpFragmentsStructuralErrors(t *testing.T) {
	_, err := WakeUp{}.Fragments(Payload{Body: wakeUpBlob(wakeUpBase, wakeUpSlots, wakeUpUI)})
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("expected structural error for short blob, got %v", err)
	}
	_, err = WakeUp{}.Fragments(Payload{Body: wakeUpBlob(wakeUpBase, "{broken", wakeUpUI, wakeUpCatalog, wakeUpSchedule)})
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("expected structural error for bad part, got %v", err)
	}
}

func TestWakeUpFragmentsEmptyCollections(t *testing.T) {
	frags, err := WakeUp{}.Fragments(Payload{Body: wakeUpBlob(`{}`, `[]`, `{}`, `[]`, `[]`)})
	if err != nil {
		t.Fatalf("fragments: %v", err)
	}
	if len(frags.Courses) != 0 || len(frags.Slots) != 0 {
		t.Fatalf("expected empty fragments, got %+v", frags)
	}
}
