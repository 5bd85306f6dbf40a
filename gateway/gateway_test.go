package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"course-importer/model"

	ics "github.com/arran4/golang-ical"
)

func sampleSchedule() model.Schedule {
	start := "2024-09-02"
	classLen := 45
	return model.Schedule{
		Config: model.ScheduleConfig{
			SemesterStartDate:    &start,
			TotalWeeks:           16,
			FirstDayOfWeek:       model.FirstDayMonday,
			DefaultClassDuration: &classLen,
		},
		Courses: []model.Course{
			{Name: "Math", Teacher: "Li", Position: "A101", Day: 2, StartSection: 1, EndSection: 2, Weeks: []int{1, 3}},
			{Name: "Night", Day: 5, StartSection: 11, EndSection: 11, Weeks: []int{2}},
		},
		TimeSlots: []model.TimeSlot{
			{Number: 1, StartTime: "08:00", EndTime: "08:45"},
			{Number: 2, StartTime: "08:55", EndTime: "09:40"},
		},
	}
}

func accept(t *testing.T, g Gateway, s model.Schedule) {
	t.Helper()
	ctx := context.Background()
	if err := g.AcceptScheduleConfig(ctx, s.Config); err != nil {
		t.Fatalf("accept config: %v", err)
	}
	if err := g.AcceptCourses(ctx, s.Courses); err != nil {
		t.Fatalf("accept courses: %v", err)
	}
	if err := g.AcceptTimeSlots(ctx, s.TimeSlots); err != nil {
		t.Fatalf("accept slots: %v", err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	st, err := OpenStore(filepath.Join(t.TempDir(), "nested", "imports.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	if _, err := st.LatestImport(ctx, ""); !errors.Is(err, ErrNoImports) {
		t.Fatalf("expected ErrNoImports, got %v", err)
	}

	want := sampleSchedule()
	run := st.Begin("wakeup")
	accept(t, run, want)

	latest, err := st.LatestImport(ctx, "wakeup")
	if err != nil {
		t.Fatalf("latest import: %v", err)
	}
	if latest.ID != run.ID() || latest.Provider != "wakeup" {
		t.Fatalf("unexpected latest import: %+v", latest)
	}
	if _, err := st.LatestImport(ctx, "cqu"); !errors.Is(err, ErrNoImports) {
		t.Fatalf("expected no cqu imports, got %v", err)
	}

	got, err := st.LoadSchedule(ctx, run.ID())
	if err != nil {
		t.Fatalf("load schedule: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("stored schedule differs:\n got %+v\nwant %+v", got, want)
	}
}

func TestStoreRunsAreSeparate(t *testing.T) {
	ctx := context.Background()
	st, err := OpenStore(filepath.Join(t.TempDir(), "imports.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	first := st.Begin("cqu")
	if err := first.AcceptCourses(ctx, sampleSchedule().Courses); err != nil {
		t.Fatalf("accept: %v", err)
	}
	second := st.Begin("cqu")
	if err := second.AcceptCourses(ctx, []model.Course{}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if first.ID() == second.ID() {
		t.Fatalf("expected distinct run ids")
	}
	courses, err := st.ListCourses(ctx, first.ID())
	if err != nil || len(courses) != 2 {
		t.Fatalf("expected 2 courses in first run, got %d (%v)", len(courses), err)
	}
	courses, err = st.ListCourses(ctx, second.ID())
	if err != nil || len(courses) != 0 {
		t.Fatalf("expected no courses in second run, got %d (%v)", len(courses), err)
	}
}

func TestICSFlush(t *testing.T) {
	dir := t.TempDir()
	g, err := NewICS(dir, "UTC")
	if err != nil {
		t.Fatalf("new ics: %v", err)
	}
	g.now = func() time.Time { return time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC) }
	accept(t, g, sampleSchedule())
	if err := g.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ICSFile))
	if err != nil {
		t.Fatalf("read ics: %v", err)
	}
	cal, err := ics.ParseCalendar(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("parse ics: %v", err)
	}
	events := cal.Events()
	// Night has no slot 11 and is skipped.
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	wantStarts := []string{"20240903T080000Z", "20240917T080000Z"}
	for i, event := range events {
		start := event.GetProperty(ics.ComponentPropertyDtStart)
		end := event.GetProperty(ics.ComponentPropertyDtEnd)
		if start == nil || start.Value != wantStarts[i] {
			t.Fatalf("event %d: unexpected start %+v", i, start)
		}
		if end == nil || !strings.HasSuffix(end.Value, "T094000Z") {
			t.Fatalf("event %d: unexpected end %+v", i, end)
		}
		if loc := event.GetProperty(ics.ComponentPropertyLocation); loc == nil || loc.Value != "A101" {
			t.Fatalf("event %d: unexpected location %+v", i, loc)
		}
	}
	uid := eventID("Math", "2024-09-03T08:00:00Z", "2024-09-03T09:40:00Z")
	if events[0].Id() != uid {
		t.Fatalf("expected uid %s, got %s", uid, events[0].Id())
	}
}

func TestICSRequiresStartDate(t *testing.T) {
	g, err := NewICS(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new ics: %v", err)
	}
	s := sampleSchedule()
	s.Config.SemesterStartDate = nil
	accept(t, g, s)
	if err := g.Flush(context.Background()); !errors.Is(err, ErrNoStartDate) {
		t.Fatalf("expected ErrNoStartDate, got %v", err)
	}
}

func TestMondayOf(t *testing.T) {
	cases := map[string]string{
		"2024-09-02": "2024-09-02",
		"2024-09-04": "2024-09-02",
		"2024-09-08": "2024-09-02",
	}
	for in, want := range cases {
		d, _ := time.Parse("2006-01-02", in)
		if got := mondayOf(d).Format("2006-01-02"); got != want {
			t.Fatalf("mondayOf(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestCSVGateway(t *testing.T) {
	dir := t.TempDir()
	accept(t, NewCSV(dir), sampleSchedule())

	courses, err := os.ReadFile(filepath.Join(dir, CoursesCSV))
	if err != nil {
		t.Fatalf("read courses: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(courses)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", courses)
	}
	if !strings.Contains(lines[0], "start_section") || !strings.Contains(lines[1], `"[1,3]"`) {
		t.Fatalf("unexpected courses csv: %q", courses)
	}

	cfg, err := os.ReadFile(filepath.Join(dir, ConfigCSV))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(cfg), "2024-09-02,16,1,45,") {
		t.Fatalf("unexpected config csv: %q", cfg)
	}
	if _, err := os.Stat(filepath.Join(dir, TimeSlotsCSV)); err != nil {
		t.Fatalf("expected time slots csv: %v", err)
	}
}

func TestJSONGateway(t *testing.T) {
	dir := t.TempDir()
	want := sampleSchedule()
	accept(t, NewJSON(dir), want)

	data, err := os.ReadFile(filepath.Join(dir, CoursesJSON))
	if err != nil {
		t.Fatalf("read courses: %v", err)
	}
	var courses []model.Course
	if err := json.Unmarshal(data, &courses); err != nil {
		t.Fatalf("decode courses: %v", err)
	}
	if !reflect.DeepEqual(courses, want.Courses) {
		t.Fatalf("unexpected courses: %+v", courses)
	}

	data, err = os.ReadFile(filepath.Join(dir, ConfigJSON))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), `"semesterTotalWeeks": 16`) || strings.Contains(string(data), "defaultBreakDuration") {
		t.Fatalf("unexpected config json: %s", data)
	}
}

func TestGithubGateway(t *testing.T) {
	var mu sync.Mutex
	uploads := map[string]githubUploadRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodGet:
			if strings.HasSuffix(r.URL.Path, CoursesJSON) {
				_, _ = io.WriteString(w, `{"sha":"abc"}`)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			var body githubUploadRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			mu.Lock()
			uploads[r.URL.Path] = body
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer srv.Close()

	accept(t, NewGithub(srv.URL, "tok", "me/timetable", "/data/"), sampleSchedule())

	courses, ok := uploads["/repos/me/timetable/contents/data/courses.json"]
	if !ok || courses.SHA != "abc" {
		t.Fatalf("expected courses upload with sha, got %+v", uploads)
	}
	raw, err := base64.StdEncoding.DecodeString(courses.Content)
	if err != nil || !strings.Contains(string(raw), `"name": "Math"`) {
		t.Fatalf("unexpected upload content %q (%v)", raw, err)
	}
	if cfg := uploads["/repos/me/timetable/contents/data/config.json"]; cfg.SHA != "" || cfg.Message != "Update config.json" {
		t.Fatalf("unexpected config upload: %+v", cfg)
	}

	if err := NewGithub(srv.URL, "wrong", "me/timetable", "").AcceptCourses(context.Background(), nil); err == nil {
		t.Fatalf("expected unauthorized upload to fail")
	}
}

func TestOpen(t *testing.T) {
	g, closeFn, err := Open(Options{Kind: KindSQLite, DBPath: filepath.Join(t.TempDir(), "x.db"), Provider: "hnvcc"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, ok := g.(*StoreRun); !ok {
		t.Fatalf("expected *StoreRun, got %T", g)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
	g, _, err = Open(Options{Kind: KindICS, OutDir: t.TempDir()})
	if err != nil {
		t.Fatalf("open ics: %v", err)
	}
	if _, ok := g.(Flusher); !ok {
		t.Fatalf("ics gateway must flush")
	}
	if _, _, err := Open(Options{Kind: "ftp"}); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
