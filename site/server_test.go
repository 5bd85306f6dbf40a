package site

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"course-importer/gateway"
	"course-importer/model"
)

var wakeUpBlob = strings.Join([]string{
	`{"courseLen":45}`,
	`[{"node":1,"startTime":"08:00","endTime":"08:45"},{"node":2,"startTime":"08:55","endTime":"09:40"}]`,
	`{"nodes":12,"startDate":"2024-09-02","maxWeek":16}`,
	`[{"id":1,"courseName":"Math"}]`,
	`[{"id":1,"startWeek":1,"endWeek":2,"type":0,"startNode":1,"step":1,"day":1,"teacher":"Li","room":"A"},` +
		`{"id":1,"startWeek":1,"endWeek":2,"type":0,"startNode":2,"step":1,"day":1,"teacher":"Li","room":"A"}]`,
}, "\n")

func post(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestImportWakeUp(t *testing.T) {
	h := (&Server{Merge: true}).Handler()
	rec := post(t, h, "/import/wakeup", wakeUpBlob)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp ImportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := []model.Course{{Name: "Math", Teacher: "Li", Position: "A", Day: 1, StartSection: 1, EndSection: 2, Weeks: []int{1, 2}}}
	if resp.Parsed != 2 || resp.Merged != 1 || len(resp.Schedule.Courses) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	got := resp.Schedule.Courses[0]
	if got.Name != want[0].Name || got.EndSection != 2 || !model.SameWeeks(got.Weeks, want[0].Weeks) {
		t.Fatalf("unexpected course: %+v", got)
	}
	if resp.Schedule.Config.TotalWeeks != 16 {
		t.Fatalf("unexpected config: %+v", resp.Schedule.Config)
	}
}

func TestImportErrors(t *testing.T) {
	h := (&Server{}).Handler()
	cases := []struct {
		target, body string
		status       int
	}{
		{"/import/moodle", "", http.StatusNotFound},
		{"/import/wakeup", "{}", http.StatusBadRequest},
		{"/import/cqu", "not json", http.StatusBadRequest},
		{"/import/cqu", `{"timeSlots":{}}`, http.StatusBadRequest},
		{"/import/hnvcc", "<html><body>no table</body></html>", http.StatusBadRequest},
		{"/import/cqu", `{"schedule":{"classTimetableVOList":[]}}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		if rec := post(t, h, tc.target, tc.body); rec.Code != tc.status {
			t.Fatalf("%s %q: expected %d, got %d: %s", tc.target, tc.body, tc.status, rec.Code, rec.Body.String())
		}
	}
}

func TestImportPersistFailure(t *testing.T) {
	s := &Server{Merge: true, Open: func(string) (gateway.Gateway, func() error, error) {
		mem := &gateway.Memory{Fail: map[string]error{gateway.CallTimeSlots: errors.New("disk full")}}
		return mem, func() error { return nil }, nil
	}}
	rec := post(t, s.Handler(), "/import/wakeup", wakeUpBlob)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Saved) != 2 || !strings.Contains(resp.Error, "disk full") {
		t.Fatalf("unexpected error response: %+v", resp)
	}
}

func TestProvidersAndValidators(t *testing.T) {
	h := (&Server{}).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/providers", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"hnvcc"`) {
		t.Fatalf("unexpected providers response: %d %s", rec.Code, rec.Body.String())
	}

	for target, status := range map[string]int{
		"/validators/validateYearInput?input=2024": http.StatusNoContent,
		"/validators/validateYearInput?input=24":   http.StatusUnprocessableEntity,
		"/validators/validateNothing":              http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != status {
			t.Fatalf("%s: expected %d, got %d", target, status, rec.Code)
		}
	}
}
