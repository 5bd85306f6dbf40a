package scraper

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrStructure marks payloads missing a required part or container element.
	ErrStructure = errors.New("malformed schedule payload")
	// ErrTransport marks non-success responses from a provider.
	ErrTransport = errors.New("provider request failed")
	// ErrNotLoggedIn marks an absent credential or session marker.
	ErrNotLoggedIn = errors.New("not logged in")
)

// Fragment keys shared by every adapter and the canonical mapper.
const (
	FieldName         = "name"
	FieldTeacher      = "teacher"
	FieldPosition     = "position"
	FieldDay          = "day"
	FieldStartSection = "startSection"
	FieldEndSection   = "endSection"
	FieldWeeks        = "weeks"

	FieldNumber    = "number"
	FieldStartTime = "startTime"
	FieldEndTime   = "endTime"

	FieldSemesterStartDate    = "semesterStartDate"
	FieldTotalWeeks           = "totalWeeks"
	FieldDefaultClassDuration = "defaultClassDuration"
	FieldDefaultBreakDuration = "defaultBreakDuration"
)

// Fragment is one source-shaped record, keyed by canonical field names.
// Values keep whatever type the source produced.
type Fragment map[string]any

// Fragments is everything an adapter extracted from one payload.
type Fragments struct {
	Courses []Fragment
	Slots   []Fragment
	Config  Fragment
}

// Payload is an already fetched provider response.
type Payload struct {
	// Body holds single-document sources (share blob, HTML page).
	Body []byte
	// Parts holds multi-request sources keyed by request name.
	Parts map[string][]byte
	// Options carries user selections such as the seasonal time table.
	Options map[string]string
}

func structural(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructure, fmt.Sprintf(format, args...))
}

// textOf renders a loosely typed JSON value as text; absent values become "".
func textOf(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// intOf reads a loosely typed JSON number.
func intOf(v any) (int, bool) {
	switch val := v.(type) {
	case float64:
		return int(val), true
	case int:
		return val, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		return n, err == nil
	default:
		return 0, false
	}
}
