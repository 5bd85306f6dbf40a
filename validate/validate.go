// Package validate holds the named checks applied to user input before an import starts.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Validator returns nil for acceptable input, otherwise an error whose message
// is shown to the user.
type Validator func(input string) error

// Choice lists offered for single selections.
var (
	Semesters = []string{"1（第一学期）", "2（第二学期）"}
	Seasons   = []string{"夏季作息", "冬季作息"}
)

var yearPattern = regexp.MustCompile(`^[0-9]{4}$`)

var registry = map[string]Validator{
	"validateKey":           validateKey,
	"validateYearInput":     validateYearInput,
	"validateSemesterIndex": validateSemesterIndex,
	"validateSeasonIndex":   validateSeasonIndex,
}

// Lookup returns the validator registered under name.
func Lookup(name string) (Validator, bool) {
	v, ok := registry[name]
	return v, ok
}

// Register adds or replaces a named validator.
func Register(name string, v Validator) {
	registry[name] = v
}

// Names lists the registered validators in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run applies the named validator.
func Run(name, input string) error {
	v, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("unknown validator %q", name)
	}
	return v(input)
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("share key must not be empty")
	}
	return nil
}

func validateYearInput(input string) error {
	if !yearPattern.MatchString(input) {
		return errors.New("enter the academic year as four digits")
	}
	return nil
}

func validateSemesterIndex(input string) error {
	return validateIndex(input, Semesters)
}

func validateSeasonIndex(input string) error {
	return validateIndex(input, Seasons)
}

func validateIndex(input string, choices []string) error {
	i, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || i < 0 || i >= len(choices) {
		return fmt.Errorf("choose an index between 0 and %d", len(choices)-1)
	}
	return nil
}

// SchoolYearID builds the term identifier "YYYY-YYYY+1-N" from an academic
// year and a zero-based semester index.
func SchoolYearID(year string, semesterIndex int) (string, error) {
	if err := validateYearInput(year); err != nil {
		return "", err
	}
	if semesterIndex < 0 || semesterIndex >= len(Semesters) {
		return "", fmt.Errorf("semester index %d out of range", semesterIndex)
	}
	y, _ := strconv.Atoi(year)
	return fmt.Sprintf("%d-%d-%d", y, y+1, semesterIndex+1), nil
}
