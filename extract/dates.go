package extract

import (
	"log"
	"strings"
	"time"
)

// DateLayout is the canonical semester start date format.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	"2006-1-2",
	time.RFC3339,
	"2006-1-2T15:04:05",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
}

// NormalizeDate converts slash or dash delimited dates (optionally with a time part)
// to YYYY-MM-DD. Unparseable input is logged and yields nil.
func NormalizeDate(raw string) *string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	value = strings.ReplaceAll(value, "/", "-")

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			formatted := t.Format(DateLayout)
			return &formatted
		}
	}

	log.Printf("WARN: cannot convert raw date %q to a calendar date", raw)
	return nil
}
