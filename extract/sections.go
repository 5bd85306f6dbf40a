package extract

import (
	"regexp"
	"strconv"
)

// Sections is an inclusive range of class periods.
type Sections struct {
	Start int
	End   int
}

var (
	sectionRangePattern  = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)
	sectionSinglePattern = regexp.MustCompile(`\d+`)
)

// ParseSections finds a period range inside label text such as "第一大节\n第1-2节".
// A dash range wins over a single number, bounds keep their written order,
// and non-positive numbers are treated as incidental digits.
func ParseSections(text string) (Sections, bool) {
	for _, m := range sectionRangePattern.FindAllStringSubmatch(text, -1) {
		start, err1 := strconv.Atoi(m[1])
		end, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil || start <= 0 || end <= 0 {
			continue
		}
		return Sections{Start: start, End: end}, true
	}

	for _, m := range sectionSinglePattern.FindAllString(text, -1) {
		n, err := strconv.Atoi(m)
		if err != nil || n <= 0 {
			continue
		}
		return Sections{Start: n, End: n}, true
	}

	return Sections{}, false
}
