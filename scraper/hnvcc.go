package scraper

import (
	"bytes"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"course-importer/extract"
)

const defaultTotalWeeks = 20

// locationIcon marks the location/week block of an item. The page offers no
// other marker, so a markup change here silently drops classes.
const locationIcon = `img[src*="item1.png"]`

var totalWeeksPattern = regexp.MustCompile(`/(\d+)周`)

// HNVCC maps the server-rendered timetable of jwxt.hnvcc.edu.cn.
type HNVCC struct{}

// Provider implements Adapter.
func (HNVCC) Provider() string { return ProviderHNVCC }

// Fragments implements Adapter.
func (HNVCC) Fragments(payload Payload) (*Fragments, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload.Body))
	if err != nil {
		return nil, structural("parse timetable HTML: %v", err)
	}

	timetable := doc.Find("#timetable").First()
	if timetable.Length() == 0 {
		return nil, structural("timetable table #timetable not found")
	}

	frags := &Fragments{
		Courses: []Fragment{},
		Config: Fragment{
			FieldTotalWeeks: extractTotalWeeks(doc),
		},
	}

	season := payload.Options[OptionSeason]
	frags.Slots = SeasonSlots(season)
	if frags.Slots == nil {
		log.Printf("WARN: hnvcc: unknown season %q, no time slots imported", season)
		frags.Slots = []Fragment{}
	}

	parsedRows := 0
	timetable.Find("tbody > tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() < 2 || row.Find(`td[colspan="7"]`).Length() > 0 {
			return
		}
		sections, ok := extract.ParseSections(strings.TrimSpace(cells.Eq(0).Text()))
		if !ok {
			return
		}
		parsedRows++

		for day := 1; day <= 7; day++ {
			cell := cells.Eq(day)
			if cell.Length() == 0 {
				continue
			}
			cell.Find(".item-box").Each(func(_ int, box *goquery.Selection) {
				box.ChildrenFiltered("p").Each(func(_ int, nameP *goquery.Selection) {
					if course, ok := parseItem(nameP, day, sections); ok {
						frags.Courses = append(frags.Courses, course)
					}
				})
			})
		}
	})

	log.Printf("hnvcc: parsed %d timetable rows, %d class items", parsedRows, len(frags.Courses))
	return frags, nil
}

// extractTotalWeeks reads "/N周" from the week selector, defaulting to 20.
func extractTotalWeeks(doc *goquery.Document) int {
	html, err := doc.Find("#li_showWeek").First().Html()
	if err != nil {
		return defaultTotalWeeks
	}
	match := totalWeeksPattern.FindStringSubmatch(html)
	if match == nil {
		return defaultTotalWeeks
	}
	weeks, err := strconv.Atoi(match[1])
	if err != nil || weeks <= 0 {
		return defaultTotalWeeks
	}
	return weeks
}

// parseItem reads one class meeting that starts at a course-name paragraph.
func parseItem(nameP *goquery.Selection, day int, sections extract.Sections) (Fragment, bool) {
	name := strings.TrimSpace(nameP.Text())
	if name == "" {
		return nil, false
	}

	teacherInfo, ok := (&siblingCursor{cur: nameP}).seek(isTeacherInfo, nil)
	if !ok {
		log.Printf("WARN: hnvcc: %q has no teacher block, skipped", name)
		return nil, false
	}
	teacher := ""
	if span := teacherInfo.Find("span:nth-child(1)").First(); span.Length() > 0 {
		teacher = strings.TrimSpace(strings.Replace(span.Text(), "教师：", "", 1))
	}

	info, ok := (&siblingCursor{cur: teacherInfo}).seek(isLocationInfo, isCourseName)
	if !ok {
		log.Printf("WARN: hnvcc: %q has no location block, skipped", name)
		return nil, false
	}
	spans := info.Find("span")
	position := strings.TrimSpace(spans.Eq(0).Text())
	weekText := strings.TrimSpace(spans.Eq(1).Text())

	weeks := extract.ParseWeeks(weekText)
	if len(weeks) == 0 {
		log.Printf("WARN: hnvcc: %q has no parseable weeks in %q, skipped", name, weekText)
		return nil, false
	}

	return Fragment{
		FieldName:         name,
		FieldTeacher:      teacher,
		FieldPosition:     position,
		FieldDay:          day,
		FieldStartSection: sections.Start,
		FieldEndSection:   sections.End,
		FieldWeeks:        weeks,
	}, true
}

func isTeacherInfo(s *goquery.Selection) bool { return s.HasClass("tch-name") }

func isCourseName(s *goquery.Selection) bool { return goquery.NodeName(s) == "p" }

func isLocationInfo(s *goquery.Selection) bool {
	return goquery.NodeName(s) == "div" && s.Find(locationIcon).Length() > 0
}

// siblingCursor moves forward over the element siblings of a node.
type siblingCursor struct {
	cur *goquery.Selection
}

// seek advances until match accepts a sibling. It gives up at the end of the
// sibling list, or when stop accepts a sibling that match rejected.
func (c *siblingCursor) seek(match, stop func(*goquery.Selection) bool) (*goquery.Selection, bool) {
	for {
		c.cur = c.cur.Next()
		if c.cur.Length() == 0 {
			return nil, false
		}
		if match(c.cur) {
			return c.cur, true
		}
		if stop != nil && stop(c.cur) {
			return nil, false
		}
	}
}
