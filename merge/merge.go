// Package merge consolidates course records that cover consecutive sections
// of the same class into single blocks.
package merge

import (
	"sort"

	"course-importer/model"
)

// Merge sorts courses by day, rendered weeks and start section, then joins each
// record into the open block when CanMerge allows it. The input is not modified.
func Merge(courses []model.Course) []model.Course {
	if len(courses) == 0 {
		return []model.Course{}
	}

	sorted := make([]model.Course, len(courses))
	copy(sorted, courses)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		wa, wb := model.FormatWeeks(a.Weeks), model.FormatWeeks(b.Weeks)
		if wa != wb {
			return wa < wb
		}
		if a.StartSection != b.StartSection {
			return a.StartSection < b.StartSection
		}
		// Ties only decide order between records that cannot merge with each other.
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Teacher != b.Teacher {
			return a.Teacher < b.Teacher
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.EndSection < b.EndSection
	})

	merged := make([]model.Course, 0, len(sorted))
	current := clone(sorted[0])
	for _, next := range sorted[1:] {
		if CanMerge(current, next) {
			current.EndSection = next.EndSection
			continue
		}
		merged = append(merged, current)
		current = clone(next)
	}
	return append(merged, current)
}

// CanMerge reports whether next continues block: same day, weeks, name, teacher
// and position, starting right after the block's last section.
func CanMerge(block, next model.Course) bool {
	return block.Day == next.Day &&
		model.SameWeeks(block.Weeks, next.Weeks) &&
		block.Name == next.Name &&
		block.Teacher == next.Teacher &&
		block.Position == next.Position &&
		next.StartSection == block.EndSection+1
}

func clone(c model.Course) model.Course {
	c.Weeks = append(make([]int, 0, len(c.Weeks)), c.Weeks...)
	return c
}
