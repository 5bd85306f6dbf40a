// Package extract turns raw schedule text fragments into typed values.
package extract

import (
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Week parity selectors used by share blobs.
const (
	EveryWeek = 0
	OddWeeks  = 1
	EvenWeeks = 2
)

// MaxWeek is the last teaching week accepted from any source. Weeks are 1-based.
const MaxWeek = 60

var weekSpanPattern = regexp.MustCompile(`第(.*?)(周|\()`)

// ParseWeeks parses texts like "第1-10周" or "第1,3,5周(单)" into sorted unique weeks.
// Text without a recognizable span yields an empty slice. Tokens naming week 0
// or a week past MaxWeek are skipped.
func ParseWeeks(text string) []int {
	match := weekSpanPattern.FindStringSubmatch(text)
	if match == nil {
		return []int{}
	}

	seen := map[int]bool{}
	for _, token := range strings.Split(match[1], ",") {
		parts := strings.Split(token, "-")
		switch len(parts) {
		case 2:
			start, okStart := leadingInt(parts[0])
			end, okEnd := leadingInt(parts[1])
			if !okStart || !okEnd {
				continue
			}
			if start > end {
				start, end = end, start
			}
			if start < 1 || end > MaxWeek {
				log.Printf("WARN: skipping week range %q: outside 1-%d", strings.TrimSpace(token), MaxWeek)
				continue
			}
			for w := start; w <= end; w++ {
				seen[w] = true
			}
		case 1:
			w, ok := leadingInt(parts[0])
			if !ok {
				continue
			}
			if w < 1 || w > MaxWeek {
				log.Printf("WARN: skipping week %q: outside 1-%d", strings.TrimSpace(token), MaxWeek)
				continue
			}
			seen[w] = true
		}
	}

	weeks := make([]int, 0, len(seen))
	for w := range seen {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks
}

// ParseWeekMask collects the 1-based positions of every '1' in a week bitmask.
// Positions past MaxWeek are ignored.
func ParseWeekMask(mask string) []int {
	weeks := []int{}
	for i, ch := range []rune(mask) {
		if i >= MaxWeek {
			log.Printf("WARN: week mask longer than %d weeks, ignoring the rest", MaxWeek)
			break
		}
		if ch == '1' {
			weeks = append(weeks, i+1)
		}
	}
	return weeks
}

// ExpandWeeks lists the weeks in [start, end] matching the parity selector.
// Unknown selectors match nothing. The range is clamped to 1..MaxWeek.
func ExpandWeeks(start, end, parity int) []int {
	if start < 1 || end > MaxWeek {
		log.Printf("WARN: clamping weeks %d-%d to 1-%d", start, end, MaxWeek)
		start, end = max(start, 1), min(end, MaxWeek)
	}
	weeks := []int{}
	for w := start; w <= end; w++ {
		switch {
		case parity == EveryWeek,
			parity == OddWeeks && w%2 != 0,
			parity == EvenWeeks && w%2 == 0:
			weeks = append(weeks, w)
		}
	}
	return weeks
}

// leadingInt reads the decimal digits at the start of s, after trimming spaces.
// Digit runs too large for an int are rejected.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
