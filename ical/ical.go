package ical

import (
	"bufio"
	"log"
	"siena/models"
	"strings"
	"time"
)

// Accepted DTSTART/DTEND layouts, most specific first.
var timeLayouts = []string{
	"20060102T150405Z",
	"20060102T150405",
	"20060102",
}

// Parse extracts busy periods from raw iCalendar text. Each VEVENT with a
// parsable DTSTART and DTEND becomes one BusyPeriod; events missing either,
// or carrying garbage timestamps, are skipped so a partially broken feed
// still yields whatever it can. An event-free feed parses to an empty slice.
func Parse(raw string) []models.BusyPeriod {
	var periods []models.BusyPeriod

	var inEvent bool
	var start, end time.Time
	var haveStart, haveEnd bool

	scanner := bufio.NewScanner(strings.NewReader(unfold(raw)))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case line == "BEGIN:VEVENT":
			inEvent = true
			haveStart, haveEnd = false, false
		case line == "END:VEVENT":
			if inEvent && haveStart && haveEnd && !end.Before(start) {
				periods = append(periods, models.BusyPeriod{Start: start, End: end})
			}
			inEvent = false
		case inEvent && strings.HasPrefix(line, "DTSTART"):
			if t, ok := parseDateProperty(line); ok {
				start, haveStart = t, true
			}
		case inEvent && strings.HasPrefix(line, "DTEND"):
			if t, ok := parseDateProperty(line); ok {
				end, haveEnd = t, true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("ical: scan stopped early: %v", err)
	}
	return periods
}

// unfold joins RFC 5545 folded lines (continuation lines start with a space
// or tab).
func unfold(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n ", "")
	raw = strings.ReplaceAll(raw, "\r\n\t", "")
	raw = strings.ReplaceAll(raw, "\n ", "")
	raw = strings.ReplaceAll(raw, "\n\t", "")
	return raw
}

// parseDateProperty handles "DTSTART:20250601", "DTSTART;VALUE=DATE:20250601",
// "DTSTART;TZID=...:20250601T120000" and the UTC form with a trailing Z.
func parseDateProperty(line string) (time.Time, bool) {
	idx := strings.Index(line, ":")
	if idx < 0 || idx == len(line)-1 {
		return time.Time{}, false
	}
	value := strings.TrimSpace(line[idx+1:])
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
