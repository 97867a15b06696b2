package availability

import (
	"context"
	"errors"
	"log"
	"siena/ical"
	"siena/models"
	"siena/utils"
	"time"
)

// BlockedDateSet is the day-granularity availability model for one unit.
// It is rebuilt whole on every feed refresh, never patched in place.
type BlockedDateSet map[string]struct{}

// BuildFromPeriods expands every busy period into its covered calendar days,
// start day through end day inclusive. Time-of-day is discarded; overlapping
// periods merge because the result is a set.
func BuildFromPeriods(periods []models.BusyPeriod) BlockedDateSet {
	blocked := make(BlockedDateSet)
	for _, p := range periods {
		start := truncateToDay(p.Start)
		end := truncateToDay(p.End)
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			blocked[utils.DayKey(d)] = struct{}{}
		}
	}
	return blocked
}

// IsRangeFree reports whether no day in [start, end) is blocked. The
// check-out day itself is never required to be free: a guest may check in on
// the day another guest checks out.
func IsRangeFree(blocked BlockedDateSet, start, end time.Time) bool {
	for d := truncateToDay(start); d.Before(truncateToDay(end)); d = d.AddDate(0, 0, 1) {
		if _, hit := blocked[utils.DayKey(d)]; hit {
			return false
		}
	}
	return true
}

// IsDateBlocked flags one day for UI highlighting. Advisory only: a blocked
// date inside a selected range produces a warning, not a hard stop, because
// front-desk staff remain the final authority.
func IsDateBlocked(blocked BlockedDateSet, date time.Time) bool {
	_, hit := blocked[utils.DayKey(date)]
	return hit
}

// Dates returns the blocked days as sorted-ish strings for the UI. Order is
// not significant to callers.
func (b BlockedDateSet) Dates() []string {
	out := make([]string, 0, len(b))
	for day := range b {
		out = append(out, day)
	}
	return out
}

// BlockedFor fetches and parses every feed configured for the unit and
// builds the blocked set. A failing feed degrades to "no known blocks"
// (fail-open): the index is an aid, not an enforcement mechanism.
func BlockedFor(ctx context.Context, unit *models.Unit) BlockedDateSet {
	var periods []models.BusyPeriod
	for _, url := range unit.ICalURLs {
		raw, err := ical.Fetch(ctx, url)
		if err != nil {
			if errors.Is(err, ical.ErrFeedUnavailable) {
				log.Printf("availability: feed for unit %s unavailable, failing open: %v", unit.ID, err)
				continue
			}
			log.Printf("availability: feed for unit %s: %v", unit.ID, err)
			continue
		}
		periods = append(periods, ical.Parse(raw)...)
	}
	return BuildFromPeriods(periods)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
