package availability

import (
	"siena/models"
	"testing"
	"time"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuildFromPeriodsExpandsInclusive(t *testing.T) {
	blocked := BuildFromPeriods([]models.BusyPeriod{
		{Start: date("2025-06-02"), End: date("2025-06-03")},
	})

	if len(blocked) != 2 {
		t.Fatalf("blocked %d days, want 2: %v", len(blocked), blocked.Dates())
	}
	for _, day := range []string{"2025-06-02", "2025-06-03"} {
		if !IsDateBlocked(blocked, date(day)) {
			t.Errorf("%s not blocked", day)
		}
	}
	if IsDateBlocked(blocked, date("2025-06-01")) {
		t.Error("2025-06-01 blocked, want free")
	}
}

func TestBuildFromPeriodsMergesOverlaps(t *testing.T) {
	blocked := BuildFromPeriods([]models.BusyPeriod{
		{Start: date("2025-06-01"), End: date("2025-06-03")},
		{Start: date("2025-06-02"), End: date("2025-06-05")},
	})
	if len(blocked) != 5 {
		t.Fatalf("blocked %d days, want 5", len(blocked))
	}
}

func TestBuildDiscardsTimeOfDay(t *testing.T) {
	start, _ := time.Parse("2006-01-02T15:04:05", "2025-06-02T14:00:00")
	end, _ := time.Parse("2006-01-02T15:04:05", "2025-06-02T23:30:00")
	blocked := BuildFromPeriods([]models.BusyPeriod{{Start: start, End: end}})

	if !IsDateBlocked(blocked, date("2025-06-02")) {
		t.Error("day with intra-day busy period not blocked")
	}
	if len(blocked) != 1 {
		t.Errorf("blocked %d days, want 1", len(blocked))
	}
}

func TestIsRangeFree(t *testing.T) {
	blocked := BuildFromPeriods([]models.BusyPeriod{
		{Start: date("2025-06-02"), End: date("2025-06-03")},
	})

	// [06-01, 06-02): the stay ends the day the other booking starts
	if !IsRangeFree(blocked, date("2025-06-01"), date("2025-06-02")) {
		t.Error("range ending at a blocked check-in day should be free")
	}
	// [06-01, 06-03): covers the blocked 06-02
	if IsRangeFree(blocked, date("2025-06-01"), date("2025-06-03")) {
		t.Error("range covering a blocked day should not be free")
	}
	// [06-03, ...) starts on the last blocked day, so not free
	if IsRangeFree(blocked, date("2025-06-03"), date("2025-06-05")) {
		t.Error("range starting on a blocked day should not be free")
	}
	// checking out on a blocked day is fine
	if !IsRangeFree(blocked, date("2025-05-30"), date("2025-06-02")) {
		t.Error("check-out on a blocked day should be free")
	}
}

func TestEmptySetFailsOpen(t *testing.T) {
	// A failed feed fetch degrades to an empty set: everything reads free.
	blocked := BuildFromPeriods(nil)
	if !IsRangeFree(blocked, date("2025-06-01"), date("2025-12-31")) {
		t.Error("empty blocked set should report all ranges free")
	}
	if IsDateBlocked(blocked, date("2025-06-02")) {
		t.Error("empty blocked set should report no blocked dates")
	}
}
