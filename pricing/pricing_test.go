package pricing

import (
	"errors"
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

func TestComputeWithCityTax(t *testing.T) {
	// 100 EUR/night, 3 nights, 2 guests, 2.50 tax per person per night
	tax := models.TaxConfig{Enabled: true, PerPersonPerNight: 2.5}
	got, err := Compute(100, date("2025-06-01"), date("2025-06-04"), 2, tax)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Nights != 3 {
		t.Errorf("nights = %d, want 3", got.Nights)
	}
	if got.Subtotal != 300 {
		t.Errorf("subtotal = %v, want 300", got.Subtotal)
	}
	if got.Tax != 15 {
		t.Errorf("tax = %v, want 15", got.Tax)
	}
	if got.Total != 315 {
		t.Errorf("total = %v, want 315", got.Total)
	}
}

func TestComputeWithoutTax(t *testing.T) {
	got, err := Compute(85, date("2025-06-01"), date("2025-06-03"), 2, models.TaxConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Tax != 0 {
		t.Errorf("tax = %v, want 0", got.Tax)
	}
	if got.Total != 170 {
		t.Errorf("total = %v, want 170", got.Total)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	tax := models.TaxConfig{Enabled: true, PerPersonPerNight: 2.5}
	first, err := Compute(99.95, date("2025-07-10"), date("2025-07-15"), 3, tax)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 50; i++ {
		again, err := Compute(99.95, date("2025-07-10"), date("2025-07-15"), 3, tax)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Fatalf("breakdown changed between runs: %+v vs %+v", again, first)
		}
	}
	if first.Total != first.Subtotal+first.Tax {
		t.Errorf("total %v != subtotal %v + tax %v", first.Total, first.Subtotal, first.Tax)
	}
}

func TestComputeRejectsBadInputs(t *testing.T) {
	_, err := Compute(100, date("2025-06-04"), date("2025-06-04"), 2, models.TaxConfig{})
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("equal dates: err = %v, want ErrInvalidRange", err)
	}

	_, err = Compute(100, date("2025-06-04"), date("2025-06-01"), 2, models.TaxConfig{})
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("reversed dates: err = %v, want ErrInvalidRange", err)
	}

	_, err = Compute(100, date("2025-06-01"), date("2025-06-04"), 0, models.TaxConfig{})
	if !errors.Is(err, ErrInvalidGuestCount) {
		t.Errorf("zero guests: err = %v, want ErrInvalidGuestCount", err)
	}
}

func TestNightsFloorsAtOne(t *testing.T) {
	// same-day boundary handled by Compute; Nights itself floors at 1
	if n := Nights(date("2025-06-01"), date("2025-06-01")); n != 1 {
		t.Errorf("nights = %d, want 1", n)
	}
	if n := Nights(date("2025-06-01"), date("2025-06-02")); n != 1 {
		t.Errorf("nights = %d, want 1", n)
	}
	if n := Nights(date("2025-06-01"), date("2025-06-11")); n != 10 {
		t.Errorf("nights = %d, want 10", n)
	}
}
