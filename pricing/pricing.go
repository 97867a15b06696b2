package pricing

import (
	"errors"
	"math"
	"siena/models"
	"time"
)

// These indicate a caller bug: UI gating should make them unreachable. They
// are still checked here so a broken caller blocks the transition instead of
// producing a wrong price.
var (
	ErrInvalidRange      = errors.New("check-out must be after check-in")
	ErrInvalidGuestCount = errors.New("guest count must be at least 1")
)

// Compute derives the itemised total for a stay. Pure and deterministic:
// identical inputs always produce an identical breakdown.
//
//	nights   = max(1, ceil(days between check-in and check-out))
//	subtotal = ratePerNight * nights
//	tax      = perPersonPerNight * guests * nights   (when enabled)
//	total    = subtotal + tax
func Compute(ratePerNight float64, checkIn, checkOut time.Time, guests int, tax models.TaxConfig) (models.PriceBreakdown, error) {
	if !checkOut.After(checkIn) {
		return models.PriceBreakdown{}, ErrInvalidRange
	}
	if guests <= 0 {
		return models.PriceBreakdown{}, ErrInvalidGuestCount
	}

	nights := Nights(checkIn, checkOut)
	subtotal := round2(ratePerNight * float64(nights))

	var occupancyTax float64
	if tax.Enabled {
		occupancyTax = round2(tax.PerPersonPerNight * float64(guests) * float64(nights))
	}

	return models.PriceBreakdown{
		Nights:   nights,
		PerNight: ratePerNight,
		Subtotal: subtotal,
		Tax:      occupancyTax,
		Total:    round2(subtotal + occupancyTax),
	}, nil
}

// Nights is the ceiling of the day difference, floored at 1.
func Nights(checkIn, checkOut time.Time) int {
	days := math.Ceil(checkOut.Sub(checkIn).Hours() / 24)
	if days < 1 {
		return 1
	}
	return int(days)
}

// round2 keeps amounts at cent precision so total == subtotal + tax exactly.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
