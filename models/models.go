package models

import "time"

// BusyPeriod is one occupied range lifted from an external calendar feed.
// Immutable once parsed.
type BusyPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TaxConfig is the occupancy-tax rule for one unit.
type TaxConfig struct {
	Enabled           bool    `json:"enabled" bson:"enabled"`
	PerPersonPerNight float64 `json:"perPersonPerNight" bson:"perPersonPerNight"`
}

// Unit is one bookable room or property. Supplied by the catalog; the booking
// core treats it as read-only input.
type Unit struct {
	ID           string    `json:"id" bson:"id"`
	Slug         string    `json:"slug" bson:"slug"`
	Name         string    `json:"name" bson:"name"`
	PriceEUR     string    `json:"priceEUR" bson:"priceEUR"`
	ICalURLs     []string  `json:"icalUrls,omitempty" bson:"icalUrls,omitempty"`
	MaxGuests    int       `json:"maxGuests" bson:"maxGuests"`
	MaxNights    int       `json:"maxNights" bson:"maxNights"`
	Tax          TaxConfig `json:"tax" bson:"tax"`
	Property     string    `json:"property" bson:"property"`
	ShortTagline string    `json:"tagline,omitempty" bson:"tagline,omitempty"`
	CreatedAt    int64     `json:"createdAt" bson:"createdAt"`
}

// PriceBreakdown is the itemised total shown at every wizard step. Derived,
// never cached across edits.
type PriceBreakdown struct {
	Nights   int     `json:"nights"`
	PerNight float64 `json:"perNight"`
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Booking is a confirmed, paid reservation. Created exactly once per capture;
// immutable thereafter.
type Booking struct {
	ID            string    `json:"id" bson:"id"`
	UnitID        string    `json:"unitId" bson:"unitId"`
	UnitName      string    `json:"unitName" bson:"unitName"`
	CheckIn       string    `json:"checkIn" bson:"checkIn"`
	CheckOut      string    `json:"checkOut" bson:"checkOut"`
	Nights        int       `json:"nights" bson:"nights"`
	Guests        int       `json:"guests" bson:"guests"`
	TotalEUR      string    `json:"totalEUR" bson:"totalEUR"`
	FirstName     string    `json:"firstName" bson:"firstName"`
	LastName      string    `json:"lastName" bson:"lastName"`
	Email         string    `json:"email" bson:"email"`
	Phone         string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Message       string    `json:"message,omitempty" bson:"message,omitempty"`
	OrderID       string    `json:"orderId" bson:"orderId"`
	TransactionID string    `json:"transactionId" bson:"transactionId"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

// Staff is a back-office account allowed to read bookings.
type Staff struct {
	UserID       string    `json:"userId" bson:"userId"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	Role         []string  `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// ContentBundle holds the key/value rows of one site page from the content
// collaborator. Eventually consistent, no staleness contract.
type ContentBundle map[string]map[string]string

// IdempotencyRecord backs replay protection for mutating endpoints.
type IdempotencyRecord struct {
	Key         string                 `bson:"key"`
	Method      string                 `bson:"method"`
	Path        string                 `bson:"path"`
	RequestHash string                 `bson:"request_hash"`
	Response    map[string]interface{} `bson:"response,omitempty"`
	CreatedAt   time.Time              `bson:"created_at"`
	ExpiresAt   time.Time              `bson:"expires_at"`
}

// Index is the shape of events published on the booking-events channel.
type Index struct {
	EntityType string `json:"entity_type"`
	Method     string `json:"method"`
	EntityId   string `json:"entity_id"`
}
