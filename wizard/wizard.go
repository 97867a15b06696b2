package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"siena/availability"
	"siena/bookings"
	"siena/models"
	"siena/paypal"
	"siena/pricing"
	"siena/utils"
	"strconv"
	"sync"
	"time"
)

// Step is the wizard cursor. Moving backward never clears entered fields.
type Step int

const (
	SelectingDates Step = iota + 1
	EnteringDetails
	AwaitingPayment
	Confirmed
	Closed
)

func (s Step) String() string {
	switch s {
	case SelectingDates:
		return "selecting_dates"
	case EnteringDetails:
		return "entering_details"
	case AwaitingPayment:
		return "awaiting_payment"
	case Confirmed:
		return "confirmed"
	case Closed:
		return "closed"
	}
	return "unknown"
}

var (
	ErrClosed        = errors.New("wizard session is closed")
	ErrWrongStep     = errors.New("operation not allowed in current step")
	ErrMissingFields = errors.New("required fields missing")
	ErrLateCapture   = errors.New("capture received for a closed session")
	ErrOrderMismatch = errors.New("capture does not match the open order")
	ErrTooManyNights = errors.New("stay exceeds the maximum nights for this unit")
	ErrTooManyGuests = errors.New("guest count exceeds unit capacity")
)

// Draft is the in-progress booking. Mutated only by Session transitions,
// discarded on close, never partially persisted.
type Draft struct {
	CheckIn   string                 `json:"checkIn"`
	CheckOut  string                 `json:"checkOut"`
	Guests    int                    `json:"guests"`
	FirstName string                 `json:"firstName"`
	LastName  string                 `json:"lastName"`
	Email     string                 `json:"email"`
	Phone     string                 `json:"phone"`
	Message   string                 `json:"message"`
	Price     *models.PriceBreakdown `json:"price,omitempty"`
}

// Session is one open booking wizard. All transitions run under mu, so the
// state machine processes exactly one event at a time and is never reentrant
// mid-transition.
type Session struct {
	ID   string
	Unit models.Unit

	mu       sync.Mutex
	step     Step
	draft    Draft
	blocked  availability.BlockedDateSet
	frozen   *models.PriceBreakdown // price locked when payment began
	orderID  string
	txnID    string
	booking  *models.Booking
	disposed bool

	updatedAt time.Time
}

func newSession(unit models.Unit) *Session {
	return &Session{
		ID:        utils.GetUUID(),
		Unit:      unit,
		step:      SelectingDates,
		draft:     Draft{Guests: 1},
		blocked:   make(availability.BlockedDateSet),
		updatedAt: time.Now(),
	}
}

// setBlocked applies a finished availability fetch. The fetch completes after
// unlock, so a session closed mid-fetch simply drops the late result.
func (s *Session) setBlocked(blocked availability.BlockedDateSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		log.Printf("wizard: dropping late availability result for disposed session %s", s.ID)
		return
	}
	s.blocked = blocked
}

// SetDates stores the stay selection and, when valid, advances the cursor to
// EnteringDetails. A blocked day inside the range yields a warning, not a
// rejection: availability is advisory and fail-open.
func (s *Session) SetDates(checkIn, checkOut string, guests int) (warning string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return "", ErrClosed
	}
	if s.step != SelectingDates {
		return "", fmt.Errorf("%w: step is %s", ErrWrongStep, s.step)
	}

	in, err := utils.ParseDate(checkIn)
	if err != nil {
		return "", fmt.Errorf("invalid check-in date: %w", err)
	}
	out, err := utils.ParseDate(checkOut)
	if err != nil {
		return "", fmt.Errorf("invalid check-out date: %w", err)
	}
	if guests < 1 {
		return "", pricing.ErrInvalidGuestCount
	}
	if guests > s.Unit.MaxGuests {
		return "", ErrTooManyGuests
	}
	if !out.After(in) {
		return "", pricing.ErrInvalidRange
	}
	nights := pricing.Nights(in, out)
	if s.Unit.MaxNights > 0 && nights > s.Unit.MaxNights {
		return "", ErrTooManyNights
	}

	rate, err := strconv.ParseFloat(s.Unit.PriceEUR, 64)
	if err != nil {
		// Catalog contract violation. Proceed with a zero rate so the stay
		// still prices the tax, but make the bad unit visible.
		log.Printf("wizard: unit %s has malformed price %q: %v", s.Unit.ID, s.Unit.PriceEUR, err)
		rate = 0
	}
	price, err := pricing.Compute(rate, in, out, guests, s.Unit.Tax)
	if err != nil {
		// gated above; reaching this is a programming error
		log.Printf("wizard: price computation rejected gated input: %v", err)
		return "", err
	}

	s.draft.CheckIn = checkIn
	s.draft.CheckOut = checkOut
	s.draft.Guests = guests
	s.draft.Price = &price
	s.step = EnteringDetails
	s.touch()

	if !availability.IsRangeFree(s.blocked, in, out) {
		warning = "some selected dates may be unavailable"
	}
	return warning, nil
}

// SetDetails stores contact fields. The step does not advance here; entering
// payment is a separate, explicit transition because it freezes the price
// and opens an order.
func (s *Session) SetDetails(first, last, email, phone, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrClosed
	}
	if s.step != EnteringDetails {
		return fmt.Errorf("%w: step is %s", ErrWrongStep, s.step)
	}

	s.draft.FirstName = first
	s.draft.LastName = last
	s.draft.Email = email
	s.draft.Phone = phone
	s.draft.Message = message
	s.touch()
	return nil
}

// Back moves the cursor one step toward date selection. Entered fields stay:
// the step is a cursor, not a reset. Leaving AwaitingPayment abandons the
// open order and unfreezes the price.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrClosed
	}
	switch s.step {
	case EnteringDetails:
		s.step = SelectingDates
	case AwaitingPayment:
		s.frozen = nil
		s.orderID = ""
		s.step = EnteringDetails
	default:
		return fmt.Errorf("%w: step is %s", ErrWrongStep, s.step)
	}
	s.touch()
	return nil
}

// StartPayment gates on complete contact details, freezes the current price
// and opens a payment order for exactly that total. The frozen total is what
// the gateway charges even if the guest later races an edit.
func (s *Session) StartPayment(ctx context.Context, gw paypal.Gateway) (orderID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return "", ErrClosed
	}
	if s.step != EnteringDetails {
		return "", fmt.Errorf("%w: step is %s", ErrWrongStep, s.step)
	}
	if s.draft.FirstName == "" || s.draft.LastName == "" {
		return "", fmt.Errorf("%w: first and last name", ErrMissingFields)
	}
	if !utils.ValidEmail(s.draft.Email) {
		return "", fmt.Errorf("%w: valid email", ErrMissingFields)
	}
	if s.draft.Price == nil {
		return "", fmt.Errorf("%w: no priced date selection", ErrWrongStep)
	}

	frozen := *s.draft.Price
	description := fmt.Sprintf("%s - %d nights", s.Unit.Name, frozen.Nights)
	orderID, err = gw.CreateOrder(ctx, formatAmount(frozen.Total), "EUR", description)
	if err != nil {
		return "", err
	}

	s.frozen = &frozen
	s.orderID = orderID
	s.step = AwaitingPayment
	s.touch()
	return orderID, nil
}

// Capture handles the payment-approval callback: capture the order, assemble
// the confirmed booking and hand it to the recorder exactly once.
//
// Replays are no-ops: a second callback for an already-confirmed session
// returns the existing booking, and the recorder's transaction-id key
// absorbs anything that slips past the session. A callback arriving after
// the guest cancelled is an anomaly; it is logged and rejected, never
// revives the draft.
func (s *Session) Capture(ctx context.Context, gw paypal.Gateway, rec bookings.Recorder, orderID string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		log.Printf("wizard: late capture for closed session %s (order %s)", s.ID, orderID)
		return nil, ErrLateCapture
	}
	if s.step == Confirmed {
		return s.booking, nil
	}
	if s.step != AwaitingPayment {
		return nil, fmt.Errorf("%w: step is %s", ErrWrongStep, s.step)
	}
	if orderID == "" || orderID != s.orderID {
		return nil, ErrOrderMismatch
	}

	// A previous attempt may have captured the charge and then failed to
	// persist; do not charge twice.
	if s.txnID == "" {
		txnID, err := gw.CaptureOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if txnID == "" {
			return nil, fmt.Errorf("%w: empty transaction id", paypal.ErrPaymentFailed)
		}
		s.txnID = txnID
	}

	booking := models.Booking{
		ID:            "bk" + utils.GenerateRandomDigitString(12),
		UnitID:        s.Unit.ID,
		UnitName:      s.Unit.Name,
		CheckIn:       s.draft.CheckIn,
		CheckOut:      s.draft.CheckOut,
		Nights:        s.frozen.Nights,
		Guests:        s.draft.Guests,
		TotalEUR:      formatAmount(s.frozen.Total),
		FirstName:     s.draft.FirstName,
		LastName:      s.draft.LastName,
		Email:         s.draft.Email,
		Phone:         s.draft.Phone,
		Message:       s.draft.Message,
		OrderID:       s.orderID,
		TransactionID: s.txnID,
		CreatedAt:     time.Now(),
	}

	if err := rec.Persist(ctx, booking); err != nil {
		// The charge went through; the guest must hear exactly that.
		return nil, err
	}

	s.booking = &booking
	s.step = Confirmed
	s.touch()
	return &booking, nil
}

// Close discards the draft. Safe from any state; nothing partial is ever
// written. Closing an already-confirmed session just disposes it.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != Confirmed {
		s.step = Closed
	}
	s.disposed = true
	s.touch()
}

// Snapshot returns the session view for the rendering shell.
func (s *Session) Snapshot() utils.M {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := utils.M{
		"id":    s.ID,
		"step":  s.step.String(),
		"unit":  s.Unit,
		"draft": s.draft,
	}
	if s.frozen != nil {
		view["frozenPrice"] = s.frozen
	}
	if s.booking != nil {
		view["booking"] = s.booking
	}
	return view
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
