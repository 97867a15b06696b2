package wizard

import (
	"context"
	"errors"
	"siena/availability"
	"siena/models"
	"siena/paypal"
	"siena/utils"
	"sync"
	"testing"
	"time"
)

// fake gateway that hands out sequential order/transaction ids
type fakeGateway struct {
	mu        sync.Mutex
	orders    int
	captures  int
	failNext  error
	lastOrder string
}

func (f *fakeGateway) CreateOrder(_ context.Context, amount, currency, description string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return "", err
	}
	f.orders++
	f.lastOrder = "ORDER-" + amount
	return f.lastOrder, nil
}

func (f *fakeGateway) CaptureOrder(_ context.Context, orderID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return "", err
	}
	f.captures++
	return "TXN-" + orderID, nil
}

// fake recorder that remembers persisted bookings keyed by transaction id
type fakeRecorder struct {
	mu        sync.Mutex
	persisted map[string]models.Booking
	failNext  error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{persisted: make(map[string]models.Booking)}
}

func (f *fakeRecorder) Persist(_ context.Context, b models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	if _, ok := f.persisted[b.TransactionID]; ok {
		return nil // idempotent replay
	}
	f.persisted[b.TransactionID] = b
	return nil
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.persisted)
}

func testUnit() models.Unit {
	return models.Unit{
		ID:        "jewel-box",
		Name:      "Jewel Box",
		PriceEUR:  "100",
		MaxGuests: 3,
		MaxNights: 14,
		Tax:       models.TaxConfig{Enabled: true, PerPersonPerNight: 2.5},
	}
}

func openSession(t *testing.T) (*Manager, *Session) {
	t.Helper()
	m := NewManager()
	m.fetchBlocked = func(context.Context, *models.Unit) availability.BlockedDateSet {
		return make(availability.BlockedDateSet)
	}
	s := m.Open(testUnit())
	return m, s
}

func driveToPayment(t *testing.T, s *Session, gw paypal.Gateway) string {
	t.Helper()
	if _, err := s.SetDates("2025-06-01", "2025-06-04", 2); err != nil {
		t.Fatalf("SetDates: %v", err)
	}
	if err := s.SetDetails("Ada", "Lovelace", "ada@example.com", "", ""); err != nil {
		t.Fatalf("SetDetails: %v", err)
	}
	orderID, err := s.StartPayment(context.Background(), gw)
	if err != nil {
		t.Fatalf("StartPayment: %v", err)
	}
	return orderID
}

func TestHappyPathConfirmsExactlyOnce(t *testing.T) {
	_, s := openSession(t)
	gw := &fakeGateway{}
	rec := newFakeRecorder()

	orderID := driveToPayment(t, s, gw)
	if orderID != "ORDER-315.00" {
		t.Fatalf("order opened for %q, want the frozen total 315.00", orderID)
	}

	booking, err := s.Capture(context.Background(), gw, rec, orderID)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if booking.TransactionID == "" {
		t.Fatal("confirmed booking has empty transaction id")
	}
	if booking.Nights != 3 || booking.TotalEUR != "315.00" {
		t.Errorf("booking = %d nights / %s EUR, want 3 / 315.00", booking.Nights, booking.TotalEUR)
	}
	if rec.count() != 1 {
		t.Fatalf("persisted %d bookings, want 1", rec.count())
	}
	if s.step != Confirmed {
		t.Errorf("step = %s, want confirmed", s.step)
	}
}

func TestDuplicateCaptureIsNoOp(t *testing.T) {
	_, s := openSession(t)
	gw := &fakeGateway{}
	rec := newFakeRecorder()

	orderID := driveToPayment(t, s, gw)
	first, err := s.Capture(context.Background(), gw, rec, orderID)
	if err != nil {
		t.Fatalf("first capture: %v", err)
	}

	// the payment widget fires its approval callback again
	second, err := s.Capture(context.Background(), gw, rec, orderID)
	if err != nil {
		t.Fatalf("replayed capture: %v", err)
	}
	if second.TransactionID != first.TransactionID {
		t.Errorf("replay returned a different booking")
	}
	if rec.count() != 1 {
		t.Fatalf("persisted %d bookings after replay, want 1", rec.count())
	}
	if gw.captures != 1 {
		t.Fatalf("gateway captured %d times, want 1", gw.captures)
	}
}

func TestCannotReachPaymentWithoutGates(t *testing.T) {
	_, s := openSession(t)
	gw := &fakeGateway{}

	// no dates yet
	if err := s.SetDetails("Ada", "Lovelace", "ada@example.com", "", ""); !errors.Is(err, ErrWrongStep) {
		t.Errorf("details before dates: err = %v, want ErrWrongStep", err)
	}

	if _, err := s.SetDates("2025-06-04", "2025-06-01", 2); err == nil {
		t.Error("reversed dates accepted")
	}
	if _, err := s.SetDates("2025-06-01", "2025-06-04", 5); !errors.Is(err, ErrTooManyGuests) {
		t.Errorf("over-capacity guests: err = %v, want ErrTooManyGuests", err)
	}

	if _, err := s.SetDates("2025-06-01", "2025-06-04", 2); err != nil {
		t.Fatalf("SetDates: %v", err)
	}

	// missing email
	if err := s.SetDetails("Ada", "Lovelace", "not-an-email", "", ""); err != nil {
		t.Fatalf("SetDetails stores fields: %v", err)
	}
	if _, err := s.StartPayment(context.Background(), gw); !errors.Is(err, ErrMissingFields) {
		t.Errorf("payment with bad email: err = %v, want ErrMissingFields", err)
	}
	if gw.orders != 0 {
		t.Errorf("gateway saw %d orders before gates passed, want 0", gw.orders)
	}
}

func TestBackKeepsEnteredFields(t *testing.T) {
	_, s := openSession(t)
	gw := &fakeGateway{}

	driveToPayment(t, s, gw)

	if err := s.Back(); err != nil { // AwaitingPayment -> EnteringDetails
		t.Fatalf("Back: %v", err)
	}
	if s.step != EnteringDetails {
		t.Fatalf("step = %s, want entering_details", s.step)
	}
	if s.frozen != nil || s.orderID != "" {
		t.Error("leaving the payment step should abandon the frozen price and order")
	}
	if err := s.Back(); err != nil { // EnteringDetails -> SelectingDates
		t.Fatalf("Back: %v", err)
	}

	if s.draft.FirstName != "Ada" || s.draft.Email != "ada@example.com" {
		t.Errorf("backward navigation cleared contact fields: %+v", s.draft)
	}
	if s.draft.CheckIn != "2025-06-01" || s.draft.CheckOut != "2025-06-04" {
		t.Errorf("backward navigation cleared dates: %+v", s.draft)
	}
}

func TestCancelPersistsNothing(t *testing.T) {
	m, s := openSession(t)
	gw := &fakeGateway{}
	rec := newFakeRecorder()

	orderID := driveToPayment(t, s, gw)
	if err := m.Close(s.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// the widget's approval callback lands after cancellation
	_, err := s.Capture(context.Background(), gw, rec, orderID)
	if !errors.Is(err, ErrLateCapture) {
		t.Fatalf("late capture: err = %v, want ErrLateCapture", err)
	}
	if rec.count() != 0 {
		t.Fatalf("persisted %d bookings after cancel, want 0", rec.count())
	}
	if s.step != Closed {
		t.Errorf("step = %s, want closed", s.step)
	}
}

func TestPaymentFailureKeepsAwaitingPayment(t *testing.T) {
	_, s := openSession(t)
	gw := &fakeGateway{}
	rec := newFakeRecorder()

	orderID := driveToPayment(t, s, gw)

	gw.failNext = paypal.ErrPaymentDeclined
	if _, err := s.Capture(context.Background(), gw, rec, orderID); !errors.Is(err, paypal.ErrPaymentDeclined) {
		t.Fatalf("declined capture: err = %v", err)
	}
	if s.step != AwaitingPayment {
		t.Fatalf("step = %s after decline, want awaiting_payment (manual retry)", s.step)
	}
	if rec.count() != 0 {
		t.Fatal("declined payment must not persist a booking")
	}

	// manual retry succeeds
	if _, err := s.Capture(context.Background(), gw, rec, orderID); err != nil {
		t.Fatalf("retry capture: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("persisted %d bookings, want 1", rec.count())
	}
}

func TestPersistFailureDoesNotRecaptureOnRetry(t *testing.T) {
	_, s := openSession(t)
	gw := &fakeGateway{}
	rec := newFakeRecorder()

	orderID := driveToPayment(t, s, gw)

	persistErr := errors.New("record save failed")
	rec.failNext = persistErr
	if _, err := s.Capture(context.Background(), gw, rec, orderID); !errors.Is(err, persistErr) {
		t.Fatalf("capture with failing recorder: err = %v", err)
	}
	if s.step != AwaitingPayment {
		t.Fatalf("step = %s, want awaiting_payment", s.step)
	}

	// retry must reuse the already-captured transaction, not charge again
	booking, err := s.Capture(context.Background(), gw, rec, orderID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if gw.captures != 1 {
		t.Fatalf("gateway captured %d times across retries, want 1", gw.captures)
	}
	if booking.TransactionID != "TXN-"+orderID {
		t.Errorf("unexpected transaction id %s", booking.TransactionID)
	}
}

func TestWrongOrderIDRejected(t *testing.T) {
	_, s := openSession(t)
	gw := &fakeGateway{}
	rec := newFakeRecorder()

	driveToPayment(t, s, gw)
	if _, err := s.Capture(context.Background(), gw, rec, "ORDER-bogus"); !errors.Is(err, ErrOrderMismatch) {
		t.Fatalf("mismatched order: err = %v, want ErrOrderMismatch", err)
	}
}

func TestBlockedRangeProducesSoftWarning(t *testing.T) {
	m := NewManager()
	m.fetchBlocked = func(context.Context, *models.Unit) availability.BlockedDateSet {
		return availability.BuildFromPeriods([]models.BusyPeriod{
			{Start: date(t, "2025-06-02"), End: date(t, "2025-06-03")},
		})
	}
	unit := testUnit()
	unit.ICalURLs = []string{"https://calendar.example/feed.ics"}
	s := m.Open(unit)

	// wait for the background fetch to land
	waitForBlocked(t, s)

	warning, err := s.SetDates("2025-06-01", "2025-06-04", 2)
	if err != nil {
		t.Fatalf("SetDates: %v", err)
	}
	if warning == "" {
		t.Error("range over a blocked day should warn, not block")
	}
	if s.step != EnteringDetails {
		t.Errorf("step = %s, want entering_details (advisory only)", s.step)
	}
}

func TestFreshSessionPerUnit(t *testing.T) {
	m, s := openSession(t)
	if _, err := s.SetDates("2025-06-01", "2025-06-04", 2); err != nil {
		t.Fatalf("SetDates: %v", err)
	}

	other := testUnit()
	other.ID = "the-kasbah"
	s2 := m.Open(other)

	if s2.ID == s.ID {
		t.Fatal("new wizard reused the old session")
	}
	if s2.step != SelectingDates || s2.draft.CheckIn != "" {
		t.Errorf("new session not pristine: step=%s draft=%+v", s2.step, s2.draft)
	}
}

func TestMalformedUnitPriceFallsBackToZeroRate(t *testing.T) {
	m, _ := openSession(t)
	unit := testUnit()
	unit.PriceEUR = "not-a-number"
	s := m.Open(unit)
	gw := &fakeGateway{}

	orderID := driveToPayment(t, s, gw)
	// tax only: 2.50 x 2 guests x 3 nights
	if orderID != "ORDER-15.00" {
		t.Fatalf("order opened for %q, want the tax-only total 15.00", orderID)
	}
	if s.draft.Price.Subtotal != 0 {
		t.Errorf("subtotal = %v, want 0 for an unparseable rate", s.draft.Price.Subtotal)
	}
}

func date(t *testing.T, day string) time.Time {
	t.Helper()
	d, err := utils.ParseDate(day)
	if err != nil {
		t.Fatalf("bad test date %q: %v", day, err)
	}
	return d
}

func waitForBlocked(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		n := len(s.blocked)
		s.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("availability fetch never reached the session")
}
