package wizard

import (
	"encoding/json"
	"errors"
	"net/http"
	"siena/bookings"
	"siena/paypal"
	"siena/units"
	"siena/utils"

	"github.com/julienschmidt/httprouter"
)

// Service is the HTTP shell around the wizard state machine. The gateway and
// recorder are injected so the core stays testable without PayPal or Mongo.
type Service struct {
	Sessions *Manager
	Gateway  paypal.Gateway
	Recorder bookings.Recorder
}

func NewService(gw paypal.Gateway, rec bookings.Recorder) *Service {
	return &Service{
		Sessions: NewManager(),
		Gateway:  gw,
		Recorder: rec,
	}
}

// Open starts a wizard for one unit.
func (svc *Service) Open(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		UnitID string `json:"unitId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UnitID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing unitId")
		return
	}

	unit, err := units.ByID(r.Context(), body.UnitID)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "unit not found")
		return
	}

	s := svc.Sessions.Open(*unit)
	utils.RespondWithJSON(w, http.StatusCreated, s.Snapshot())
}

// GetState returns the current step, draft and price.
func (svc *Service) GetState(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, err := svc.Sessions.Get(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, s.Snapshot())
}

// SetDates applies the stay selection.
func (svc *Service) SetDates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, err := svc.Sessions.Get(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "session not found")
		return
	}

	var body struct {
		CheckIn  string `json:"checkIn"`
		CheckOut string `json:"checkOut"`
		Guests   int    `json:"guests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	warning, err := s.SetDates(body.CheckIn, body.CheckOut, body.Guests)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := s.Snapshot()
	if warning != "" {
		resp["warning"] = warning
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// SetDetails stores the contact fields.
func (svc *Service) SetDetails(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, err := svc.Sessions.Get(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "session not found")
		return
	}

	var body struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := s.SetDetails(body.FirstName, body.LastName, body.Email, body.Phone, body.Message); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, s.Snapshot())
}

// Back moves the cursor one step toward date selection.
func (svc *Service) Back(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, err := svc.Sessions.Get(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "session not found")
		return
	}
	if err := s.Back(); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, s.Snapshot())
}

// StartPayment freezes the price and opens an order.
func (svc *Service) StartPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, err := svc.Sessions.Get(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "session not found")
		return
	}

	orderID, err := s.StartPayment(r.Context(), svc.Gateway)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields), errors.Is(err, ErrWrongStep):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondWithError(w, http.StatusBadGateway, "failed to create payment order")
		}
		return
	}

	resp := s.Snapshot()
	resp["orderId"] = orderID
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// Capture handles the approval callback from the payment widget.
func (svc *Service) Capture(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, err := svc.Sessions.Get(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "session not found")
		return
	}

	var body struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	booking, err := s.Capture(r.Context(), svc.Gateway, svc.Recorder, body.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, ErrLateCapture):
			utils.RespondWithError(w, http.StatusConflict, "session was cancelled before capture arrived")
		case errors.Is(err, ErrOrderMismatch), errors.Is(err, ErrWrongStep):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, paypal.ErrPaymentDeclined):
			utils.RespondWithError(w, http.StatusPaymentRequired, "payment declined, please try again")
		case errors.Is(err, bookings.ErrPersistFailed):
			// Charge succeeded but the record did not save. Never hide this.
			utils.RespondWithError(w, http.StatusBadGateway,
				"your payment succeeded but we could not record the booking; please contact us directly")
		default:
			utils.RespondWithError(w, http.StatusBadGateway, "payment failed, please try again")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "booking": booking})
}

// Cancel closes the wizard and discards the draft.
func (svc *Service) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := svc.Sessions.Close(ps.ByName("id")); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"closed": true})
}
