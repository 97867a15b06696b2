package bookings

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"siena/db"
	"siena/models"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
)

// PrintConfirmation renders a booking confirmation PDF with a QR-encoded
// booking reference for front-desk lookup.
func PrintConfirmation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := db.BookingsCollection.FindOne(ctx, bson.M{"id": bookingID}).Decode(&booking); err != nil {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}

	buf, err := renderConfirmation(booking)
	if err != nil {
		http.Error(w, "Failed to generate confirmation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=booking-"+bookingID+".pdf")
	w.Write(buf.Bytes())
}

func renderConfirmation(booking models.Booking) (*bytes.Buffer, error) {
	qrData := fmt.Sprintf("booking=%s&txn=%s", booking.ID, booking.TransactionID)
	qrPNG, _ := qrcode.Encode(qrData, qrcode.Medium, 128)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 15, "Riad di Siena - Booking Confirmation", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 8, fmt.Sprintf(
		"Guest: %s %s\nUnit: %s\nCheck-in: %s\nCheck-out: %s\nNights: %d\nGuests: %d\nTotal: EUR %s\nReference: %s\nBooked: %s",
		booking.FirstName, booking.LastName,
		booking.UnitName,
		booking.CheckIn,
		booking.CheckOut,
		booking.Nights,
		booking.Guests,
		booking.TotalEUR,
		booking.ID,
		booking.CreatedAt.Format("02 Jan 2006 15:04"),
	), "", "L", false)

	imgOpts := gofpdf.ImageOptions{ImageType: "png"}
	pdf.RegisterImageOptionsReader("qr", imgOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 50, 40, 40, false, imgOpts, 0, "")

	pdf.SetY(-30)
	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 10, "Show this confirmation at check-in.", "T", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}
