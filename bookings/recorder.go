package bookings

import (
	"context"
	"errors"
	"log"
	"siena/db"
	"siena/models"
	"siena/mq"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrPersistFailed means the payment was captured but the booking record
// could not be saved. This is the one locally-irrecoverable failure: the
// guest must be told the charge succeeded and to contact the house directly.
var ErrPersistFailed = errors.New("booking record could not be saved")

// Recorder persists confirmed bookings. Implementations must be idempotent
// keyed by payment transaction id.
type Recorder interface {
	Persist(ctx context.Context, booking models.Booking) error
}

// MongoRecorder writes to the bookings collection. The unique index on
// transactionId turns a replayed capture into a duplicate-key error, which
// is treated as success: exactly one record per transaction.
type MongoRecorder struct{}

func NewRecorder() *MongoRecorder {
	return &MongoRecorder{}
}

func (MongoRecorder) Persist(ctx context.Context, booking models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := db.BookingsCollection.InsertOne(ctx, booking)
	if err != nil {
		if isDuplicateKeyError(err) {
			log.Printf("bookings: replay of transaction %s ignored", booking.TransactionID)
			return nil
		}
		log.Printf("bookings: persist of transaction %s failed: %v", booking.TransactionID, err)
		return ErrPersistFailed
	}

	mq.Emit(ctx, "booking-confirmed", models.Index{EntityType: "booking", EntityId: booking.ID})
	return nil
}

func isDuplicateKeyError(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}
