package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainbooking "rentilia/internal/domain/booking"
)

// FailureLog appends failed rental-fee attempts reported by the gateway.
type FailureLog struct {
	col *mongo.Collection
}

func NewFailureLog(db *mongo.Database) *FailureLog {
	return &FailureLog{col: db.Collection("payment_failures")}
}

func (l *FailureLog) Append(ctx context.Context, f domainbooking.PaymentFailure) error {
	doc := bson.M{
		"_id":        f.ID,
		"booking_id": string(f.BookingID),
		"hold_id":    f.HoldID,
		"message":    f.Message,
		"failed_at":  f.FailedAt,
	}
	_, err := l.col.InsertOne(ctx, doc)
	return err
}
