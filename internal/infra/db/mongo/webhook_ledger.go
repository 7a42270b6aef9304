package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// WebhookLedger deduplicates gateway events on their gateway-assigned id.
// The event id is the _id, so the insert itself is the uniqueness check:
// a duplicate key error means the event was already processed.
type WebhookLedger struct {
	col *mongo.Collection
}

func NewWebhookLedger(db *mongo.Database) *WebhookLedger {
	return &WebhookLedger{col: db.Collection("webhook_events")}
}

func (l *WebhookLedger) Seen(ctx context.Context, eventID, eventType string) (bool, error) {
	doc := bson.M{
		"_id":          eventID,
		"event_type":   eventType,
		"processed_at": time.Now().UTC(),
	}
	_, err := l.col.InsertOne(ctx, doc)
	if err == nil {
		return false, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return true, nil
	}
	return false, err
}
