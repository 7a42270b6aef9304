package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "rentilia/internal/domain/booking"
	"rentilia/internal/domain/shared/money"
)

// EvidenceStore persists return-evidence rows; rows are insert-only.
type EvidenceStore struct {
	col *mongo.Collection
}

func NewEvidenceStore(db *mongo.Database) *EvidenceStore {
	return &EvidenceStore{col: db.Collection("return_evidence")}
}

func (s *EvidenceStore) Add(ctx context.Context, ev *domainbooking.ReturnEvidence) error {
	doc := evidenceDocument{
		ID:          ev.ID,
		BookingID:   string(ev.BookingID),
		Description: ev.Description,
		DamageCost:  ev.DamageCost.Amount,
		Currency:    ev.DamageCost.Currency,
		PhotoURLs:   ev.PhotoURLs,
		CreatedAt:   ev.CreatedAt.UnixMilli(),
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

func (s *EvidenceStore) ListByBooking(ctx context.Context, bookingID domainbooking.BookingID) ([]*domainbooking.ReturnEvidence, error) {
	cur, err := s.col.Find(ctx, bson.M{"booking_id": string(bookingID)}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainbooking.ReturnEvidence
	for cur.Next(ctx) {
		var doc evidenceDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, &domainbooking.ReturnEvidence{
			ID:          doc.ID,
			BookingID:   domainbooking.BookingID(doc.BookingID),
			Description: doc.Description,
			DamageCost:  money.Money{Amount: doc.DamageCost, Currency: doc.Currency},
			PhotoURLs:   doc.PhotoURLs,
			CreatedAt:   millisToTime(doc.CreatedAt),
		})
	}
	return out, cur.Err()
}

type evidenceDocument struct {
	ID          string   `bson:"_id"`
	BookingID   string   `bson:"booking_id"`
	Description string   `bson:"description"`
	DamageCost  int64    `bson:"damage_cost"`
	Currency    string   `bson:"currency"`
	PhotoURLs   []string `bson:"photo_urls,omitempty"`
	CreatedAt   int64    `bson:"created_at"`
}
