package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "rentilia/internal/domain/booking"
	domainitems "rentilia/internal/domain/items"
	domainrange "rentilia/internal/domain/shared/daterange"
	"rentilia/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("bookings")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save performs a compare-and-swap on the stored version so two concurrent
// transitions of the same booking cannot both win.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, bson.M{"renter_id": renterID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type bookingDocument struct {
	ID                string        `bson:"_id"`
	ItemID            string        `bson:"item_id"`
	RenterID          string        `bson:"renter_id"`
	OwnerID           string        `bson:"owner_id"`
	Period            rangeDocument `bson:"period"`
	RentalFee         int64         `bson:"rental_fee"`
	ServiceFee        int64         `bson:"service_fee"`
	Deposit           int64         `bson:"deposit"`
	Currency          string        `bson:"currency"`
	RefundAmount      *int64        `bson:"refund_amount,omitempty"`
	RentalHoldID      string        `bson:"rental_hold_id"`
	DepositHoldID     string        `bson:"deposit_hold_id"`
	Status            string        `bson:"status"`
	CreatedAt         int64         `bson:"created_at"`
	UpdatedAt         int64         `bson:"updated_at"`
	PickupConfirmedAt *int64        `bson:"pickup_confirmed_at,omitempty"`
	ReturnConfirmedAt *int64        `bson:"return_confirmed_at,omitempty"`
	Version           int64         `bson:"version"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:            string(b.ID),
		ItemID:        string(b.ItemID),
		RenterID:      b.RenterID,
		OwnerID:       b.OwnerID,
		Period:        rangeDocument{Start: b.Period.Start.UnixMilli(), End: b.Period.End.UnixMilli()},
		RentalFee:     b.RentalFee.Amount,
		ServiceFee:    b.ServiceFee.Amount,
		Deposit:       b.Deposit.Amount,
		Currency:      b.RentalFee.Currency,
		RentalHoldID:  b.RentalHoldID,
		DepositHoldID: b.DepositHoldID,
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt.UnixMilli(),
		UpdatedAt:     b.UpdatedAt.UnixMilli(),
		Version:       b.Version,
	}
	if b.RefundAmount != nil {
		doc.RefundAmount = &b.RefundAmount.Amount
	}
	doc.PickupConfirmedAt = timePtrToMillis(b.PickupConfirmedAt)
	doc.ReturnConfirmedAt = timePtrToMillis(b.ReturnConfirmedAt)
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:            domainbooking.BookingID(d.ID),
		ItemID:        domainitems.ItemID(d.ItemID),
		RenterID:      d.RenterID,
		OwnerID:       d.OwnerID,
		Period:        domainrange.DateRange{Start: millisToTime(d.Period.Start), End: millisToTime(d.Period.End)},
		RentalFee:     money.Money{Amount: d.RentalFee, Currency: d.Currency},
		ServiceFee:    money.Money{Amount: d.ServiceFee, Currency: d.Currency},
		Deposit:       money.Money{Amount: d.Deposit, Currency: d.Currency},
		RentalHoldID:  d.RentalHoldID,
		DepositHoldID: d.DepositHoldID,
		Status:        domainbooking.Status(d.Status),
		CreatedAt:     millisToTime(d.CreatedAt),
		UpdatedAt:     millisToTime(d.UpdatedAt),
		Version:       d.Version,
	}
	if d.RefundAmount != nil {
		refund := money.Money{Amount: *d.RefundAmount, Currency: d.Currency}
		b.RefundAmount = &refund
	}
	b.PickupConfirmedAt = millisPtrToTime(d.PickupConfirmedAt)
	b.ReturnConfirmedAt = millisPtrToTime(d.ReturnConfirmedAt)
	return b
}

func millisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func timePtrToMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func millisPtrToTime(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := millisToTime(*ms)
	return &t
}
