package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainitems "rentilia/internal/domain/items"
	"rentilia/internal/domain/shared/money"
)

type ItemRepository struct {
	col *mongo.Collection
}

func NewItemRepository(db *mongo.Database) *ItemRepository {
	return &ItemRepository{col: db.Collection("items")}
}

func (r *ItemRepository) ByID(ctx context.Context, id domainitems.ItemID) (*domainitems.Item, error) {
	var doc itemDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainitems.ErrItemNotFound
		}
		return nil, err
	}
	return doc.toItem(), nil
}

func (r *ItemRepository) Save(ctx context.Context, item *domainitems.Item) error {
	doc := itemDocument{
		ID:        string(item.ID),
		OwnerID:   item.OwnerID,
		Title:     item.Title,
		DailyRate: item.DailyRate.Amount,
		Deposit:   item.Deposit.Amount,
		Currency:  item.DailyRate.Currency,
		Active:    item.Active,
		CreatedAt: item.CreatedAt.UnixMilli(),
		UpdatedAt: item.UpdatedAt.UnixMilli(),
	}
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, upsert())
	return err
}

type itemDocument struct {
	ID        string `bson:"_id"`
	OwnerID   string `bson:"owner_id"`
	Title     string `bson:"title"`
	DailyRate int64  `bson:"daily_rate"`
	Deposit   int64  `bson:"deposit"`
	Currency  string `bson:"currency"`
	Active    bool   `bson:"active"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (d itemDocument) toItem() *domainitems.Item {
	return &domainitems.Item{
		ID:        domainitems.ItemID(d.ID),
		OwnerID:   d.OwnerID,
		Title:     d.Title,
		DailyRate: money.Money{Amount: d.DailyRate, Currency: d.Currency},
		Deposit:   money.Money{Amount: d.Deposit, Currency: d.Currency},
		Active:    d.Active,
		CreatedAt: millisToTime(d.CreatedAt),
		UpdatedAt: millisToTime(d.UpdatedAt),
	}
}
