package items

import (
	"context"
	"errors"
	"time"

	"rentilia/internal/domain/shared/money"
)

var ErrItemNotFound = errors.New("items: not found")

type ItemID string

// Item is a piece of equipment offered for rent by its owner.
type Item struct {
	ID        ItemID
	OwnerID   string
	Title     string
	DailyRate money.Money
	Deposit   money.Money
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ItemID) (*Item, error)
	Save(ctx context.Context, item *Item) error
}
