package booking

import (
	"context"
	"errors"
	"time"

	"rentilia/internal/domain/shared/money"
)

var ErrInvalidDamageCost = errors.New("booking: damage cost must be positive")

// ReturnEvidence is written once when an owner reports damage at return time
// and never mutated afterwards.
type ReturnEvidence struct {
	ID          string
	BookingID   BookingID
	Description string
	DamageCost  money.Money
	PhotoURLs   []string
	CreatedAt   time.Time
}

func NewReturnEvidence(id string, bookingID BookingID, description string, cost money.Money, photoURLs []string, now time.Time) (*ReturnEvidence, error) {
	if !cost.IsPositive() {
		return nil, ErrInvalidDamageCost
	}
	return &ReturnEvidence{
		ID:          id,
		BookingID:   bookingID,
		Description: description,
		DamageCost:  cost,
		PhotoURLs:   photoURLs,
		CreatedAt:   now.UTC(),
	}, nil
}

// EvidenceRepository is append-only.
type EvidenceRepository interface {
	Add(ctx context.Context, ev *ReturnEvidence) error
	ListByBooking(ctx context.Context, bookingID BookingID) ([]*ReturnEvidence, error)
}

// PaymentFailure is an append-only log row for failed rental-fee attempts
// reported by the gateway.
type PaymentFailure struct {
	ID        string
	BookingID BookingID
	HoldID    string
	Message   string
	FailedAt  time.Time
}

type FailureLog interface {
	Append(ctx context.Context, f PaymentFailure) error
}
