package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentilia/internal/domain/items"
	"rentilia/internal/domain/shared/daterange"
	"rentilia/internal/domain/shared/events"
	"rentilia/internal/domain/shared/money"
)

var (
	ErrBookingNotFound = errors.New("booking: not found")
	ErrInvalidState    = errors.New("booking: invalid state transition")
	ErrHoldsRequired   = errors.New("booking: both payment holds required")
	ErrDepositMissing  = errors.New("booking: deposit hold not attached")
)

type BookingID string

type Status string

const (
	// StatusPending exists for bookings drafted but never submitted; the
	// observed flow starts at StatusRequested.
	StatusPending              Status = "pending"
	StatusRequested            Status = "requested"
	StatusPaid                 Status = "paid"
	StatusPickedUp             Status = "picked_up"
	StatusReturnedWaitingOwner Status = "returned_waiting_owner"
	StatusClosedNoDamage       Status = "closed_no_damage"
	StatusDepositCaptured      Status = "deposit_captured"
	StatusCancelled            Status = "cancelled"
)

// Role is the caller's relationship to a booking, resolved once per request.
type Role int

const (
	RoleNeither Role = iota
	RoleRenter
	RoleOwner
)

// Booking is one rental agreement between a renter and an item's owner.
// OwnerID is denormalized from the item at request time so role checks do not
// require an item fetch on every transition.
type Booking struct {
	ID       BookingID
	ItemID   items.ItemID
	RenterID string
	OwnerID  string

	Period     daterange.DateRange
	RentalFee  money.Money
	ServiceFee money.Money
	Deposit    money.Money

	// RefundAmount stays nil until the deposit is resolved at return time.
	RefundAmount *money.Money

	RentalHoldID  string
	DepositHoldID string

	Status Status

	CreatedAt         time.Time
	UpdatedAt         time.Time
	PickupConfirmedAt *time.Time
	ReturnConfirmedAt *time.Time

	Version int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	ListByRenter(ctx context.Context, renterID string) ([]*Booking, error)
}

type CreateParams struct {
	ID         BookingID
	Item       *items.Item
	RenterID   string
	Period     daterange.DateRange
	RentalFee  money.Money
	ServiceFee money.Money
	CreatedAt  time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if params.Item == nil {
		return nil, items.ErrItemNotFound
	}
	if params.RenterID == "" {
		return nil, errors.New("booking: renter id required")
	}
	if params.RenterID == params.Item.OwnerID {
		return nil, errors.New("booking: owners cannot rent their own items")
	}
	if err := params.Period.Validate(); err != nil {
		return nil, err
	}
	if !params.RentalFee.IsPositive() {
		return nil, errors.New("booking: rental fee must be positive")
	}
	if !params.Item.Deposit.IsPositive() {
		return nil, errors.New("booking: item deposit must be positive")
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:         params.ID,
		ItemID:     params.Item.ID,
		RenterID:   params.RenterID,
		OwnerID:    params.Item.OwnerID,
		Period:     params.Period,
		RentalFee:  params.RentalFee,
		ServiceFee: params.ServiceFee,
		Deposit:    params.Item.Deposit,
		Status:     StatusRequested,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.Record(BookingRequested{BookingID: b.ID, ItemID: b.ItemID, RenterID: b.RenterID, OwnerID: b.OwnerID, Period: b.Period, Total: b.RentalFee, At: now})
	return b, nil
}

// RoleOf resolves the caller's role against this booking.
func (b *Booking) RoleOf(userID string) Role {
	switch userID {
	case "":
		return RoleNeither
	case b.RenterID:
		return RoleRenter
	case b.OwnerID:
		return RoleOwner
	default:
		return RoleNeither
	}
}

// RequestExpired reports whether a requested booking has outlived its payment
// window. Only requested bookings expire.
func (b *Booking) RequestExpired(now time.Time, ttl time.Duration) bool {
	if b.Status != StatusRequested || ttl <= 0 {
		return false
	}
	return now.UTC().After(b.CreatedAt.Add(ttl))
}

// AttachHolds persists both gateway hold identifiers in a single mutation.
// Holds are always attached together, never independently.
func (b *Booking) AttachHolds(rentalHoldID, depositHoldID string, now time.Time) error {
	if b.Status != StatusRequested {
		return stateError(b.Status, StatusRequested)
	}
	if rentalHoldID == "" || depositHoldID == "" {
		return ErrHoldsRequired
	}
	b.RentalHoldID = rentalHoldID
	b.DepositHoldID = depositHoldID
	b.UpdatedAt = now.UTC()
	b.Record(PaymentInitiated{BookingID: b.ID, RentalHoldID: rentalHoldID, DepositHoldID: depositHoldID, At: b.UpdatedAt})
	return nil
}

// MarkPaid records that both holds reached an acceptable confirmation state.
func (b *Booking) MarkPaid(now time.Time) error {
	if b.Status != StatusRequested {
		return stateError(b.Status, StatusRequested)
	}
	if b.RentalHoldID == "" || b.DepositHoldID == "" {
		return ErrHoldsRequired
	}
	b.Status = StatusPaid
	b.UpdatedAt = now.UTC()
	b.Record(BookingPaid{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) ConfirmPickup(now time.Time) error {
	if b.Status != StatusPaid {
		return stateError(b.Status, StatusPaid)
	}
	ts := now.UTC()
	b.Status = StatusPickedUp
	b.PickupConfirmedAt = &ts
	b.UpdatedAt = ts
	b.Record(PickupConfirmed{BookingID: b.ID, At: ts})
	return nil
}

func (b *Booking) InitiateReturn(now time.Time) error {
	if b.Status != StatusPickedUp {
		return stateError(b.Status, StatusPickedUp)
	}
	b.Status = StatusReturnedWaitingOwner
	b.UpdatedAt = now.UTC()
	b.Record(ReturnInitiated{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// CanConfirmReturn reports whether the owner may resolve the deposit. The
// owner can confirm directly from picked_up without a renter-initiated return.
func (b *Booking) CanConfirmReturn() bool {
	return b.Status == StatusPickedUp || b.Status == StatusReturnedWaitingOwner
}

// ReleaseDeposit closes the booking with no damage; the full deposit is refunded.
func (b *Booking) ReleaseDeposit(now time.Time) error {
	if !b.CanConfirmReturn() {
		return stateError(b.Status, StatusPickedUp, StatusReturnedWaitingOwner)
	}
	if b.DepositHoldID == "" {
		return ErrDepositMissing
	}
	ts := now.UTC()
	refund := b.Deposit
	b.Status = StatusClosedNoDamage
	b.RefundAmount = &refund
	b.ReturnConfirmedAt = &ts
	b.UpdatedAt = ts
	b.Record(DepositReleased{BookingID: b.ID, Refund: refund, At: ts})
	return nil
}

// CaptureDeposit closes the booking with damage; captured is the amount
// actually charged (already clamped to the deposit) and the remainder is
// refunded.
func (b *Booking) CaptureDeposit(captured money.Money, now time.Time) error {
	if !b.CanConfirmReturn() {
		return stateError(b.Status, StatusPickedUp, StatusReturnedWaitingOwner)
	}
	if b.DepositHoldID == "" {
		return ErrDepositMissing
	}
	if !captured.IsPositive() {
		return errors.New("booking: captured amount must be positive")
	}
	refund, err := b.Deposit.Sub(captured)
	if err != nil {
		return err
	}
	if refund.Amount < 0 {
		return errors.New("booking: captured amount exceeds deposit")
	}
	ts := now.UTC()
	b.Status = StatusDepositCaptured
	b.RefundAmount = &refund
	b.ReturnConfirmedAt = &ts
	b.UpdatedAt = ts
	b.Record(DepositCaptured{BookingID: b.ID, Captured: captured, Refund: refund, At: ts})
	return nil
}

// Cancel voids a booking that was never paid (payment window expiry).
func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.Status != StatusRequested && b.Status != StatusPending {
		return stateError(b.Status, StatusRequested, StatusPending)
	}
	b.Status = StatusCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return nil
}

func stateError(current Status, allowed ...Status) error {
	return fmt.Errorf("%w: status is %q, requires %v", ErrInvalidState, current, allowed)
}
