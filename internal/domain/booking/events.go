package booking

import (
	"time"

	"rentilia/internal/domain/items"
	"rentilia/internal/domain/shared/daterange"
	"rentilia/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID BookingID
	ItemID    items.ItemID
	RenterID  string
	OwnerID   string
	Period    daterange.DateRange
	Total     money.Money
	At        time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type PaymentInitiated struct {
	BookingID     BookingID
	RentalHoldID  string
	DepositHoldID string
	At            time.Time
}

func (e PaymentInitiated) EventName() string     { return "booking.payment_initiated" }
func (e PaymentInitiated) AggregateID() string   { return string(e.BookingID) }
func (e PaymentInitiated) OccurredAt() time.Time { return e.At }

type BookingPaid struct {
	BookingID BookingID
	At        time.Time
}

func (e BookingPaid) EventName() string     { return "booking.paid" }
func (e BookingPaid) AggregateID() string   { return string(e.BookingID) }
func (e BookingPaid) OccurredAt() time.Time { return e.At }

type PickupConfirmed struct {
	BookingID BookingID
	At        time.Time
}

func (e PickupConfirmed) EventName() string     { return "booking.pickup_confirmed" }
func (e PickupConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e PickupConfirmed) OccurredAt() time.Time { return e.At }

type ReturnInitiated struct {
	BookingID BookingID
	At        time.Time
}

func (e ReturnInitiated) EventName() string     { return "booking.return_initiated" }
func (e ReturnInitiated) AggregateID() string   { return string(e.BookingID) }
func (e ReturnInitiated) OccurredAt() time.Time { return e.At }

type DepositReleased struct {
	BookingID BookingID
	Refund    money.Money
	At        time.Time
}

func (e DepositReleased) EventName() string     { return "booking.deposit_released" }
func (e DepositReleased) AggregateID() string   { return string(e.BookingID) }
func (e DepositReleased) OccurredAt() time.Time { return e.At }

type DepositCaptured struct {
	BookingID BookingID
	Captured  money.Money
	Refund    money.Money
	At        time.Time
}

func (e DepositCaptured) EventName() string     { return "booking.deposit_captured" }
func (e DepositCaptured) AggregateID() string   { return string(e.BookingID) }
func (e DepositCaptured) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	Reason    string
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
