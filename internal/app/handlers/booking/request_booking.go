package booking

import (
	"context"
	"errors"
	"time"

	"rentilia/internal/app/apperrors"
	"rentilia/internal/app/commands"
	"rentilia/internal/app/middleware"
	"rentilia/internal/app/outbox"
	"rentilia/internal/app/uow"
	domainbooking "rentilia/internal/domain/booking"
	domainitems "rentilia/internal/domain/items"
	domainrange "rentilia/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

// defaultServiceFeePct is the marketplace cut added on top of the base rate.
const defaultServiceFeePct = 10

type RequestBookingCommand struct {
	CommandID       string
	ItemID          string
	RenterID        string
	StartsAt        time.Time
	EndsAt          time.Time
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID  string `json:"booking_id"`
	RentalFee  int64  `json:"rental_fee"`
	ServiceFee int64  `json:"service_fee"`
	Deposit    int64  `json:"deposit"`
	Currency   string `json:"currency"`
}

type RequestBookingHandler struct {
	Outbox        outbox.Outbox
	Encoder       outbox.EventEncoder
	ServiceFeePct int64
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return nil, err
	}
	dr, err := domainrange.New(cmd.StartsAt, cmd.EndsAt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidArgument, "invalid rental period", err)
	}
	item, err := unit.Items().ByID(ctx, domainitems.ItemID(cmd.ItemID))
	if err != nil {
		if errors.Is(err, domainitems.ErrItemNotFound) {
			return nil, apperrors.New(apperrors.NotFound, "item not found")
		}
		return nil, err
	}
	if !item.Active {
		return nil, apperrors.New(apperrors.InvalidState, "item is not available for rent")
	}

	base := item.DailyRate.Multiply(int64(dr.Days()))
	pct := h.ServiceFeePct
	if pct <= 0 {
		pct = defaultServiceFeePct
	}
	serviceFee := base.Percent(pct)
	rentalFee, err := base.Add(serviceFee)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(cmd.CommandID),
		Item:       item,
		RenterID:   cmd.RenterID,
		Period:     dr,
		RentalFee:  rentalFee,
		ServiceFee: serviceFee,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidArgument, "booking rejected", err)
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := outbox.DrainAggregate(ctx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}
	return &RequestBookingResult{
		BookingID:  string(b.ID),
		RentalFee:  b.RentalFee.Amount,
		ServiceFee: b.ServiceFee.Amount,
		Deposit:    b.Deposit.Amount,
		Currency:   b.RentalFee.Currency,
	}, nil
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = RequestBookingCommand{}
