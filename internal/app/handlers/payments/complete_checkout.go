package payments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rentilia/internal/app/apperrors"
	"rentilia/internal/app/commands"
	"rentilia/internal/app/outbox"
	"rentilia/internal/app/policies"
	"rentilia/internal/app/uow"
	domainbooking "rentilia/internal/domain/booking"
)

const completeCheckoutKey = "payments.checkout"

type CompleteCheckoutCommand struct {
	BookingID       string
	CallerID        string
	PaymentMethodID string
}

func (c CompleteCheckoutCommand) Key() string { return completeCheckoutKey }

type CompleteCheckoutResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// CompleteCheckoutHandler drives the two-phase confirmation: rental-fee hold
// first, then the deposit hold with the same payment instrument. The booking
// is marked paid only after both confirmations land in an acceptable state.
//
// There is deliberately no compensation when the deposit phase fails after
// the rental fee was charged: the window is surfaced to the caller and logged
// for manual reconciliation, and the booking stays requested so the renter
// can retry.
type CompleteCheckoutHandler struct {
	Payments   policies.PaymentsPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Notifier   policies.Notifier
	RequestTTL time.Duration
	Logger     *slog.Logger
}

func (h *CompleteCheckoutHandler) Handle(ctx context.Context, cmd CompleteCheckoutCommand) (*CompleteCheckoutResult, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return nil, err
	}
	if cmd.PaymentMethodID == "" {
		return nil, apperrors.New(apperrors.InvalidArgument, "payment method required")
	}
	b, err := loadRenterBooking(ctx, unit, cmd.BookingID, cmd.CallerID)
	if err != nil {
		return nil, err
	}
	if expired, err := expireIfStale(ctx, unit, h.Outbox, h.Encoder, b, h.RequestTTL); err != nil {
		return nil, err
	} else if expired {
		return nil, apperrors.New(apperrors.InvalidState, "booking request expired")
	}
	if b.Status != domainbooking.StatusRequested {
		return nil, apperrors.Newf(apperrors.InvalidState, "booking is %q, checkout requires requested", b.Status)
	}
	if b.RentalHoldID == "" || b.DepositHoldID == "" {
		return nil, apperrors.New(apperrors.InvalidState, "payment has not been initiated for this booking")
	}

	rental, err := h.Payments.ConfirmHold(ctx, b.RentalHoldID, cmd.PaymentMethodID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Gateway, "rental fee confirmation failed", err)
	}
	if rental.Status != policies.HoldSucceeded && rental.Status != policies.HoldProcessing {
		return nil, apperrors.Newf(apperrors.Gateway, "rental fee confirmation ended in state %q", rental.Status)
	}

	// Both charges must draw from the same verified instrument.
	method := rental.PaymentMethod
	if method == "" {
		method = cmd.PaymentMethodID
	}
	deposit, err := h.Payments.ConfirmHold(ctx, b.DepositHoldID, method)
	if err != nil {
		h.warnUnconfirmedDeposit(b, err)
		return nil, apperrors.Wrap(apperrors.Gateway, "deposit confirmation failed", err)
	}
	switch deposit.Status {
	case policies.HoldRequiresCapture, policies.HoldSucceeded, policies.HoldProcessing:
	default:
		err := apperrors.Newf(apperrors.Gateway, "deposit confirmation ended in state %q", deposit.Status)
		h.warnUnconfirmedDeposit(b, err)
		return nil, err
	}

	if err := b.MarkPaid(time.Now()); err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidState, "could not mark booking paid", err)
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := outbox.DrainAggregate(ctx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}
	policies.NotifyBestEffort(ctx, h.Notifier, h.Logger, policies.Notification{
		RecipientID: b.OwnerID,
		Subject:     "Booking paid",
		Body:        fmt.Sprintf("Booking %s has been paid. Arrange the pickup with your renter.", b.ID),
	})
	return &CompleteCheckoutResult{Success: true, Status: string(b.Status)}, nil
}

func (h *CompleteCheckoutHandler) warnUnconfirmedDeposit(b *domainbooking.Booking, err error) {
	if h.Logger == nil {
		return
	}
	h.Logger.Warn("rental fee confirmed but deposit unconfirmed, manual reconciliation required",
		"booking", b.ID, "rental_hold", b.RentalHoldID, "deposit_hold", b.DepositHoldID, "error", err)
}

var _ commands.Handler[CompleteCheckoutCommand, *CompleteCheckoutResult] = (*CompleteCheckoutHandler)(nil)
