package booking

import (
	"context"
	"errors"
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

const confirmPickupKey = "booking.confirm_pickup"

type ConfirmPickupCommand struct {
	BookingID string
	CallerID  string
}

func (c ConfirmPickupCommand) Key() string { return confirmPickupKey }

type ConfirmPickupResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

type ConfirmPickupHandler struct {
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Notifier policies.Notifier
	Logger   *slog.Logger
}

func (h *ConfirmPickupHandler) Handle(ctx context.Context, cmd ConfirmPickupCommand) (*ConfirmPickupResult, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return nil, err
	}
	b, err := loadBooking(ctx, unit, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if err := requireRole(b, cmd.CallerID, domainbooking.RoleOwner, "confirm pickup"); err != nil {
		return nil, err
	}
	if err := b.ConfirmPickup(time.Now()); err != nil {
		if errors.Is(err, domainbooking.ErrInvalidState) {
			return nil, apperrors.Wrap(apperrors.InvalidState, "cannot confirm pickup", err)
		}
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := outbox.DrainAggregate(ctx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}
	policies.NotifyBestEffort(ctx, h.Notifier, h.Logger, policies.Notification{
		RecipientID: b.RenterID,
		Subject:     "Pickup confirmed",
		Body:        fmt.Sprintf("The owner confirmed pickup for booking %s. Enjoy your rental!", b.ID),
	})
	return &ConfirmPickupResult{Success: true, Status: string(b.Status)}, nil
}

var _ commands.Handler[ConfirmPickupCommand, *ConfirmPickupResult] = (*ConfirmPickupHandler)(nil)
