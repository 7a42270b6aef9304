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

const initiateReturnKey = "booking.initiate_return"

type InitiateReturnCommand struct {
	BookingID string
	CallerID  string
}

func (c InitiateReturnCommand) Key() string { return initiateReturnKey }

type InitiateReturnResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

type InitiateReturnHandler struct {
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Notifier policies.Notifier
	Logger   *slog.Logger
}

func (h *InitiateReturnHandler) Handle(ctx context.Context, cmd InitiateReturnCommand) (*InitiateReturnResult, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return nil, err
	}
	b, err := loadBooking(ctx, unit, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if err := requireRole(b, cmd.CallerID, domainbooking.RoleRenter, "initiate a return"); err != nil {
		return nil, err
	}
	if err := b.InitiateReturn(time.Now()); err != nil {
		if errors.Is(err, domainbooking.ErrInvalidState) {
			return nil, apperrors.Wrap(apperrors.InvalidState, "cannot initiate return", err)
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
		RecipientID: b.OwnerID,
		Subject:     "Return initiated",
		Body:        fmt.Sprintf("The renter reported booking %s as returned. Please inspect the item and confirm.", b.ID),
	})
	return &InitiateReturnResult{Success: true, Status: string(b.Status)}, nil
}

var _ commands.Handler[InitiateReturnCommand, *InitiateReturnResult] = (*InitiateReturnHandler)(nil)
