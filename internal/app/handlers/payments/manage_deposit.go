package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rentilia/internal/app/apperrors"
	"rentilia/internal/app/commands"
	"rentilia/internal/app/outbox"
	"rentilia/internal/app/policies"
	"rentilia/internal/app/uow"
	domainbooking "rentilia/internal/domain/booking"
	"rentilia/internal/domain/shared/money"
)

const manageDepositKey = "payments.manage_deposit"

const (
	ActionRelease = "release"
	ActionCapture = "capture"
)

type ManageDepositCommand struct {
	BookingID   string
	CallerID    string
	Action      string
	AmountCents int64
}

func (c ManageDepositCommand) Key() string { return manageDepositKey }

type ManageDepositResult struct {
	Success      bool   `json:"success"`
	Action       string `json:"action"`
	Status       string `json:"status"`
	RefundAmount int64  `json:"refund_amount"`
}

type ManageDepositHandler struct {
	Deposits *DepositManager
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Notifier policies.Notifier
	Logger   *slog.Logger
}

func (h *ManageDepositHandler) Handle(ctx context.Context, cmd ManageDepositCommand) (*ManageDepositResult, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return nil, err
	}
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		if errors.Is(err, domainbooking.ErrBookingNotFound) {
			return nil, apperrors.New(apperrors.NotFound, "booking not found")
		}
		return nil, err
	}

	var result DepositResult
	switch cmd.Action {
	case ActionRelease:
		result, err = h.Deposits.Release(ctx, unit, b, cmd.CallerID)
	case ActionCapture:
		amount := money.Money{Amount: cmd.AmountCents, Currency: b.Deposit.Currency}
		result, err = h.Deposits.Capture(ctx, unit, b, cmd.CallerID, amount)
	default:
		return nil, apperrors.Newf(apperrors.InvalidArgument, "unknown deposit action %q", cmd.Action)
	}
	if err != nil {
		return nil, err
	}

	if err := outbox.DrainAggregate(ctx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}
	h.notifyRenter(ctx, b, cmd.Action, result)
	return &ManageDepositResult{
		Success:      true,
		Action:       cmd.Action,
		Status:       string(b.Status),
		RefundAmount: result.Refund.Amount,
	}, nil
}

func (h *ManageDepositHandler) notifyRenter(ctx context.Context, b *domainbooking.Booking, action string, result DepositResult) {
	var body string
	if action == ActionRelease {
		body = fmt.Sprintf("Your full deposit of %d %s for booking %s will be released.", result.Refund.Amount, result.Refund.Currency, b.ID)
	} else {
		captured := int64(0)
		if result.Captured != nil {
			captured = result.Captured.Amount
		}
		body = fmt.Sprintf("For booking %s, %d %s of your deposit was charged for damage; %d %s will be refunded.",
			b.ID, captured, b.Deposit.Currency, result.Refund.Amount, result.Refund.Currency)
	}
	policies.NotifyBestEffort(ctx, h.Notifier, h.Logger, policies.Notification{
		RecipientID: b.RenterID,
		Subject:     "Deposit resolved",
		Body:        body,
	})
}

var _ commands.Handler[ManageDepositCommand, *ManageDepositResult] = (*ManageDepositHandler)(nil)
