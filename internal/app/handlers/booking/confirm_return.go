package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentilia/internal/app/apperrors"
	"rentilia/internal/app/commands"
	paymentsapp "rentilia/internal/app/handlers/payments"
	"rentilia/internal/app/outbox"
	"rentilia/internal/app/policies"
	"rentilia/internal/app/uow"
	domainbooking "rentilia/internal/domain/booking"
	"rentilia/internal/domain/shared/money"
)

const confirmReturnKey = "booking.confirm_return"

type ConfirmReturnCommand struct {
	BookingID         string
	CallerID          string
	HasDamage         bool
	DamageDescription string
	DamageCostCents   int64
	PhotoURLs         []string
}

func (c ConfirmReturnCommand) Key() string { return confirmReturnKey }

type ConfirmReturnResult struct {
	Success      bool   `json:"success"`
	Status       string `json:"status"`
	RefundAmount int64  `json:"refund_amount"`
}

// ConfirmReturnHandler resolves the deposit when the owner confirms the item
// came back: full release when no damage was reported, partial or full
// capture when it was.
type ConfirmReturnHandler struct {
	Deposits *paymentsapp.DepositManager
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Notifier policies.Notifier
	Logger   *slog.Logger
}

func (h *ConfirmReturnHandler) Handle(ctx context.Context, cmd ConfirmReturnCommand) (*ConfirmReturnResult, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return nil, err
	}
	b, err := loadBooking(ctx, unit, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if err := requireRole(b, cmd.CallerID, domainbooking.RoleOwner, "confirm the return"); err != nil {
		return nil, err
	}
	if !b.CanConfirmReturn() {
		return nil, apperrors.Newf(apperrors.InvalidState, "booking is %q, return can only be confirmed after pickup", b.Status)
	}

	var result paymentsapp.DepositResult
	if cmd.HasDamage {
		result, err = h.handleDamage(ctx, unit, b, cmd)
	} else {
		result, err = h.Deposits.Release(ctx, unit, b, cmd.CallerID)
	}
	if err != nil {
		return nil, err
	}

	if err := outbox.DrainAggregate(ctx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}
	h.notifyRenter(ctx, b, cmd.HasDamage, result)
	return &ConfirmReturnResult{
		Success:      true,
		Status:       string(b.Status),
		RefundAmount: result.Refund.Amount,
	}, nil
}

func (h *ConfirmReturnHandler) handleDamage(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, cmd ConfirmReturnCommand) (paymentsapp.DepositResult, error) {
	cost := money.Money{Amount: cmd.DamageCostCents, Currency: b.Deposit.Currency}
	if !cost.IsPositive() {
		return paymentsapp.DepositResult{}, apperrors.New(apperrors.InvalidArgument, "damage cost must be positive")
	}
	var ev *domainbooking.ReturnEvidence
	if cmd.DamageDescription != "" || len(cmd.PhotoURLs) > 0 {
		var err error
		ev, err = domainbooking.NewReturnEvidence(uuid.NewString(), b.ID, cmd.DamageDescription, cost, cmd.PhotoURLs, time.Now())
		if err != nil {
			return paymentsapp.DepositResult{}, apperrors.Wrap(apperrors.InvalidArgument, "evidence rejected", err)
		}
	}
	result, err := h.Deposits.Capture(ctx, unit, b, cmd.CallerID, cost)
	if err != nil {
		return paymentsapp.DepositResult{}, err
	}
	// The stores have no rollback, so the evidence row is written only once
	// the capture has gone through. A capture rejected on hold state must not
	// leave an orphaned row behind for a later retry to duplicate.
	if ev != nil {
		if err := unit.Evidence().Add(ctx, ev); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (h *ConfirmReturnHandler) notifyRenter(ctx context.Context, b *domainbooking.Booking, hasDamage bool, result paymentsapp.DepositResult) {
	subject := "Return confirmed"
	body := fmt.Sprintf("The owner confirmed the return for booking %s. Your full deposit of %d %s will be released.",
		b.ID, result.Refund.Amount, result.Refund.Currency)
	if hasDamage {
		captured := int64(0)
		if result.Captured != nil {
			captured = result.Captured.Amount
		}
		body = fmt.Sprintf("The owner confirmed the return for booking %s with damage reported: %d %s was charged from your deposit and %d %s will be refunded.",
			b.ID, captured, b.Deposit.Currency, result.Refund.Amount, result.Refund.Currency)
	}
	policies.NotifyBestEffort(ctx, h.Notifier, h.Logger, policies.Notification{
		RecipientID: b.RenterID,
		Subject:     subject,
		Body:        body,
	})
}

var _ commands.Handler[ConfirmReturnCommand, *ConfirmReturnResult] = (*ConfirmReturnHandler)(nil)
