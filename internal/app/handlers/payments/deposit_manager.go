package payments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rentilia/internal/app/apperrors"
	"rentilia/internal/app/policies"
	"rentilia/internal/app/uow"
	domainbooking "rentilia/internal/domain/booking"
	"rentilia/internal/domain/shared/money"
)

// DepositManager is the release/capture primitive over a booking's deposit
// hold. It never touches the rental-fee hold, and it always re-fetches the
// hold's status from the gateway before acting: the gateway, not the local
// row, is the source of truth for hold state. A concurrent call that loses
// the race observes a hold no longer awaiting capture and fails cleanly.
type DepositManager struct {
	Payments policies.PaymentsPort
	Logger   *slog.Logger
}

type DepositResult struct {
	Hold     policies.Hold
	Refund   money.Money
	Captured *money.Money
}

// Release cancels the deposit hold and closes the booking with a full refund.
func (m *DepositManager) Release(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, callerID string) (DepositResult, error) {
	if err := m.guard(b, callerID); err != nil {
		return DepositResult{}, err
	}
	hold, err := m.awaitingCapture(ctx, b)
	if err != nil {
		return DepositResult{}, err
	}
	canceled, err := m.Payments.CancelHold(ctx, hold.ID)
	if err != nil {
		return DepositResult{}, apperrors.Wrap(apperrors.Gateway, "deposit release failed", err)
	}
	if err := b.ReleaseDeposit(time.Now()); err != nil {
		return DepositResult{}, m.stateErr(err)
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return DepositResult{}, err
	}
	return DepositResult{Hold: canceled, Refund: *b.RefundAmount}, nil
}

// Capture charges part of the deposit hold, clamped so the captured amount
// can never exceed the original deposit, and refunds the remainder.
func (m *DepositManager) Capture(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, callerID string, amount money.Money) (DepositResult, error) {
	if err := m.guard(b, callerID); err != nil {
		return DepositResult{}, err
	}
	if !amount.IsPositive() {
		return DepositResult{}, apperrors.New(apperrors.InvalidArgument, "capture amount must be positive")
	}
	hold, err := m.awaitingCapture(ctx, b)
	if err != nil {
		return DepositResult{}, err
	}
	if !hold.AmountCapturable.IsPositive() {
		return DepositResult{}, apperrors.New(apperrors.InvalidState, "deposit hold has no capturable amount")
	}
	clamped, err := amount.ClampTo(b.Deposit)
	if err != nil {
		return DepositResult{}, apperrors.Wrap(apperrors.InvalidArgument, "capture amount rejected", err)
	}
	captured, err := m.Payments.CaptureHold(ctx, hold.ID, clamped)
	if err != nil {
		return DepositResult{}, apperrors.Wrap(apperrors.Gateway, "deposit capture failed", err)
	}
	if err := b.CaptureDeposit(clamped, time.Now()); err != nil {
		return DepositResult{}, m.stateErr(err)
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return DepositResult{}, err
	}
	return DepositResult{Hold: captured, Refund: *b.RefundAmount, Captured: &clamped}, nil
}

// guard runs every local check before the gateway is touched: a hold must
// never be canceled or charged for a booking whose state would reject the
// transition afterwards.
func (m *DepositManager) guard(b *domainbooking.Booking, callerID string) error {
	if b.RoleOf(callerID) != domainbooking.RoleOwner {
		return apperrors.New(apperrors.Forbidden, "only the item owner can manage the deposit")
	}
	if b.DepositHoldID == "" {
		return apperrors.New(apperrors.InvalidState, "booking has no deposit hold")
	}
	if !b.CanConfirmReturn() {
		return apperrors.Newf(apperrors.InvalidState, "booking is %q, deposit can only be resolved after pickup", b.Status)
	}
	return nil
}

// awaitingCapture re-fetches the deposit hold and requires it to be in the
// authorized, awaiting-capture state; any other state is reported verbatim.
func (m *DepositManager) awaitingCapture(ctx context.Context, b *domainbooking.Booking) (policies.Hold, error) {
	hold, err := m.Payments.RetrieveHold(ctx, b.DepositHoldID)
	if err != nil {
		return policies.Hold{}, apperrors.Wrap(apperrors.Gateway, "deposit hold lookup failed", err)
	}
	if hold.Status != policies.HoldRequiresCapture {
		return policies.Hold{}, apperrors.Newf(apperrors.InvalidState,
			"deposit hold is %q, must be awaiting capture", hold.Status)
	}
	return hold, nil
}

func (m *DepositManager) stateErr(err error) error {
	if errors.Is(err, domainbooking.ErrInvalidState) {
		return apperrors.Wrap(apperrors.InvalidState, "deposit action not allowed", err)
	}
	return err
}
