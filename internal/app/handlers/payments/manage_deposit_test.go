package payments_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentilia/internal/app/apperrors"
	"rentilia/internal/app/handlers/payments"
	"rentilia/internal/app/outbox"
	"rentilia/internal/app/policies"
	domainbooking "rentilia/internal/domain/booking"
)

func newDepositHandler(f *fixture) *payments.ManageDepositHandler {
	return &payments.ManageDepositHandler{
		Deposits: &payments.DepositManager{Payments: f.gateway, Logger: discardLogger()},
		Outbox:   f.outbox,
		Encoder:  outbox.JSONEventEncoder{},
		Logger:   discardLogger(),
	}
}

func TestReleaseDepositRefundsEverything(t *testing.T) {
	f := newFixture(t)
	b := f.seedPickedUpBooking(t)
	h := newDepositHandler(f)

	result, err := h.Handle(f.ctx, payments.ManageDepositCommand{
		BookingID: string(b.ID),
		CallerID:  "owner-1",
		Action:    payments.ActionRelease,
	})
	require.NoError(t, err)
	assert.Equal(t, b.Deposit.Amount, result.RefundAmount)
	assert.Equal(t, string(domainbooking.StatusClosedNoDamage), result.Status)

	status, ok := f.gateway.HoldStatus(b.DepositHoldID)
	require.True(t, ok)
	assert.Equal(t, policies.HoldCanceled, status)
}

func TestCaptureDepositIsClampedToTheDeposit(t *testing.T) {
	f := newFixture(t)
	b := f.seedPickedUpBooking(t)
	h := newDepositHandler(f)

	result, err := h.Handle(f.ctx, payments.ManageDepositCommand{
		BookingID:   string(b.ID),
		CallerID:    "owner-1",
		Action:      payments.ActionCapture,
		AmountCents: b.Deposit.Amount + 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.RefundAmount)
	assert.Equal(t, string(domainbooking.StatusDepositCaptured), result.Status)

	status, ok := f.gateway.HoldStatus(b.DepositHoldID)
	require.True(t, ok)
	assert.Equal(t, policies.HoldSucceeded, status)
}

func TestPartialCaptureRefundsRemainder(t *testing.T) {
	f := newFixture(t)
	b := f.seedPickedUpBooking(t)
	h := newDepositHandler(f)

	result, err := h.Handle(f.ctx, payments.ManageDepositCommand{
		BookingID:   string(b.ID),
		CallerID:    "owner-1",
		Action:      payments.ActionCapture,
		AmountCents: 4000,
	})
	require.NoError(t, err)
	assert.Equal(t, b.Deposit.Amount-4000, result.RefundAmount)
}

func TestOnlyTheOwnerManagesTheDeposit(t *testing.T) {
	f := newFixture(t)
	b := f.seedPickedUpBooking(t)
	h := newDepositHandler(f)

	for _, caller := range []string{"renter-1", "somebody-else"} {
		_, err := h.Handle(f.ctx, payments.ManageDepositCommand{
			BookingID: string(b.ID),
			CallerID:  caller,
			Action:    payments.ActionRelease,
		})
		assert.Equal(t, apperrors.Forbidden, apperrors.KindOf(err), "caller %s", caller)
	}
}

func TestSecondReleaseObservesSpentHold(t *testing.T) {
	f := newFixture(t)
	b := f.seedPickedUpBooking(t)
	h := newDepositHandler(f)

	_, err := h.Handle(f.ctx, payments.ManageDepositCommand{
		BookingID: string(b.ID),
		CallerID:  "owner-1",
		Action:    payments.ActionRelease,
	})
	require.NoError(t, err)

	// The booking is closed and the gateway hold canceled; a replayed
	// release must fail on state, not double-refund.
	_, err = h.Handle(f.ctx, payments.ManageDepositCommand{
		BookingID: string(b.ID),
		CallerID:  "owner-1",
		Action:    payments.ActionRelease,
	})
	assert.Equal(t, apperrors.InvalidState, apperrors.KindOf(err))
}

func TestCaptureRequiresPositiveAmount(t *testing.T) {
	f := newFixture(t)
	b := f.seedPickedUpBooking(t)
	h := newDepositHandler(f)

	_, err := h.Handle(f.ctx, payments.ManageDepositCommand{
		BookingID: string(b.ID),
		CallerID:  "owner-1",
		Action:    payments.ActionCapture,
	})
	assert.Equal(t, apperrors.InvalidArgument, apperrors.KindOf(err))
}

func TestUnknownDepositActionIsRejected(t *testing.T) {
	f := newFixture(t)
	b := f.seedPickedUpBooking(t)
	h := newDepositHandler(f)

	_, err := h.Handle(f.ctx, payments.ManageDepositCommand{
		BookingID: string(b.ID),
		CallerID:  "owner-1",
		Action:    "refund",
	})
	assert.Equal(t, apperrors.InvalidArgument, apperrors.KindOf(err))
}

func TestReleaseBeforePickupLeavesHoldUntouched(t *testing.T) {
	f := newFixture(t)
	b := f.seedPaidBooking(t)
	h := newDepositHandler(f)

	_, err := h.Handle(f.ctx, payments.ManageDepositCommand{
		BookingID: string(b.ID),
		CallerID:  "owner-1",
		Action:    payments.ActionRelease,
	})
	assert.Equal(t, apperrors.InvalidState, apperrors.KindOf(err))

	// The booking rejects the transition, so the hold must still be live.
	status, ok := f.gateway.HoldStatus(b.DepositHoldID)
	require.True(t, ok)
	assert.Equal(t, policies.HoldRequiresCapture, status)

	stored := f.reload(t, b.ID)
	assert.Equal(t, domainbooking.StatusPaid, stored.Status)
}

func TestCaptureBeforePickupLeavesHoldUntouched(t *testing.T) {
	f := newFixture(t)
	b := f.seedPaidBooking(t)
	h := newDepositHandler(f)

	_, err := h.Handle(f.ctx, payments.ManageDepositCommand{
		BookingID:   string(b.ID),
		CallerID:    "owner-1",
		Action:      payments.ActionCapture,
		AmountCents: 4000,
	})
	assert.Equal(t, apperrors.InvalidState, apperrors.KindOf(err))

	status, ok := f.gateway.HoldStatus(b.DepositHoldID)
	require.True(t, ok)
	assert.Equal(t, policies.HoldRequiresCapture, status)

	stored := f.reload(t, b.ID)
	assert.Equal(t, domainbooking.StatusPaid, stored.Status)
}

func TestDepositBeforePaymentInitiationIsInvalid(t *testing.T) {
	f := newFixture(t)
	b := f.seedRequestedBooking(t, time.Now().UTC())
	h := newDepositHandler(f)

	_, err := h.Handle(f.ctx, payments.ManageDepositCommand{
		BookingID: string(b.ID),
		CallerID:  "owner-1",
		Action:    payments.ActionRelease,
	})
	assert.Equal(t, apperrors.InvalidState, apperrors.KindOf(err))
}
