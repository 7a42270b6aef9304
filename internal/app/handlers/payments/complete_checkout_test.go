package payments_test

import (
	"errors"
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

func newCheckoutHandler(f *fixture) *payments.CompleteCheckoutHandler {
	return &payments.CompleteCheckoutHandler{
		Payments:   f.gateway,
		Outbox:     f.outbox,
		Encoder:    outbox.JSONEventEncoder{},
		RequestTTL: 15 * time.Minute,
		Logger:     discardLogger(),
	}
}

func TestCompleteCheckoutMarksPaidAfterBothConfirmations(t *testing.T) {
	f := newFixture(t)
	b := f.seedBookingWithHolds(t)
	h := newCheckoutHandler(f)

	result, err := h.Handle(f.ctx, payments.CompleteCheckoutCommand{
		BookingID:       string(b.ID),
		CallerID:        "renter-1",
		PaymentMethodID: "pm_card_visa",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, string(domainbooking.StatusPaid), result.Status)

	// The rental fee is charged outright; the deposit stays an authorization.
	rentalStatus, ok := f.gateway.HoldStatus(b.RentalHoldID)
	require.True(t, ok)
	assert.Equal(t, policies.HoldSucceeded, rentalStatus)
	depositStatus, ok := f.gateway.HoldStatus(b.DepositHoldID)
	require.True(t, ok)
	assert.Equal(t, policies.HoldRequiresCapture, depositStatus)

	stored := f.reload(t, b.ID)
	assert.Equal(t, domainbooking.StatusPaid, stored.Status)
}

func TestCompleteCheckoutRequiresPaymentMethod(t *testing.T) {
	f := newFixture(t)
	b := f.seedBookingWithHolds(t)
	h := newCheckoutHandler(f)

	_, err := h.Handle(f.ctx, payments.CompleteCheckoutCommand{
		BookingID: string(b.ID),
		CallerID:  "renter-1",
	})
	assert.Equal(t, apperrors.InvalidArgument, apperrors.KindOf(err))
}

func TestCompleteCheckoutRequiresInitiatedPayment(t *testing.T) {
	f := newFixture(t)
	b := f.seedRequestedBooking(t, time.Now().UTC())
	h := newCheckoutHandler(f)

	_, err := h.Handle(f.ctx, payments.CompleteCheckoutCommand{
		BookingID:       string(b.ID),
		CallerID:        "renter-1",
		PaymentMethodID: "pm_card_visa",
	})
	assert.Equal(t, apperrors.InvalidState, apperrors.KindOf(err))
}

func TestCompleteCheckoutLeavesBookingRequestedWhenRentalFails(t *testing.T) {
	f := newFixture(t)
	b := f.seedBookingWithHolds(t)
	f.gateway.FailConfirm[policies.HoldKindRentalFee] = errors.New("insufficient funds")
	h := newCheckoutHandler(f)

	_, err := h.Handle(f.ctx, payments.CompleteCheckoutCommand{
		BookingID:       string(b.ID),
		CallerID:        "renter-1",
		PaymentMethodID: "pm_card_visa",
	})
	assert.Equal(t, apperrors.Gateway, apperrors.KindOf(err))

	stored := f.reload(t, b.ID)
	assert.Equal(t, domainbooking.StatusRequested, stored.Status)
}

func TestCompleteCheckoutLeavesBookingRequestedWhenDepositFails(t *testing.T) {
	f := newFixture(t)
	b := f.seedBookingWithHolds(t)
	f.gateway.FailConfirm[policies.HoldKindDeposit] = errors.New("authorization declined")
	h := newCheckoutHandler(f)

	_, err := h.Handle(f.ctx, payments.CompleteCheckoutCommand{
		BookingID:       string(b.ID),
		CallerID:        "renter-1",
		PaymentMethodID: "pm_card_visa",
	})
	assert.Equal(t, apperrors.Gateway, apperrors.KindOf(err))

	// The rental fee went through but the booking must not advance; the
	// renter can retry the checkout.
	rentalStatus, ok := f.gateway.HoldStatus(b.RentalHoldID)
	require.True(t, ok)
	assert.Equal(t, policies.HoldSucceeded, rentalStatus)

	stored := f.reload(t, b.ID)
	assert.Equal(t, domainbooking.StatusRequested, stored.Status)
}
