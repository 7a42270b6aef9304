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

func newInitiateHandler(f *fixture) *payments.InitiatePaymentHandler {
	return &payments.InitiatePaymentHandler{
		Payments:   f.gateway,
		Outbox:     f.outbox,
		Encoder:    outbox.JSONEventEncoder{},
		RequestTTL: 15 * time.Minute,
		Logger:     discardLogger(),
	}
}

func TestInitiatePaymentCreatesBothHolds(t *testing.T) {
	f := newFixture(t)
	b := f.seedRequestedBooking(t, time.Now().UTC())
	h := newInitiateHandler(f)

	result, err := h.Handle(f.ctx, payments.InitiatePaymentCommand{
		BookingID: string(b.ID),
		CallerID:  "renter-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RentalClientSecret)
	assert.NotEmpty(t, result.DepositClientSecret)
	assert.NotEqual(t, result.RentalClientSecret, result.DepositClientSecret)

	stored := f.reload(t, b.ID)
	assert.NotEmpty(t, stored.RentalHoldID)
	assert.NotEmpty(t, stored.DepositHoldID)
	assert.Equal(t, domainbooking.StatusRequested, stored.Status)
}

func TestInitiatePaymentHidesBookingsFromStrangers(t *testing.T) {
	f := newFixture(t)
	b := f.seedRequestedBooking(t, time.Now().UTC())
	h := newInitiateHandler(f)

	// The owner and unrelated users get the same answer so booking ids
	// cannot be probed for existence.
	for _, caller := range []string{"owner-1", "somebody-else"} {
		_, err := h.Handle(f.ctx, payments.InitiatePaymentCommand{
			BookingID: string(b.ID),
			CallerID:  caller,
		})
		assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err), "caller %s", caller)
	}
}

func TestInitiatePaymentCancelsRentalHoldWhenDepositFails(t *testing.T) {
	f := newFixture(t)
	b := f.seedRequestedBooking(t, time.Now().UTC())
	f.gateway.FailCreate[policies.HoldKindDeposit] = errors.New("card declined")
	h := newInitiateHandler(f)

	_, err := h.Handle(f.ctx, payments.InitiatePaymentCommand{
		BookingID: string(b.ID),
		CallerID:  "renter-1",
	})
	assert.Equal(t, apperrors.Gateway, apperrors.KindOf(err))

	holds := f.gateway.Holds()
	require.Len(t, holds, 1)
	assert.Equal(t, policies.HoldCanceled, holds[0].Status)

	stored := f.reload(t, b.ID)
	assert.Empty(t, stored.RentalHoldID)
	assert.Empty(t, stored.DepositHoldID)
}

func TestInitiatePaymentExpiresStaleRequest(t *testing.T) {
	f := newFixture(t)
	b := f.seedRequestedBooking(t, time.Now().UTC().Add(-time.Hour))
	h := newInitiateHandler(f)

	_, err := h.Handle(f.ctx, payments.InitiatePaymentCommand{
		BookingID: string(b.ID),
		CallerID:  "renter-1",
	})
	assert.Equal(t, apperrors.InvalidState, apperrors.KindOf(err))

	stored := f.reload(t, b.ID)
	assert.Equal(t, domainbooking.StatusCancelled, stored.Status)
	assert.Empty(t, f.gateway.Holds())
}
