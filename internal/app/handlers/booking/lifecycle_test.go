package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentilia/internal/app/apperrors"
	bookingapp "rentilia/internal/app/handlers/booking"
	paymentsapp "rentilia/internal/app/handlers/payments"
	"rentilia/internal/app/outbox"
	"rentilia/internal/app/policies"
	domainbooking "rentilia/internal/domain/booking"
	"rentilia/internal/domain/shared/daterange"
	"rentilia/internal/domain/shared/money"
)

// seedPaidBooking walks a booking to paid with both holds live at the
// gateway, deposit authorized and awaiting capture.
func (h *harness) seedPaidBooking(t *testing.T) *domainbooking.Booking {
	t.Helper()
	item := h.seedItem(t, true)
	now := time.Now().UTC()
	period, err := daterange.New(now, now.AddDate(0, 0, 3))
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         "bk-1",
		Item:       item,
		RenterID:   "renter-1",
		Period:     period,
		RentalFee:  money.Must(4950, "USD"),
		ServiceFee: money.Must(450, "USD"),
		CreatedAt:  now,
	})
	require.NoError(t, err)

	rental, err := h.gateway.CreateHold(h.ctx, policies.CreateHoldParams{
		BookingID: string(b.ID), RenterID: b.RenterID, ItemID: string(b.ItemID),
		Kind: policies.HoldKindRentalFee, Amount: b.RentalFee,
	})
	require.NoError(t, err)
	deposit, err := h.gateway.CreateHold(h.ctx, policies.CreateHoldParams{
		BookingID: string(b.ID), RenterID: b.RenterID, ItemID: string(b.ItemID),
		Kind: policies.HoldKindDeposit, Amount: b.Deposit, ManualCapture: true,
	})
	require.NoError(t, err)
	_, err = h.gateway.ConfirmHold(h.ctx, rental.ID, "pm_test")
	require.NoError(t, err)
	_, err = h.gateway.ConfirmHold(h.ctx, deposit.ID, "pm_test")
	require.NoError(t, err)

	require.NoError(t, b.AttachHolds(rental.ID, deposit.ID, now))
	require.NoError(t, b.MarkPaid(now))
	b.ClearEvents()
	require.NoError(t, h.factory.BookingRepo.Save(h.ctx, b))
	return b
}

func (h *harness) pickupHandler() *bookingapp.ConfirmPickupHandler {
	return &bookingapp.ConfirmPickupHandler{Outbox: h.outbox, Encoder: outbox.JSONEventEncoder{}, Logger: quietLogger()}
}

func (h *harness) returnHandler() *bookingapp.InitiateReturnHandler {
	return &bookingapp.InitiateReturnHandler{Outbox: h.outbox, Encoder: outbox.JSONEventEncoder{}, Logger: quietLogger()}
}

func (h *harness) confirmReturnHandler() *bookingapp.ConfirmReturnHandler {
	return &bookingapp.ConfirmReturnHandler{
		Deposits: &paymentsapp.DepositManager{Payments: h.gateway, Logger: quietLogger()},
		Outbox:   h.outbox,
		Encoder:  outbox.JSONEventEncoder{},
		Logger:   quietLogger(),
	}
}

func TestConfirmPickupIsOwnerOnly(t *testing.T) {
	h := newHarness(t)
	b := h.seedPaidBooking(t)
	handler := h.pickupHandler()

	_, err := handler.Handle(h.ctx, bookingapp.ConfirmPickupCommand{BookingID: string(b.ID), CallerID: "renter-1"})
	assert.Equal(t, apperrors.Forbidden, apperrors.KindOf(err))

	result, err := handler.Handle(h.ctx, bookingapp.ConfirmPickupCommand{BookingID: string(b.ID), CallerID: "owner-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusPickedUp), result.Status)
}

func TestConfirmPickupRequiresPaidBooking(t *testing.T) {
	h := newHarness(t)
	b := h.seedPaidBooking(t)
	handler := h.pickupHandler()

	_, err := handler.Handle(h.ctx, bookingapp.ConfirmPickupCommand{BookingID: string(b.ID), CallerID: "owner-1"})
	require.NoError(t, err)

	_, err = handler.Handle(h.ctx, bookingapp.ConfirmPickupCommand{BookingID: string(b.ID), CallerID: "owner-1"})
	assert.Equal(t, apperrors.InvalidState, apperrors.KindOf(err))
}

func TestInitiateReturnIsRenterOnly(t *testing.T) {
	h := newHarness(t)
	b := h.seedPaidBooking(t)
	_, err := h.pickupHandler().Handle(h.ctx, bookingapp.ConfirmPickupCommand{BookingID: string(b.ID), CallerID: "owner-1"})
	require.NoError(t, err)

	_, err = h.returnHandler().Handle(h.ctx, bookingapp.InitiateReturnCommand{BookingID: string(b.ID), CallerID: "owner-1"})
	assert.Equal(t, apperrors.Forbidden, apperrors.KindOf(err))

	result, err := h.returnHandler().Handle(h.ctx, bookingapp.InitiateReturnCommand{BookingID: string(b.ID), CallerID: "renter-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusReturnedWaitingOwner), result.Status)
}

func TestConfirmReturnWithoutDamageReleasesDeposit(t *testing.T) {
	h := newHarness(t)
	b := h.seedPaidBooking(t)
	_, err := h.pickupHandler().Handle(h.ctx, bookingapp.ConfirmPickupCommand{BookingID: string(b.ID), CallerID: "owner-1"})
	require.NoError(t, err)
	_, err = h.returnHandler().Handle(h.ctx, bookingapp.InitiateReturnCommand{BookingID: string(b.ID), CallerID: "renter-1"})
	require.NoError(t, err)

	result, err := h.confirmReturnHandler().Handle(h.ctx, bookingapp.ConfirmReturnCommand{
		BookingID: string(b.ID),
		CallerID:  "owner-1",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusClosedNoDamage), result.Status)
	assert.Equal(t, b.Deposit.Amount, result.RefundAmount)
}

func TestConfirmReturnWithDamageCapturesAndStoresEvidence(t *testing.T) {
	h := newHarness(t)
	b := h.seedPaidBooking(t)
	_, err := h.pickupHandler().Handle(h.ctx, bookingapp.ConfirmPickupCommand{BookingID: string(b.ID), CallerID: "owner-1"})
	require.NoError(t, err)

	// The owner may confirm straight from picked_up.
	result, err := h.confirmReturnHandler().Handle(h.ctx, bookingapp.ConfirmReturnCommand{
		BookingID:         string(b.ID),
		CallerID:          "owner-1",
		HasDamage:         true,
		DamageDescription: "cracked housing",
		DamageCostCents:   4000,
		PhotoURLs:         []string{"https://cdn.rentilia.dev/evidence/1.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusDepositCaptured), result.Status)
	assert.Equal(t, b.Deposit.Amount-4000, result.RefundAmount)

	evidence, err := h.factory.EvidenceRepo.ListByBooking(h.ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, evidence, 1)
	assert.Equal(t, "cracked housing", evidence[0].Description)
	assert.Equal(t, int64(4000), evidence[0].DamageCost.Amount)
}

func TestConfirmReturnFailedCaptureWritesNoEvidence(t *testing.T) {
	h := newHarness(t)
	b := h.seedPaidBooking(t)
	_, err := h.pickupHandler().Handle(h.ctx, bookingapp.ConfirmPickupCommand{BookingID: string(b.ID), CallerID: "owner-1"})
	require.NoError(t, err)

	// A concurrent release already spent the hold.
	_, err = h.gateway.CancelHold(h.ctx, b.DepositHoldID)
	require.NoError(t, err)

	_, err = h.confirmReturnHandler().Handle(h.ctx, bookingapp.ConfirmReturnCommand{
		BookingID:         string(b.ID),
		CallerID:          "owner-1",
		HasDamage:         true,
		DamageDescription: "cracked housing",
		DamageCostCents:   4000,
	})
	assert.Equal(t, apperrors.InvalidState, apperrors.KindOf(err))

	// A retry must not find a leftover row from the failed attempt.
	evidence, err := h.factory.EvidenceRepo.ListByBooking(h.ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, evidence)
}

func TestConfirmReturnIsOwnerOnly(t *testing.T) {
	h := newHarness(t)
	b := h.seedPaidBooking(t)
	_, err := h.pickupHandler().Handle(h.ctx, bookingapp.ConfirmPickupCommand{BookingID: string(b.ID), CallerID: "owner-1"})
	require.NoError(t, err)

	_, err = h.confirmReturnHandler().Handle(h.ctx, bookingapp.ConfirmReturnCommand{
		BookingID: string(b.ID),
		CallerID:  "renter-1",
	})
	assert.Equal(t, apperrors.Forbidden, apperrors.KindOf(err))
}

func TestConfirmReturnWithDamageRequiresPositiveCost(t *testing.T) {
	h := newHarness(t)
	b := h.seedPaidBooking(t)
	_, err := h.pickupHandler().Handle(h.ctx, bookingapp.ConfirmPickupCommand{BookingID: string(b.ID), CallerID: "owner-1"})
	require.NoError(t, err)

	_, err = h.confirmReturnHandler().Handle(h.ctx, bookingapp.ConfirmReturnCommand{
		BookingID: string(b.ID),
		CallerID:  "owner-1",
		HasDamage: true,
	})
	assert.Equal(t, apperrors.InvalidArgument, apperrors.KindOf(err))
}

func TestConfirmReturnBeforePickupIsInvalid(t *testing.T) {
	h := newHarness(t)
	b := h.seedPaidBooking(t)

	_, err := h.confirmReturnHandler().Handle(h.ctx, bookingapp.ConfirmReturnCommand{
		BookingID: string(b.ID),
		CallerID:  "owner-1",
	})
	assert.Equal(t, apperrors.InvalidState, apperrors.KindOf(err))
}
