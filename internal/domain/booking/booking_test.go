package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentilia/internal/domain/booking"
	"rentilia/internal/domain/items"
	"rentilia/internal/domain/shared/daterange"
	"rentilia/internal/domain/shared/money"
)

var testStart = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func testItem() *items.Item {
	return &items.Item{
		ID:        "item-1",
		OwnerID:   "owner-1",
		Title:     "Angle grinder",
		DailyRate: money.Must(1500, "USD"),
		Deposit:   money.Must(10000, "USD"),
		Active:    true,
	}
}

func newTestBooking(t *testing.T) *booking.Booking {
	t.Helper()
	period, err := daterange.New(testStart, testStart.AddDate(0, 0, 3))
	require.NoError(t, err)
	b, err := booking.NewBooking(booking.CreateParams{
		ID:         "bk-1",
		Item:       testItem(),
		RenterID:   "renter-1",
		Period:     period,
		RentalFee:  money.Must(4950, "USD"),
		ServiceFee: money.Must(450, "USD"),
		CreatedAt:  testStart,
	})
	require.NoError(t, err)
	return b
}

func paidBooking(t *testing.T) *booking.Booking {
	t.Helper()
	b := newTestBooking(t)
	require.NoError(t, b.AttachHolds("pi_rent", "pi_dep", testStart))
	require.NoError(t, b.MarkPaid(testStart))
	return b
}

func TestNewBookingRejectsOwnItem(t *testing.T) {
	period, err := daterange.New(testStart, testStart.AddDate(0, 0, 2))
	require.NoError(t, err)
	_, err = booking.NewBooking(booking.CreateParams{
		ID:        "bk-x",
		Item:      testItem(),
		RenterID:  "owner-1",
		Period:    period,
		RentalFee: money.Must(3000, "USD"),
		CreatedAt: testStart,
	})
	assert.Error(t, err)
}

func TestNewBookingRequiresPositiveDeposit(t *testing.T) {
	item := testItem()
	item.Deposit = money.Money{Amount: 0, Currency: "USD"}
	period, err := daterange.New(testStart, testStart.AddDate(0, 0, 2))
	require.NoError(t, err)
	_, err = booking.NewBooking(booking.CreateParams{
		ID:        "bk-x",
		Item:      item,
		RenterID:  "renter-1",
		Period:    period,
		RentalFee: money.Must(3000, "USD"),
		CreatedAt: testStart,
	})
	assert.Error(t, err)
}

func TestNewBookingDenormalizesOwnerAndRecordsEvent(t *testing.T) {
	b := newTestBooking(t)
	assert.Equal(t, booking.StatusRequested, b.Status)
	assert.Equal(t, "owner-1", b.OwnerID)
	assert.Equal(t, money.Must(10000, "USD"), b.Deposit)

	events := b.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "booking.requested", events[0].EventName())
}

func TestRoleOf(t *testing.T) {
	b := newTestBooking(t)
	assert.Equal(t, booking.RoleRenter, b.RoleOf("renter-1"))
	assert.Equal(t, booking.RoleOwner, b.RoleOf("owner-1"))
	assert.Equal(t, booking.RoleNeither, b.RoleOf("somebody-else"))
	assert.Equal(t, booking.RoleNeither, b.RoleOf(""))
}

func TestAttachHoldsRequiresBothIDs(t *testing.T) {
	b := newTestBooking(t)
	assert.ErrorIs(t, b.AttachHolds("pi_rent", "", testStart), booking.ErrHoldsRequired)
	assert.ErrorIs(t, b.AttachHolds("", "pi_dep", testStart), booking.ErrHoldsRequired)
	require.NoError(t, b.AttachHolds("pi_rent", "pi_dep", testStart))
	assert.Equal(t, "pi_rent", b.RentalHoldID)
	assert.Equal(t, "pi_dep", b.DepositHoldID)
}

func TestMarkPaidRequiresHolds(t *testing.T) {
	b := newTestBooking(t)
	assert.ErrorIs(t, b.MarkPaid(testStart), booking.ErrHoldsRequired)

	require.NoError(t, b.AttachHolds("pi_rent", "pi_dep", testStart))
	require.NoError(t, b.MarkPaid(testStart))
	assert.Equal(t, booking.StatusPaid, b.Status)

	// A second confirmation is an invalid transition, not a silent no-op.
	assert.ErrorIs(t, b.MarkPaid(testStart), booking.ErrInvalidState)
}

func TestLifecycleHappyPathNoDamage(t *testing.T) {
	b := paidBooking(t)

	require.NoError(t, b.ConfirmPickup(testStart.AddDate(0, 0, 1)))
	assert.Equal(t, booking.StatusPickedUp, b.Status)
	require.NotNil(t, b.PickupConfirmedAt)

	require.NoError(t, b.InitiateReturn(testStart.AddDate(0, 0, 3)))
	assert.Equal(t, booking.StatusReturnedWaitingOwner, b.Status)

	require.NoError(t, b.ReleaseDeposit(testStart.AddDate(0, 0, 3)))
	assert.Equal(t, booking.StatusClosedNoDamage, b.Status)
	require.NotNil(t, b.RefundAmount)
	assert.Equal(t, b.Deposit, *b.RefundAmount)
	require.NotNil(t, b.ReturnConfirmedAt)
}

func TestOwnerMayConfirmReturnDirectlyFromPickedUp(t *testing.T) {
	b := paidBooking(t)
	require.NoError(t, b.ConfirmPickup(testStart))
	assert.True(t, b.CanConfirmReturn())
	require.NoError(t, b.ReleaseDeposit(testStart))
	assert.Equal(t, booking.StatusClosedNoDamage, b.Status)
}

func TestCaptureDepositRefundsRemainder(t *testing.T) {
	b := paidBooking(t)
	require.NoError(t, b.ConfirmPickup(testStart))
	require.NoError(t, b.InitiateReturn(testStart))

	require.NoError(t, b.CaptureDeposit(money.Must(4000, "USD"), testStart))
	assert.Equal(t, booking.StatusDepositCaptured, b.Status)
	require.NotNil(t, b.RefundAmount)
	assert.Equal(t, int64(6000), b.RefundAmount.Amount)
}

func TestCaptureDepositRejectsExcessAndNonPositive(t *testing.T) {
	b := paidBooking(t)
	require.NoError(t, b.ConfirmPickup(testStart))

	assert.Error(t, b.CaptureDeposit(money.Must(10001, "USD"), testStart))
	assert.Error(t, b.CaptureDeposit(money.Money{Amount: 0, Currency: "USD"}, testStart))
	assert.Equal(t, booking.StatusPickedUp, b.Status)
}

func TestDepositResolutionIsTerminal(t *testing.T) {
	b := paidBooking(t)
	require.NoError(t, b.ConfirmPickup(testStart))
	require.NoError(t, b.ReleaseDeposit(testStart))

	assert.ErrorIs(t, b.ReleaseDeposit(testStart), booking.ErrInvalidState)
	assert.ErrorIs(t, b.CaptureDeposit(money.Must(100, "USD"), testStart), booking.ErrInvalidState)
}

func TestCancelOnlyBeforePayment(t *testing.T) {
	b := newTestBooking(t)
	require.NoError(t, b.Cancel("payment window expired", testStart))
	assert.Equal(t, booking.StatusCancelled, b.Status)

	paid := paidBooking(t)
	assert.ErrorIs(t, paid.Cancel("too late", testStart), booking.ErrInvalidState)
}

func TestRequestExpired(t *testing.T) {
	b := newTestBooking(t)
	ttl := 15 * time.Minute
	assert.False(t, b.RequestExpired(testStart.Add(10*time.Minute), ttl))
	assert.True(t, b.RequestExpired(testStart.Add(16*time.Minute), ttl))

	paid := paidBooking(t)
	assert.False(t, paid.RequestExpired(testStart.Add(time.Hour), ttl))
}

func TestLifecycleEventsAreRecordedInOrder(t *testing.T) {
	b := paidBooking(t)
	require.NoError(t, b.ConfirmPickup(testStart))
	require.NoError(t, b.InitiateReturn(testStart))
	require.NoError(t, b.CaptureDeposit(money.Must(2500, "USD"), testStart))

	var names []string
	for _, ev := range b.PendingEvents() {
		names = append(names, ev.EventName())
	}
	assert.Equal(t, []string{
		"booking.requested",
		"booking.payment_initiated",
		"booking.paid",
		"booking.pickup_confirmed",
		"booking.return_initiated",
		"booking.deposit_captured",
	}, names)
}
