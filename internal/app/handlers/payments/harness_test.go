package payments_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rentilia/internal/app/policies"
	"rentilia/internal/app/uow"
	domainbooking "rentilia/internal/domain/booking"
	domainitems "rentilia/internal/domain/items"
	"rentilia/internal/domain/shared/daterange"
	"rentilia/internal/domain/shared/money"
	"rentilia/internal/infra/storage/memory"
)

// fixture wires the in-memory infrastructure the payment workflows run on.
type fixture struct {
	factory *memory.Factory
	gateway *memory.PaymentsGateway
	outbox  *memory.Outbox
	ctx     context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	factory := memory.NewFactory()
	unit, err := factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	return &fixture{
		factory: factory,
		gateway: memory.NewPaymentsGateway(),
		outbox:  memory.NewOutbox(),
		ctx:     uow.ContextWithUnitOfWork(context.Background(), unit),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fixture) seedItem(t *testing.T) *domainitems.Item {
	t.Helper()
	item := &domainitems.Item{
		ID:        "item-1",
		OwnerID:   "owner-1",
		Title:     "Pressure washer",
		DailyRate: money.Must(1500, "USD"),
		Deposit:   money.Must(10000, "USD"),
		Active:    true,
	}
	require.NoError(t, f.factory.ItemRepo.Save(f.ctx, item))
	return item
}

func (f *fixture) seedRequestedBooking(t *testing.T, createdAt time.Time) *domainbooking.Booking {
	t.Helper()
	item := f.seedItem(t)
	period, err := daterange.New(createdAt, createdAt.AddDate(0, 0, 3))
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         "bk-1",
		Item:       item,
		RenterID:   "renter-1",
		Period:     period,
		RentalFee:  money.Must(4950, "USD"),
		ServiceFee: money.Must(450, "USD"),
		CreatedAt:  createdAt,
	})
	require.NoError(t, err)
	b.ClearEvents()
	require.NoError(t, f.factory.BookingRepo.Save(f.ctx, b))
	return b
}

// seedBookingWithHolds creates a requested booking whose two holds already
// exist at the gateway, mirroring the state after payment initiation.
func (f *fixture) seedBookingWithHolds(t *testing.T) *domainbooking.Booking {
	t.Helper()
	b := f.seedRequestedBooking(t, time.Now().UTC())
	rental := f.createHold(t, b, "rental_fee", b.RentalFee, false)
	deposit := f.createHold(t, b, "deposit", b.Deposit, true)
	require.NoError(t, b.AttachHolds(rental, deposit, time.Now()))
	b.ClearEvents()
	require.NoError(t, f.factory.BookingRepo.Save(f.ctx, b))
	return b
}

// seedPaidBooking stops at paid: both holds confirmed, pickup not yet done.
func (f *fixture) seedPaidBooking(t *testing.T) *domainbooking.Booking {
	t.Helper()
	b := f.seedBookingWithHolds(t)
	_, err := f.gateway.ConfirmHold(f.ctx, b.RentalHoldID, "pm_test")
	require.NoError(t, err)
	_, err = f.gateway.ConfirmHold(f.ctx, b.DepositHoldID, "pm_test")
	require.NoError(t, err)
	require.NoError(t, b.MarkPaid(time.Now()))
	b.ClearEvents()
	require.NoError(t, f.factory.BookingRepo.Save(f.ctx, b))
	return b
}

// seedPickedUpBooking walks a booking to picked_up with a confirmed deposit
// authorization, the precondition for deposit release and capture.
func (f *fixture) seedPickedUpBooking(t *testing.T) *domainbooking.Booking {
	t.Helper()
	b := f.seedPaidBooking(t)
	require.NoError(t, b.ConfirmPickup(time.Now()))
	b.ClearEvents()
	require.NoError(t, f.factory.BookingRepo.Save(f.ctx, b))
	return b
}

func (f *fixture) createHold(t *testing.T, b *domainbooking.Booking, kind string, amount money.Money, manual bool) string {
	t.Helper()
	hold, err := f.gateway.CreateHold(f.ctx, holdParams(b, kind, amount, manual))
	require.NoError(t, err)
	return hold.ID
}

func holdParams(b *domainbooking.Booking, kind string, amount money.Money, manual bool) policies.CreateHoldParams {
	return policies.CreateHoldParams{
		BookingID:     string(b.ID),
		RenterID:      b.RenterID,
		ItemID:        string(b.ItemID),
		Kind:          policies.HoldKind(kind),
		Amount:        amount,
		ManualCapture: manual,
	}
}

func (f *fixture) reload(t *testing.T, id domainbooking.BookingID) *domainbooking.Booking {
	t.Helper()
	b, err := f.factory.BookingRepo.ByID(f.ctx, id)
	require.NoError(t, err)
	return b
}
