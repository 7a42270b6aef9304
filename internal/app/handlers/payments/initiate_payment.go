package payments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rentilia/internal/app/apperrors"
	"rentilia/internal/app/commands"
	"rentilia/internal/app/middleware"
	"rentilia/internal/app/outbox"
	"rentilia/internal/app/policies"
	"rentilia/internal/app/uow"
	domainbooking "rentilia/internal/domain/booking"
)

const initiatePaymentKey = "payments.initiate"

type InitiatePaymentCommand struct {
	BookingID       string
	CallerID        string
	IdempotencyKeyV string
}

func (c InitiatePaymentCommand) Key() string { return initiatePaymentKey }

func (c InitiatePaymentCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c InitiatePaymentCommand) ResultPrototype() any { return &InitiatePaymentResult{} }

type InitiatePaymentResult struct {
	RentalClientSecret  string `json:"rental_client_secret"`
	DepositClientSecret string `json:"deposit_client_secret"`
}

// InitiatePaymentHandler creates the two independent holds for a requested
// booking: the rental fee (auto capture) and the deposit (authorization
// only). Both hold ids land on the booking in a single save.
type InitiatePaymentHandler struct {
	Payments   policies.PaymentsPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	RequestTTL time.Duration
	Logger     *slog.Logger
}

func (h *InitiatePaymentHandler) Handle(ctx context.Context, cmd InitiatePaymentCommand) (*InitiatePaymentResult, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return nil, err
	}
	b, err := loadRenterBooking(ctx, unit, cmd.BookingID, cmd.CallerID)
	if err != nil {
		return nil, err
	}
	if expired, err := expireIfStale(ctx, unit, h.Outbox, h.Encoder, b, h.RequestTTL); err != nil {
		return nil, err
	} else if expired {
		return nil, apperrors.New(apperrors.InvalidState, "booking request expired")
	}
	if b.Status != domainbooking.StatusRequested {
		return nil, apperrors.Newf(apperrors.InvalidState, "booking is %q, payment can only be initiated while requested", b.Status)
	}

	rental, err := h.Payments.CreateHold(ctx, policies.CreateHoldParams{
		BookingID: string(b.ID),
		RenterID:  b.RenterID,
		ItemID:    string(b.ItemID),
		Kind:      policies.HoldKindRentalFee,
		Amount:    b.RentalFee,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Gateway, "rental fee hold failed", err)
	}
	deposit, err := h.Payments.CreateHold(ctx, policies.CreateHoldParams{
		BookingID:     string(b.ID),
		RenterID:      b.RenterID,
		ItemID:        string(b.ItemID),
		Kind:          policies.HoldKindDeposit,
		Amount:        b.Deposit,
		ManualCapture: true,
	})
	if err != nil {
		// Holds are created together or not at all; void the rental hold so
		// no orphaned authorization survives a deposit failure.
		if _, cancelErr := h.Payments.CancelHold(ctx, rental.ID); cancelErr != nil && h.Logger != nil {
			h.Logger.Warn("orphaned rental hold could not be canceled", "booking", b.ID, "hold", rental.ID, "error", cancelErr)
		}
		return nil, apperrors.Wrap(apperrors.Gateway, "deposit hold failed", err)
	}

	if err := b.AttachHolds(rental.ID, deposit.ID, time.Now()); err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidState, "could not attach holds", err)
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := outbox.DrainAggregate(ctx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}
	return &InitiatePaymentResult{
		RentalClientSecret:  rental.ClientSecret,
		DepositClientSecret: deposit.ClientSecret,
	}, nil
}

// loadRenterBooking resolves a booking for its renter; anyone else gets the
// same not-found answer so booking ids cannot be probed.
func loadRenterBooking(ctx context.Context, unit uow.UnitOfWork, id, callerID string) (*domainbooking.Booking, error) {
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
	if err != nil {
		if errors.Is(err, domainbooking.ErrBookingNotFound) {
			return nil, apperrors.New(apperrors.NotFound, "booking not found")
		}
		return nil, err
	}
	if b.RoleOf(callerID) != domainbooking.RoleRenter {
		return nil, apperrors.New(apperrors.NotFound, "booking not found")
	}
	return b, nil
}

// expireIfStale lazily enforces the payment window: a requested booking past
// its TTL is cancelled in place.
func expireIfStale(ctx context.Context, unit uow.UnitOfWork, box outbox.Outbox, enc outbox.EventEncoder, b *domainbooking.Booking, ttl time.Duration) (bool, error) {
	now := time.Now()
	if !b.RequestExpired(now, ttl) {
		return false, nil
	}
	if err := b.Cancel("payment window expired", now); err != nil {
		return false, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return false, err
	}
	if err := outbox.DrainAggregate(ctx, box, enc, b); err != nil {
		return false, err
	}
	return true, nil
}

var _ commands.Handler[InitiatePaymentCommand, *InitiatePaymentResult] = (*InitiatePaymentHandler)(nil)
var _ middleware.IdempotentCommand = InitiatePaymentCommand{}
