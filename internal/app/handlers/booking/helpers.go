package booking

import (
	"context"
	"errors"

	"rentilia/internal/app/apperrors"
	"rentilia/internal/app/uow"
	domainbooking "rentilia/internal/domain/booking"
)

// loadBooking fetches a booking and maps store misses to the request-level
// taxonomy.
func loadBooking(ctx context.Context, unit uow.UnitOfWork, id string) (*domainbooking.Booking, error) {
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
	if err != nil {
		if errors.Is(err, domainbooking.ErrBookingNotFound) {
			return nil, apperrors.New(apperrors.NotFound, "booking not found")
		}
		return nil, err
	}
	return b, nil
}

// requireRole gates a transition on the caller's relationship to the booking.
func requireRole(b *domainbooking.Booking, callerID string, role domainbooking.Role, action string) error {
	if b.RoleOf(callerID) != role {
		who := "the renter"
		if role == domainbooking.RoleOwner {
			who = "the item owner"
		}
		return apperrors.Newf(apperrors.Forbidden, "only %s can %s", who, action)
	}
	return nil
}
