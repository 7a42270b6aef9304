package memory

import (
	"context"
	"errors"
	"sync"

	domainbooking "rentilia/internal/domain/booking"
	"rentilia/internal/domain/shared/events"
)

var ErrConcurrentUpdate = errors.New("memory: concurrent update detected")

// BookingRepository is the in-memory booking store used in dev mode and tests.
// Save enforces the same version check as the Mongo adapter.
type BookingRepository struct {
	mu       sync.RWMutex
	bookings map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{bookings: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(_ context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) Save(_ context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, exists := r.bookings[b.ID]
	if exists && stored.Version != b.Version {
		return ErrConcurrentUpdate
	}
	if !exists && b.Version != 0 {
		return ErrConcurrentUpdate
	}
	b.Version++
	r.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) ListByRenter(_ context.Context, renterID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.bookings {
		if b.RenterID == renterID {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	c := *b
	c.EventRecorder = events.EventRecorder{}
	if b.RefundAmount != nil {
		refund := *b.RefundAmount
		c.RefundAmount = &refund
	}
	if b.PickupConfirmedAt != nil {
		ts := *b.PickupConfirmedAt
		c.PickupConfirmedAt = &ts
	}
	if b.ReturnConfirmedAt != nil {
		ts := *b.ReturnConfirmedAt
		c.ReturnConfirmedAt = &ts
	}
	return &c
}
