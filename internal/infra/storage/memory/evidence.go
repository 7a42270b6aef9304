package memory

import (
	"context"
	"sync"

	domainbooking "rentilia/internal/domain/booking"
)

type EvidenceStore struct {
	mu   sync.RWMutex
	rows []*domainbooking.ReturnEvidence
}

func NewEvidenceStore() *EvidenceStore {
	return &EvidenceStore{}
}

func (s *EvidenceStore) Add(_ context.Context, ev *domainbooking.ReturnEvidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *ev
	clone.PhotoURLs = append([]string(nil), ev.PhotoURLs...)
	s.rows = append(s.rows, &clone)
	return nil
}

func (s *EvidenceStore) ListByBooking(_ context.Context, bookingID domainbooking.BookingID) ([]*domainbooking.ReturnEvidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domainbooking.ReturnEvidence
	for _, ev := range s.rows {
		if ev.BookingID == bookingID {
			clone := *ev
			clone.PhotoURLs = append([]string(nil), ev.PhotoURLs...)
			out = append(out, &clone)
		}
	}
	return out, nil
}

type FailureLog struct {
	mu   sync.RWMutex
	rows []domainbooking.PaymentFailure
}

func NewFailureLog() *FailureLog {
	return &FailureLog{}
}

func (l *FailureLog) Append(_ context.Context, f domainbooking.PaymentFailure) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, f)
	return nil
}

// Rows returns a snapshot of the appended failures.
func (l *FailureLog) Rows() []domainbooking.PaymentFailure {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domainbooking.PaymentFailure(nil), l.rows...)
}
