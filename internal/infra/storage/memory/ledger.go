package memory

import (
	"context"
	"sync"

	"rentilia/internal/app/middleware"
)

// WebhookLedger records gateway event IDs so redelivered webhooks are dropped.
type WebhookLedger struct {
	mu   sync.Mutex
	seen map[string]string
}

func NewWebhookLedger() *WebhookLedger {
	return &WebhookLedger{seen: make(map[string]string)}
}

func (l *WebhookLedger) Seen(_ context.Context, eventID, eventType string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[eventID]; ok {
		return true, nil
	}
	l.seen[eventID] = eventType
	return false, nil
}

type IdempotencyStore struct {
	mu      sync.RWMutex
	records map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{records: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	return rec, ok, nil
}

func (s *IdempotencyStore) Save(_ context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Key] = rec
	return nil
}
