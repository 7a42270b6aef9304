package memory

import (
	"context"
	"sync"

	appoutbox "rentilia/internal/app/outbox"
)

// Outbox buffers event records in memory; dev mode has no broker to drain to.
type Outbox struct {
	mu      sync.RWMutex
	records []appoutbox.EventRecord
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(_ context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(context.Context) error {
	return nil
}

// Records returns a snapshot of everything added so far.
func (o *Outbox) Records() []appoutbox.EventRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}
