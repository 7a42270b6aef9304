package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Publisher delivers a finished event record to the broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, headers map[string]string, payload []byte) error
}

type WorkerConfig struct {
	PollInterval time.Duration
	TopicPrefix  string
	Source       string
	RetryBackoff []time.Duration
}

// Worker drains the outbox collection and ships events to Kafka as
// CloudEvents envelopes. A single worker instance per process is enough;
// claiming is atomic so running more is safe.
type Worker struct {
	store     *Store
	publisher Publisher
	logger    *slog.Logger
	cfg       WorkerConfig
	workerID  string
}

func NewWorker(store *Store, publisher Publisher, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Source == "" {
		cfg.Source = "rentilia"
	}
	if len(cfg.RetryBackoff) == 0 {
		cfg.RetryBackoff = []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}
	}
	return &Worker{
		store:     store,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
		workerID:  uuid.NewString(),
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		doc, err := w.store.Claim(ctx, w.workerID)
		if err != nil {
			w.logger.Error("outbox claim failed", "error", err)
			return
		}
		if doc == nil {
			return
		}
		if err := w.dispatch(ctx, doc); err != nil {
			next := time.Now().UTC().Add(w.backoff(doc.Attempts))
			w.logger.Warn("outbox dispatch failed",
				"event_id", doc.ID, "event", doc.Name, "attempts", doc.Attempts+1, "error", err)
			if markErr := w.store.MarkFailed(ctx, doc.ID, next, err.Error()); markErr != nil {
				w.logger.Error("outbox mark failed", "event_id", doc.ID, "error", markErr)
			}
			continue
		}
		if err := w.store.MarkSent(ctx, doc.ID); err != nil {
			w.logger.Error("outbox mark sent", "event_id", doc.ID, "error", err)
		}
	}
}

func (w *Worker) backoff(attempts int) time.Duration {
	if attempts >= len(w.cfg.RetryBackoff) {
		return w.cfg.RetryBackoff[len(w.cfg.RetryBackoff)-1]
	}
	return w.cfg.RetryBackoff[attempts]
}

type cloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Type            string          `json:"type"`
	Subject         string          `json:"subject,omitempty"`
	Time            string          `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
}

func (w *Worker) dispatch(ctx context.Context, doc *EventDocument) error {
	envelope := cloudEvent{
		SpecVersion:     "1.0",
		ID:              doc.ID,
		Source:          w.cfg.Source,
		Type:            doc.Name,
		Subject:         doc.Aggregate,
		Time:            doc.OccurredAt.UTC().Format(time.RFC3339Nano),
		DataContentType: "application/json",
		Data:            json.RawMessage(doc.Payload),
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return w.publisher.Publish(ctx, w.topicFor(doc.Name), doc.Aggregate, doc.Headers, payload)
}

// topicFor maps "booking.paid" to "<prefix>booking.events".
func (w *Worker) topicFor(eventName string) string {
	domain := eventName
	if i := strings.IndexByte(eventName, '.'); i > 0 {
		domain = eventName[:i]
	}
	return w.cfg.TopicPrefix + domain + ".events"
}
