package payments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentilia/internal/app/outbox"
	"rentilia/internal/app/policies"
	"rentilia/internal/app/uow"
	domainbooking "rentilia/internal/domain/booking"
)

// EventLedger is the durable idempotency ledger for gateway callbacks. Seen
// inserts the event id and reports whether it already existed, so the write
// and the dedupe check are a single operation.
type EventLedger interface {
	Seen(ctx context.Context, eventID, eventType string) (bool, error)
}

// WebhookIngestor consumes verified gateway events exactly once. The ledger
// write happens before any side effect: a crash between the two marks the
// event processed without its effect, which is the accepted tradeoff for
// never double-processing a redelivery.
type WebhookIngestor struct {
	Ledger  EventLedger
	UoW     uow.UoWFactory
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (i *WebhookIngestor) Process(ctx context.Context, ev policies.GatewayEvent) error {
	seen, err := i.Ledger.Seen(ctx, ev.ID, ev.Type)
	if err != nil {
		return err
	}
	if seen {
		i.log().Debug("duplicate gateway event ignored", "event", ev.ID, "type", ev.Type)
		return nil
	}

	switch ev.Type {
	case "payment_intent.succeeded":
		return i.markPaid(ctx, ev)
	case "payment_intent.payment_failed":
		return i.recordFailure(ctx, ev)
	case "charge.refunded":
		i.log().Info("refund reported by gateway", "event", ev.ID, "hold", ev.HoldID)
		return nil
	default:
		i.log().Debug("unhandled gateway event type", "event", ev.ID, "type", ev.Type)
		return nil
	}
}

func (i *WebhookIngestor) markPaid(ctx context.Context, ev policies.GatewayEvent) error {
	if ev.BookingID == "" {
		i.log().Warn("payment succeeded without booking metadata", "event", ev.ID, "hold", ev.HoldID)
		return nil
	}
	unit, err := i.UoW.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(ev.BookingID))
	if err != nil {
		if errors.Is(err, domainbooking.ErrBookingNotFound) {
			i.log().Warn("gateway event references unknown booking", "event", ev.ID, "booking", ev.BookingID)
			return nil
		}
		return err
	}
	if b.Status != domainbooking.StatusRequested {
		// The checkout path already advanced the booking; redelivered
		// confirmations are a no-op.
		i.log().Debug("booking already advanced, ignoring payment confirmation", "booking", b.ID, "status", b.Status)
		return nil
	}
	if err := b.MarkPaid(time.Now()); err != nil {
		return err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return err
	}
	if err := outbox.DrainAggregate(ctx, i.Outbox, i.Encoder, b); err != nil {
		return err
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

func (i *WebhookIngestor) recordFailure(ctx context.Context, ev policies.GatewayEvent) error {
	unit, err := i.UoW.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	failure := domainbooking.PaymentFailure{
		ID:        uuid.NewString(),
		BookingID: domainbooking.BookingID(ev.BookingID),
		HoldID:    ev.HoldID,
		Message:   ev.Message,
		FailedAt:  time.Now().UTC(),
	}
	if err := unit.Failures().Append(ctx, failure); err != nil {
		return err
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	committed = true
	i.log().Info("payment failure recorded", "event", ev.ID, "booking", ev.BookingID, "hold", ev.HoldID)
	return nil
}

func (i *WebhookIngestor) log() *slog.Logger {
	if i.Logger != nil {
		return i.Logger
	}
	return slog.Default()
}
