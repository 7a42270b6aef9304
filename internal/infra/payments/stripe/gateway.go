// Package stripe adapts the Stripe PaymentIntents API to the application's
// payments port. Rental-fee holds are created with automatic capture, deposit
// holds with manual capture so they stay authorizations until released or
// captured at return time.
package stripe

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/webhook"

	"rentilia/internal/app/policies"
	"rentilia/internal/domain/shared/money"
)

const (
	metaBookingID = "booking_id"
	metaRenterID  = "renter_id"
	metaItemID    = "item_id"
	metaType      = "type"
)

type Gateway struct {
	webhookSecret string
	logger        *slog.Logger
}

func New(secretKey, webhookSecret string, logger *slog.Logger) *Gateway {
	stripe.Key = secretKey
	return &Gateway{webhookSecret: webhookSecret, logger: logger}
}

func (g *Gateway) CreateHold(ctx context.Context, p policies.CreateHoldParams) (policies.Hold, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.Amount.Amount),
		Currency: stripe.String(strings.ToLower(p.Amount.Currency)),
	}
	if p.ManualCapture {
		params.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodManual))
	}
	params.Context = ctx
	params.AddMetadata(metaBookingID, p.BookingID)
	params.AddMetadata(metaRenterID, p.RenterID)
	params.AddMetadata(metaItemID, p.ItemID)
	params.AddMetadata(metaType, string(p.Kind))

	pi, err := paymentintent.New(params)
	if err != nil {
		return policies.Hold{}, err
	}
	return g.toHold(pi), nil
}

func (g *Gateway) RetrieveHold(ctx context.Context, holdID string) (policies.Hold, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(holdID, params)
	if err != nil {
		return policies.Hold{}, err
	}
	return g.toHold(pi), nil
}

func (g *Gateway) ConfirmHold(ctx context.Context, holdID, paymentMethod string) (policies.Hold, error) {
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethod),
	}
	params.Context = ctx
	pi, err := paymentintent.Confirm(holdID, params)
	if err != nil {
		return policies.Hold{}, err
	}
	return g.toHold(pi), nil
}

func (g *Gateway) CaptureHold(ctx context.Context, holdID string, amount money.Money) (policies.Hold, error) {
	params := &stripe.PaymentIntentCaptureParams{
		AmountToCapture: stripe.Int64(amount.Amount),
	}
	params.Context = ctx
	pi, err := paymentintent.Capture(holdID, params)
	if err != nil {
		return policies.Hold{}, err
	}
	return g.toHold(pi), nil
}

func (g *Gateway) CancelHold(ctx context.Context, holdID string) (policies.Hold, error) {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	pi, err := paymentintent.Cancel(holdID, params)
	if err != nil {
		return policies.Hold{}, err
	}
	return g.toHold(pi), nil
}

// ParseEvent verifies the webhook signature and flattens the event into the
// fields the ingestor consumes.
func (g *Gateway) ParseEvent(payload []byte, signature string) (policies.GatewayEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return policies.GatewayEvent{}, err
	}
	out := policies.GatewayEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			if g.logger != nil {
				g.logger.Warn("could not decode payment intent from event", "event", event.ID, "error", err)
			}
			return out, nil
		}
		out.HoldID = pi.ID
		out.BookingID = pi.Metadata[metaBookingID]
		out.HoldKind = policies.HoldKind(pi.Metadata[metaType])
		if pi.LastPaymentError != nil {
			out.Message = pi.LastPaymentError.Msg
		}
	}
	return out, nil
}

func (g *Gateway) toHold(pi *stripe.PaymentIntent) policies.Hold {
	currency := strings.ToUpper(string(pi.Currency))
	hold := policies.Hold{
		ID:               pi.ID,
		ClientSecret:     pi.ClientSecret,
		Status:           policies.HoldStatus(pi.Status),
		Amount:           money.Money{Amount: pi.Amount, Currency: currency},
		AmountCapturable: money.Money{Amount: pi.AmountCapturable, Currency: currency},
	}
	if pi.PaymentMethod != nil {
		hold.PaymentMethod = pi.PaymentMethod.ID
	}
	return hold
}

var _ policies.PaymentsPort = (*Gateway)(nil)
var _ policies.WebhookPort = (*Gateway)(nil)
