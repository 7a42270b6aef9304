package policies

import (
	"context"

	"rentilia/internal/domain/shared/money"
)

// HoldStatus mirrors the gateway's payment-intent lifecycle strings so status
// checks compare against the gateway's own vocabulary.
type HoldStatus string

const (
	HoldRequiresPaymentMethod HoldStatus = "requires_payment_method"
	HoldRequiresConfirmation  HoldStatus = "requires_confirmation"
	HoldRequiresCapture       HoldStatus = "requires_capture"
	HoldProcessing            HoldStatus = "processing"
	HoldSucceeded             HoldStatus = "succeeded"
	HoldCanceled              HoldStatus = "canceled"
)

// Hold is the gateway-side view of one payment authorization.
type Hold struct {
	ID               string
	ClientSecret     string
	Status           HoldStatus
	PaymentMethod    string
	Amount           money.Money
	AmountCapturable money.Money
}

// HoldKind tags a hold so webhook metadata can distinguish the two charges of
// a booking.
type HoldKind string

const (
	HoldKindRentalFee HoldKind = "rental_fee"
	HoldKindDeposit   HoldKind = "deposit"
)

type CreateHoldParams struct {
	BookingID string
	RenterID  string
	ItemID    string
	Kind      HoldKind
	Amount    money.Money
	// ManualCapture authorizes without charging; the amount is captured or
	// released later.
	ManualCapture bool
}

// PaymentsPort is the gateway capability surface: create, confirm, inspect,
// capture and cancel holds. Implementations must treat the gateway as the
// source of truth for hold status.
type PaymentsPort interface {
	CreateHold(ctx context.Context, params CreateHoldParams) (Hold, error)
	RetrieveHold(ctx context.Context, holdID string) (Hold, error)
	ConfirmHold(ctx context.Context, holdID, paymentMethod string) (Hold, error)
	CaptureHold(ctx context.Context, holdID string, amount money.Money) (Hold, error)
	CancelHold(ctx context.Context, holdID string) (Hold, error)
}

// GatewayEvent is a verified asynchronous callback from the payment gateway.
type GatewayEvent struct {
	ID        string
	Type      string
	HoldID    string
	BookingID string
	HoldKind  HoldKind
	Message   string
}

// WebhookPort verifies a raw webhook payload against its signature and
// decodes the fields the ingestor cares about.
type WebhookPort interface {
	ParseEvent(payload []byte, signature string) (GatewayEvent, error)
}
