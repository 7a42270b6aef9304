package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"rentilia/internal/app/apperrors"
	"rentilia/internal/app/policies"
	"rentilia/internal/domain/shared/money"
)

// PaymentsGateway simulates the real gateway for dev mode and tests. Holds
// move through the same status vocabulary as payment intents; failures can be
// scripted per hold kind.
type PaymentsGateway struct {
	mu    sync.Mutex
	holds map[string]*policies.Hold

	// FailCreate and FailConfirm script the next failure for a hold kind.
	FailCreate  map[policies.HoldKind]error
	FailConfirm map[policies.HoldKind]error

	kinds map[string]policies.HoldKind
	meta  map[string]gatewayMeta
}

type gatewayMeta struct {
	bookingID string
}

func NewPaymentsGateway() *PaymentsGateway {
	return &PaymentsGateway{
		holds:       make(map[string]*policies.Hold),
		FailCreate:  make(map[policies.HoldKind]error),
		FailConfirm: make(map[policies.HoldKind]error),
		kinds:       make(map[string]policies.HoldKind),
		meta:        make(map[string]gatewayMeta),
	}
}

func (g *PaymentsGateway) CreateHold(_ context.Context, params policies.CreateHoldParams) (policies.Hold, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.FailCreate[params.Kind]; err != nil {
		return policies.Hold{}, apperrors.Wrap(apperrors.Gateway, "create hold", err)
	}
	id := "pi_" + uuid.NewString()
	hold := &policies.Hold{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       policies.HoldRequiresPaymentMethod,
		Amount:       params.Amount,
	}
	g.holds[id] = hold
	g.kinds[id] = params.Kind
	g.meta[id] = gatewayMeta{bookingID: params.BookingID}
	return *hold, nil
}

func (g *PaymentsGateway) RetrieveHold(_ context.Context, holdID string) (policies.Hold, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	hold, err := g.get(holdID)
	if err != nil {
		return policies.Hold{}, err
	}
	return *hold, nil
}

func (g *PaymentsGateway) ConfirmHold(_ context.Context, holdID, paymentMethod string) (policies.Hold, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	hold, err := g.get(holdID)
	if err != nil {
		return policies.Hold{}, err
	}
	kind := g.kinds[holdID]
	if err := g.FailConfirm[kind]; err != nil {
		return policies.Hold{}, apperrors.Wrap(apperrors.Gateway, "confirm hold", err)
	}
	hold.PaymentMethod = paymentMethod
	if kind == policies.HoldKindDeposit {
		hold.Status = policies.HoldRequiresCapture
		hold.AmountCapturable = hold.Amount
	} else {
		hold.Status = policies.HoldSucceeded
	}
	return *hold, nil
}

func (g *PaymentsGateway) CaptureHold(_ context.Context, holdID string, amount money.Money) (policies.Hold, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	hold, err := g.get(holdID)
	if err != nil {
		return policies.Hold{}, err
	}
	if hold.Status != policies.HoldRequiresCapture {
		return policies.Hold{}, apperrors.Newf(apperrors.Gateway, "hold %s is %s, not capturable", holdID, hold.Status)
	}
	if amount.Amount > hold.AmountCapturable.Amount {
		return policies.Hold{}, apperrors.Newf(apperrors.Gateway, "capture amount exceeds authorized %d", hold.AmountCapturable.Amount)
	}
	hold.Status = policies.HoldSucceeded
	hold.Amount = amount
	hold.AmountCapturable = money.Money{Currency: amount.Currency}
	return *hold, nil
}

func (g *PaymentsGateway) CancelHold(_ context.Context, holdID string) (policies.Hold, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	hold, err := g.get(holdID)
	if err != nil {
		return policies.Hold{}, err
	}
	hold.Status = policies.HoldCanceled
	return *hold, nil
}

func (g *PaymentsGateway) get(holdID string) (*policies.Hold, error) {
	hold, ok := g.holds[holdID]
	if !ok {
		return nil, apperrors.Newf(apperrors.Gateway, "hold %s not found", holdID)
	}
	return hold, nil
}

// Holds returns a snapshot of every hold the gateway has seen.
func (g *PaymentsGateway) Holds() []policies.Hold {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]policies.Hold, 0, len(g.holds))
	for _, hold := range g.holds {
		out = append(out, *hold)
	}
	return out
}

// HoldStatus exposes the current status for assertions.
func (g *PaymentsGateway) HoldStatus(holdID string) (policies.HoldStatus, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	hold, ok := g.holds[holdID]
	if !ok {
		return "", false
	}
	return hold.Status, true
}

type fakeWebhookPayload struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	HoldID    string `json:"hold_id"`
	BookingID string `json:"booking_id"`
	HoldKind  string `json:"hold_kind"`
	Message   string `json:"message"`
}

// ParseEvent accepts a plain JSON body and skips signature verification; dev
// mode has no signing secret.
func (g *PaymentsGateway) ParseEvent(payload []byte, _ string) (policies.GatewayEvent, error) {
	var body fakeWebhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return policies.GatewayEvent{}, fmt.Errorf("decode webhook payload: %w", err)
	}
	ev := policies.GatewayEvent{
		ID:        body.ID,
		Type:      body.Type,
		HoldID:    body.HoldID,
		BookingID: body.BookingID,
		HoldKind:  policies.HoldKind(body.HoldKind),
		Message:   body.Message,
	}
	if ev.BookingID == "" {
		g.mu.Lock()
		ev.BookingID = g.meta[body.HoldID].bookingID
		g.mu.Unlock()
	}
	return ev, nil
}

var (
	_ policies.PaymentsPort = (*PaymentsGateway)(nil)
	_ policies.WebhookPort  = (*PaymentsGateway)(nil)
)
