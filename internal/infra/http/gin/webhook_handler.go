package ginserver

import (
	"io"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	paymentsapp "rentilia/internal/app/handlers/payments"
	"rentilia/internal/app/policies"
)

type WebhookHTTP interface {
	Stripe(c *gin.Context)
}

// WebhookHandler terminates gateway callbacks: verify the signature, hand the
// decoded event to the ingestor, and answer 200 only when processing stuck
// durably.
// A 5xx tells the gateway to redeliver.
type WebhookHandler struct {
	Webhooks policies.WebhookPort
	Ingestor *paymentsapp.WebhookIngestor
	Logger   *slog.Logger
}

func (h WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}
	ev, err := h.Webhooks.ParseEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("webhook rejected", "error", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}
	if err := h.Ingestor.Process(c.Request.Context(), ev); err != nil {
		if h.Logger != nil {
			h.Logger.Error("webhook processing failed", "event", ev.ID, "type", ev.Type, "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

var _ WebhookHTTP = WebhookHandler{}
