package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentilia/internal/app/commands"
	paymentsapp "rentilia/internal/app/handlers/payments"
)

type PaymentHTTP interface {
	InitiatePayment(c *gin.Context)
	CompleteCheckout(c *gin.Context)
	ManageDeposit(c *gin.Context)
}

type PaymentHandler struct {
	Bus    commands.Bus
	Logger *slog.Logger
}

func (h PaymentHandler) InitiatePayment(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	result, err := commands.Dispatch[paymentsapp.InitiatePaymentCommand, *paymentsapp.InitiatePaymentResult](
		c.Request.Context(), h.Bus, paymentsapp.InitiatePaymentCommand{
			BookingID:       c.Param("id"),
			CallerID:        p.ID,
			IdempotencyKeyV: idempotencyKey(c, p.ID),
		})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type checkoutRequest struct {
	PaymentMethodID string `json:"payment_method_id"`
}

func (h PaymentHandler) CompleteCheckout(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	result, err := commands.Dispatch[paymentsapp.CompleteCheckoutCommand, *paymentsapp.CompleteCheckoutResult](
		c.Request.Context(), h.Bus, paymentsapp.CompleteCheckoutCommand{
			BookingID:       c.Param("id"),
			CallerID:        p.ID,
			PaymentMethodID: req.PaymentMethodID,
		})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type manageDepositRequest struct {
	Action      string `json:"action"`
	AmountCents int64  `json:"amount_cents"`
}

func (h PaymentHandler) ManageDeposit(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req manageDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	result, err := commands.Dispatch[paymentsapp.ManageDepositCommand, *paymentsapp.ManageDepositResult](
		c.Request.Context(), h.Bus, paymentsapp.ManageDepositCommand{
			BookingID:   c.Param("id"),
			CallerID:    p.ID,
			Action:      req.Action,
			AmountCents: req.AmountCents,
		})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PaymentHTTP = PaymentHandler{}
