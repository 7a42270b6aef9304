package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rentilia/internal/app/commands"
	bookingapp "rentilia/internal/app/handlers/booking"
	domainbooking "rentilia/internal/domain/booking"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	ListMine(c *gin.Context)
	ConfirmPickup(c *gin.Context)
	InitiateReturn(c *gin.Context)
	ConfirmReturn(c *gin.Context)
}

type BookingHandler struct {
	Bus      commands.Bus
	Bookings domainbooking.Repository
	Logger   *slog.Logger
}

type createBookingRequest struct {
	ItemID   string    `json:"item_id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

func (h BookingHandler) Create(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](
		c.Request.Context(), h.Bus, bookingapp.RequestBookingCommand{
			CommandID:       uuid.NewString(),
			ItemID:          req.ItemID,
			RenterID:        p.ID,
			StartsAt:        req.StartsAt,
			EndsAt:          req.EndsAt,
			IdempotencyKeyV: idempotencyKey(c, p.ID),
		})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	bookings, err := h.Bookings.ListByRenter(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	views := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, newBookingView(b))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": views})
}

func (h BookingHandler) ConfirmPickup(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	result, err := commands.Dispatch[bookingapp.ConfirmPickupCommand, *bookingapp.ConfirmPickupResult](
		c.Request.Context(), h.Bus, bookingapp.ConfirmPickupCommand{
			BookingID: c.Param("id"),
			CallerID:  p.ID,
		})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) InitiateReturn(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	result, err := commands.Dispatch[bookingapp.InitiateReturnCommand, *bookingapp.InitiateReturnResult](
		c.Request.Context(), h.Bus, bookingapp.InitiateReturnCommand{
			BookingID: c.Param("id"),
			CallerID:  p.ID,
		})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type confirmReturnRequest struct {
	HasDamage         bool     `json:"has_damage"`
	DamageDescription string   `json:"damage_description"`
	DamageCostCents   int64    `json:"damage_cost_cents"`
	PhotoURLs         []string `json:"photo_urls"`
}

func (h BookingHandler) ConfirmReturn(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req confirmReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	result, err := commands.Dispatch[bookingapp.ConfirmReturnCommand, *bookingapp.ConfirmReturnResult](
		c.Request.Context(), h.Bus, bookingapp.ConfirmReturnCommand{
			BookingID:         c.Param("id"),
			CallerID:          p.ID,
			HasDamage:         req.HasDamage,
			DamageDescription: req.DamageDescription,
			DamageCostCents:   req.DamageCostCents,
			PhotoURLs:         req.PhotoURLs,
		})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type bookingView struct {
	ID             string     `json:"id"`
	ItemID         string     `json:"item_id"`
	RenterID       string     `json:"renter_id"`
	OwnerID        string     `json:"owner_id"`
	Status         string     `json:"status"`
	StartsAt       time.Time  `json:"starts_at"`
	EndsAt         time.Time  `json:"ends_at"`
	RentalFee      int64      `json:"rental_fee"`
	ServiceFee     int64      `json:"service_fee"`
	Deposit        int64      `json:"deposit"`
	Currency       string     `json:"currency"`
	RefundAmount   *int64     `json:"refund_amount,omitempty"`
	PickedUpAt     *time.Time `json:"picked_up_at,omitempty"`
	ReturnClosedAt *time.Time `json:"return_closed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func newBookingView(b *domainbooking.Booking) bookingView {
	v := bookingView{
		ID:         string(b.ID),
		ItemID:     string(b.ItemID),
		RenterID:   b.RenterID,
		OwnerID:    b.OwnerID,
		Status:     string(b.Status),
		StartsAt:   b.Period.Start,
		EndsAt:     b.Period.End,
		RentalFee:  b.RentalFee.Amount,
		ServiceFee: b.ServiceFee.Amount,
		Deposit:    b.Deposit.Amount,
		Currency:   b.RentalFee.Currency,
		PickedUpAt: b.PickupConfirmedAt,
		CreatedAt:  b.CreatedAt,
	}
	v.ReturnClosedAt = b.ReturnConfirmedAt
	if b.RefundAmount != nil {
		amount := b.RefundAmount.Amount
		v.RefundAmount = &amount
	}
	return v
}

// idempotencyKey scopes the client-provided key to the caller so two users
// cannot collide on the same key.
func idempotencyKey(c *gin.Context, callerID string) string {
	key := c.GetHeader("Idempotency-Key")
	if key == "" {
		return ""
	}
	return callerID + ":" + key
}

var _ BookingHTTP = BookingHandler{}
