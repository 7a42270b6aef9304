package ginserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rentilia/internal/app/policies"
	domainbooking "rentilia/internal/domain/booking"
)

const maxEvidencePhotoSize = 10 << 20

type EvidenceHTTP interface {
	UploadPhoto(c *gin.Context)
}

// EvidenceHandler stores damage photos before the owner confirms the return;
// the returned URLs go into the confirm-return request body.
type EvidenceHandler struct {
	Bookings domainbooking.Repository
	Uploader policies.Uploader
	Logger   *slog.Logger
}

func (h EvidenceHandler) UploadPhoto(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	bookingID := domainbooking.BookingID(c.Param("id"))
	b, err := h.Bookings.ByID(c.Request.Context(), bookingID)
	if err != nil {
		if errors.Is(err, domainbooking.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		respondError(c, h.Logger, err)
		return
	}
	if b.RoleOf(p.ID) == domainbooking.RoleNeither {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file required"})
		return
	}
	if file.Size > maxEvidencePhotoSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo exceeds 10MB"})
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only image uploads are accepted"})
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	defer src.Close()

	key := fmt.Sprintf("evidence/%s/%s%s", bookingID, uuid.NewString(), strings.ToLower(filepath.Ext(file.Filename)))
	url, err := h.Uploader.Upload(c.Request.Context(), key, src, contentType)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("evidence upload failed", "booking", bookingID, "error", err)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

var _ EvidenceHTTP = EvidenceHandler{}
