package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentilia/internal/app/apperrors"
)

// respondError maps the application failure taxonomy onto HTTP statuses.
// Unknown errors are logged server-side and hidden from the client.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.Unauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case apperrors.Forbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case apperrors.NotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.InvalidState, apperrors.InvalidArgument:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.Gateway:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if logger != nil {
			logger.Error("request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
