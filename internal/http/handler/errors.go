package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"trialwatch.app/engine/internal/service"
)

// respondError maps service errors onto status codes. Unknown errors are
// logged and hidden behind fallback.
func respondError(c *gin.Context, err error, fallback string) {
	ctx := c.Request.Context()
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidRule):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrMemberNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrMissingUser):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDedupKeyHeld):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		slog.ErrorContext(ctx, fallback, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func bindError(c *gin.Context, err error) {
	slog.WarnContext(c.Request.Context(), "invalid request body", "error", err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
