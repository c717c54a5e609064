package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trialwatch.app/engine/internal/http/dto"
	"trialwatch.app/engine/internal/http/middleware"
	"trialwatch.app/engine/internal/service"
)

type NotificationHandler struct {
	readTracker service.ReadTrackerService
}

func NewNotificationHandler(readTracker service.ReadTrackerService) *NotificationHandler {
	return &NotificationHandler{readTracker: readTracker}
}

// List returns the acting user's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	limit, ok := queryInt32(c, "limit", defaultListLimit)
	if !ok {
		return
	}
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.readTracker.List(ctx, middleware.GetUserID(ctx), unreadOnly, min(limit, maxListLimit))
	if err != nil {
		respondError(c, err, "failed to list notifications")
		return
	}
	c.JSON(http.StatusOK, dto.ToNotificationResponses(notifications))
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	ids, err := req.ParseIDs()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids must be numeric strings"})
		return
	}

	result, err := h.readTracker.MarkRead(ctx, middleware.GetUserID(ctx), ids)
	if err != nil {
		respondError(c, err, "failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, dto.ToMarkReadResponse(result.Updated, result.NotFound))
}
