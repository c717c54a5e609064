package router

import (
	"github.com/gin-gonic/gin"

	"trialwatch.app/engine/internal/http/handler"
)

func NotificationRouter(rg *gin.RouterGroup, h *handler.NotificationHandler) {
	rg.GET("", h.List)
	rg.POST("/mark-read", h.MarkRead)
}
