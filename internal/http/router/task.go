package router

import (
	"github.com/gin-gonic/gin"

	"trialwatch.app/engine/internal/http/handler"
)

func TaskRouter(rg *gin.RouterGroup, h *handler.TaskHandler) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.POST("/:id/comments", h.AddComment)
	rg.GET("/:id/comments", h.ListComments)
}
