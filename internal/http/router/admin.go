package router

import (
	"github.com/gin-gonic/gin"

	"trialwatch.app/engine/internal/http/handler"
)

// AdminRouter expects rg to already carry the admin key middleware.
func AdminRouter(rg *gin.RouterGroup, h *handler.AdminHandler) {
	rg.POST("/notifications/repair", h.Repair)

	roles := rg.Group("/roles/:role/members")
	roles.GET("", h.ListMembers)
	roles.POST("", h.AddMember)
	roles.DELETE("/:user_id", h.RemoveMember)
}
