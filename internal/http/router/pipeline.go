package router

import (
	"github.com/gin-gonic/gin"

	"trialwatch.app/engine/internal/http/handler"
)

func PipelineRouter(rg *gin.RouterGroup, h *handler.PipelineHandler) {
	rg.POST("/imports", h.Import)
	rg.POST("/validations", h.Validate)
}

func ThresholdRuleRouter(rg *gin.RouterGroup, h *handler.ThresholdRuleHandler) {
	rg.GET("", h.List)
	rg.PUT("/:metric", h.Put)
}
