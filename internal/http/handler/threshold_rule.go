package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"trialwatch.app/engine/internal/http/dto"
	"trialwatch.app/engine/internal/service"
)

type ThresholdRuleHandler struct {
	rules service.ThresholdRuleService
}

func NewThresholdRuleHandler(rules service.ThresholdRuleService) *ThresholdRuleHandler {
	return &ThresholdRuleHandler{rules: rules}
}

func (h *ThresholdRuleHandler) List(c *gin.Context) {
	rules, err := h.rules.List(c.Request.Context(), c.Query("trial_id"))
	if err != nil {
		respondError(c, err, "failed to list threshold rules")
		return
	}
	c.JSON(http.StatusOK, dto.ToThresholdRuleResponses(rules))
}

// Put creates or replaces the rule for the metric in the path.
func (h *ThresholdRuleHandler) Put(c *gin.Context) {
	metric := strings.TrimSpace(c.Param("metric"))
	if metric == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid metric"})
		return
	}

	var req dto.PutThresholdRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	rule := req.ToModel(metric)
	if err := h.rules.Put(c.Request.Context(), rule); err != nil {
		respondError(c, err, "failed to save threshold rule")
		return
	}
	c.JSON(http.StatusOK, dto.ToThresholdRuleResponse(rule))
}
