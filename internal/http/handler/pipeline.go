package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trialwatch.app/engine/internal/http/dto"
	"trialwatch.app/engine/internal/service"
)

type PipelineHandler struct {
	pipeline service.PipelineService
}

func NewPipelineHandler(pipeline service.PipelineService) *PipelineHandler {
	return &PipelineHandler{pipeline: pipeline}
}

// Import stores a batch of records and runs validation, task generation and
// dispatch over it. Per-record failures are reported in the body.
func (h *PipelineHandler) Import(c *gin.Context) {
	var req dto.ImportRecordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.pipeline.Import(c.Request.Context(), service.ImportParams{
		TrialID: req.TrialID,
		Domain:  req.Domain,
		Source:  req.Source,
		Records: req.Records,
	})
	if err != nil {
		respondError(c, err, "failed to import records")
		return
	}
	c.JSON(http.StatusOK, dto.ToPipelineResponse(result))
}

func (h *PipelineHandler) Validate(c *gin.Context) {
	var req dto.ValidateRecordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.pipeline.Revalidate(c.Request.Context(), service.ValidateParams{
		TrialID:   req.TrialID,
		Domain:    req.Domain,
		Source:    req.Source,
		RecordIDs: req.RecordIDs,
	})
	if err != nil {
		respondError(c, err, "failed to validate records")
		return
	}
	c.JSON(http.StatusOK, dto.ToPipelineResponse(result))
}
