package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trialwatch.app/engine/internal/http/dto"
	"trialwatch.app/engine/internal/service"
)

type AdminHandler struct {
	repair     service.RepairService
	membership service.MembershipService
}

func NewAdminHandler(repair service.RepairService, membership service.MembershipService) *AdminHandler {
	return &AdminHandler{repair: repair, membership: membership}
}

// Repair backfills missing notifications for a role's open tasks.
func (h *AdminHandler) Repair(c *gin.Context) {
	var req dto.RepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.repair.Repair(c.Request.Context(), req.Role)
	if err != nil {
		respondError(c, err, "failed to repair notifications")
		return
	}
	c.JSON(http.StatusOK, dto.ToRepairResponse(result))
}

func (h *AdminHandler) ListMembers(c *gin.Context) {
	members, err := h.membership.List(c.Request.Context(), c.Param("role"))
	if err != nil {
		respondError(c, err, "failed to list role members")
		return
	}
	c.JSON(http.StatusOK, dto.ToMemberResponses(members))
}

func (h *AdminHandler) AddMember(c *gin.Context) {
	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.membership.Add(c.Request.Context(), c.Param("role"), req.ToModel()); err != nil {
		respondError(c, err, "failed to add role member")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) RemoveMember(c *gin.Context) {
	if err := h.membership.Remove(c.Request.Context(), c.Param("role"), c.Param("user_id")); err != nil {
		respondError(c, err, "failed to remove role member")
		return
	}
	c.Status(http.StatusNoContent)
}
