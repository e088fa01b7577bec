package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type assignRequest struct {
	ComplaintID string `json:"complaintId"`
	AgentID     string `json:"agentId"`
	AgentName   string `json:"agentName"`
}

func (h *Handler) AssignAgent(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	a, err := h.Engine.AssignAgent(c.Request.Context(), actor(c), req.ComplaintID, req.AgentID, req.AgentName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAssignments(c *gin.Context) {
	list, err := h.Engine.AllAssignments(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) AgentAssignments(c *gin.Context) {
	list, err := h.Engine.AssignmentsForAgent(c.Request.Context(), actor(c), c.Param("agentId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
