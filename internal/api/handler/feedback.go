package handler

import (
	"net/http"

	"resolvenow/backend/internal/feedback"

	"github.com/gin-gonic/gin"
)

func (h *Handler) SubmitFeedback(c *gin.Context) {
	var in feedback.SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	fb, err := h.Feedback.Submit(c.Request.Context(), actor(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (h *Handler) ComplaintFeedback(c *gin.Context) {
	fb, err := h.Feedback.ForComplaint(c.Request.Context(), actor(c), c.Param("complaintId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fb)
}

func (h *Handler) AgentFeedback(c *gin.Context) {
	list, err := h.Feedback.ForAgent(c.Request.Context(), actor(c), c.Param("agentId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) AgentFeedbackSummary(c *gin.Context) {
	s, err := h.Feedback.AgentSummary(c.Request.Context(), actor(c), c.Param("agentId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
