package handler

import (
	"net/http"

	"resolvenow/backend/internal/messaging"

	"github.com/gin-gonic/gin"
)

func (h *Handler) PostMessage(c *gin.Context) {
	var in messaging.PostInput
	if isMultipart(c) {
		if err := c.ShouldBind(&in); err != nil {
			h.fail(c, badRequest("invalid form data"))
			return
		}
		if err := h.Messages.CanPost(c.Request.Context(), actor(c), in.ComplaintID); err != nil {
			h.fail(c, err)
			return
		}
		files, err := h.formAttachments(c)
		if err != nil {
			h.fail(c, err)
			return
		}
		in.Attachments = files
	} else if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}

	msg, err := h.Messages.Post(c.Request.Context(), actor(c), in)
	if err != nil {
		h.discardAttachments(c.Request.Context(), in.Attachments)
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) ListMessages(c *gin.Context) {
	msgs, err := h.Messages.List(c.Request.Context(), actor(c), c.Param("complaintId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handler) MarkRead(c *gin.Context) {
	n, err := h.Messages.MarkRead(c.Request.Context(), actor(c), c.Param("complaintId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (h *Handler) UnreadCounts(c *gin.Context) {
	counts, err := h.Messages.UnreadCounts(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}
