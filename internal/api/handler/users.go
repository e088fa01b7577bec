package handler

import (
	"net/http"

	"resolvenow/backend/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Profile(c *gin.Context) {
	u, err := h.Users.Profile(c.Request.Context(), actor(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var upd models.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	u, err := h.Users.UpdateProfile(c.Request.Context(), actor(c).UserID, upd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) ListUsers(c *gin.Context) {
	list, err := h.Users.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.Users.Delete(c.Request.Context(), actor(c).UserID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
