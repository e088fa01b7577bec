package handler

import (
	"net/http"

	"resolvenow/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var in auth.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	session, err := h.Auth.Register(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "registration successful",
		"token":   session.Token,
		"user":    session.User,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	session, err := h.Auth.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), claims(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// ListAgents returns every agent with their active load, least loaded first.
func (h *Handler) ListAgents(c *gin.Context) {
	agents, err := h.Engine.AgentsWithLoad(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, agents)
}
