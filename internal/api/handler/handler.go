// Package handler exposes the complaint services over REST and WebSocket.
package handler

import (
	"errors"
	"net/http"

	"resolvenow/backend/internal/apperr"
	"resolvenow/backend/internal/assignment"
	"resolvenow/backend/internal/auth"
	"resolvenow/backend/internal/chathub"
	"resolvenow/backend/internal/complaint"
	"resolvenow/backend/internal/config"
	"resolvenow/backend/internal/feedback"
	"resolvenow/backend/internal/messaging"
	"resolvenow/backend/internal/models"
	"resolvenow/backend/internal/uploads"
	"resolvenow/backend/internal/users"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services groups what the handlers call into.
type Services struct {
	Auth       *auth.Service
	Users      *users.Service
	Complaints *complaint.Service
	Engine     *assignment.Engine
	Messages   *messaging.Service
	Feedback   *feedback.Service
	Uploads    uploads.Store
	Hub        *chathub.ManagerService
}

// RouterConfig holds the HTTP-level settings of the router.
type RouterConfig struct {
	AllowedOrigins []string
	// UploadsDir is served under UploadsURLPrefix when set.
	UploadsDir       string
	UploadsURLPrefix string
	AuthLimiter      *RateLimiter
}

type Handler struct {
	Services
	origins []string
	log     *zap.Logger
}

func NewHandler(svc Services, log *zap.Logger) *Handler {
	return &Handler{Services: svc, log: log.Named("http")}
}

// Router builds the gin engine with middleware and every route.
func (h *Handler) Router(cfg RouterConfig) *gin.Engine {
	h.origins = cfg.AllowedOrigins

	r := gin.New()
	r.MaxMultipartMemory = config.MaxMultipartMemory
	r.Use(Recovery(h.log), RequestLogger(h.log), CORS(cfg.AllowedOrigins))

	r.GET("/health", h.Health)
	r.GET("/ws", h.ServeWebSocket)
	if cfg.UploadsDir != "" {
		r.Static(cfg.UploadsURLPrefix, cfg.UploadsDir)
	}

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	limited := authGroup.Group("")
	if cfg.AuthLimiter != nil {
		limited.Use(cfg.AuthLimiter.Middleware())
	}
	limited.POST("/register", h.Register)
	limited.POST("/login", h.Login)
	authGroup.POST("/logout", h.RequireAuth(), h.Logout)
	authGroup.GET("/agents", h.RequireAuth(), RequireRole(models.RoleAdmin), h.ListAgents)

	protected := api.Group("")
	protected.Use(h.RequireAuth())

	complaints := protected.Group("/complaints")
	complaints.POST("", RequireRole(models.RoleCustomer), h.CreateComplaint)
	complaints.GET("", h.ListComplaints)
	complaints.GET("/:id", h.GetComplaint)
	complaints.PUT("/:id", h.UpdateComplaint)
	complaints.DELETE("/:id", h.DeleteComplaint)
	complaints.PUT("/:id/status", RequireRole(models.RoleAgent, models.RoleAdmin), h.UpdateComplaintStatus)

	assigned := protected.Group("/assigned")
	assigned.POST("", RequireRole(models.RoleAdmin), h.AssignAgent)
	assigned.GET("", RequireRole(models.RoleAdmin), h.ListAssignments)
	assigned.GET("/agent/:agentId", RequireRole(models.RoleAdmin, models.RoleAgent), h.AgentAssignments)

	messages := protected.Group("/messages")
	messages.POST("", h.PostMessage)
	messages.GET("/unread/counts", h.UnreadCounts)
	messages.GET("/:complaintId", h.ListMessages)
	messages.PUT("/read/:complaintId", h.MarkRead)

	fb := protected.Group("/feedback")
	fb.POST("", RequireRole(models.RoleCustomer), h.SubmitFeedback)
	fb.GET("/complaint/:complaintId", h.ComplaintFeedback)
	fb.GET("/agent/:agentId", RequireRole(models.RoleAdmin, models.RoleAgent), h.AgentFeedback)
	fb.GET("/agent/:agentId/summary", RequireRole(models.RoleAdmin, models.RoleAgent), h.AgentFeedbackSummary)

	u := protected.Group("/users")
	u.GET("/profile", h.Profile)
	u.PUT("/profile", h.UpdateProfile)
	u.GET("", RequireRole(models.RoleAdmin), h.ListUsers)
	u.DELETE("/:id", RequireRole(models.RoleAdmin), h.DeleteUser)

	return r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail writes err as {"error", "code"} with the status of its kind.
// Unclassified errors are logged and reported as 500.
func (h *Handler) fail(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		c.AbortWithStatusJSON(appErr.HTTPStatus(), gin.H{"error": appErr.Message, "code": appErr.Code})
		return
	}
	h.log.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "internal"})
}

func badRequest(msg string) error {
	return apperr.Validation(msg)
}
