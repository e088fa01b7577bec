package handler

import (
	"context"
	"net/http"
	"strings"

	"resolvenow/backend/internal/complaint"
	"resolvenow/backend/internal/models"
	"resolvenow/backend/internal/uploads"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// updateComplaintRequest carries either a status change or detail edits, not both.
type updateComplaintRequest struct {
	Status *models.ComplaintStatus `json:"status"`
	models.ComplaintDetails
}

type statusRequest struct {
	Status models.ComplaintStatus `json:"status"`
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formAttachments stores the "attachments" files of a multipart request.
// "attachmentNames" values give display names in the same order.
// Callers authorize and validate the request before calling it, so a
// rejected request never leaves files behind.
func (h *Handler) formAttachments(c *gin.Context) ([]models.Attachment, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, badRequest("invalid multipart form")
	}
	files := form.File["attachments"]
	if len(files) == 0 {
		return nil, nil
	}
	return uploads.SaveAll(c.Request.Context(), h.Uploads, files, form.Value["attachmentNames"])
}

// discardAttachments removes files stored for a request that then failed.
func (h *Handler) discardAttachments(ctx context.Context, files []models.Attachment) {
	if len(files) == 0 {
		return
	}
	if err := uploads.Discard(ctx, h.Uploads, files); err != nil {
		h.log.Warn("discard attachments", zap.Error(err))
	}
}

func (h *Handler) CreateComplaint(c *gin.Context) {
	var in complaint.CreateInput
	if isMultipart(c) {
		if err := c.ShouldBind(&in); err != nil {
			h.fail(c, badRequest("invalid form data"))
			return
		}
		if err := h.Complaints.ValidateCreate(actor(c), in); err != nil {
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

	created, err := h.Complaints.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		h.discardAttachments(c.Request.Context(), in.Attachments)
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListComplaints(c *gin.Context) {
	list, err := h.Complaints.List(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetComplaint(c *gin.Context) {
	got, err := h.Complaints.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, got)
}

// UpdateComplaint edits the details, or changes the status when the body has one.
func (h *Handler) UpdateComplaint(c *gin.Context) {
	var req updateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}

	var (
		updated *models.Complaint
		err     error
	)
	switch {
	case req.Status != nil && !req.ComplaintDetails.Empty():
		err = badRequest("status and details must be updated separately")
	case req.Status != nil:
		updated, err = h.Complaints.UpdateStatus(c.Request.Context(), actor(c), c.Param("id"), *req.Status)
	default:
		updated, err = h.Complaints.UpdateDetails(c.Request.Context(), actor(c), c.Param("id"), req.ComplaintDetails)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) UpdateComplaintStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		h.fail(c, badRequest("status is required"))
		return
	}
	updated, err := h.Complaints.UpdateStatus(c.Request.Context(), actor(c), c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteComplaint(c *gin.Context) {
	if err := h.Complaints.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "complaint deleted"})
}
