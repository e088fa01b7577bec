// Package complaint implements the complaint lifecycle:
// Pending -> Assigned -> In Progress -> Resolved.
package complaint

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resolvenow/backend/internal/apperr"
	"resolvenow/backend/internal/chathub"
	"resolvenow/backend/internal/models"
	"resolvenow/backend/internal/storage"

	"go.uber.org/zap"
)

// CreateInput is what a customer submits when filing a complaint.
type CreateInput struct {
	Name        string              `json:"name" form:"name"`
	Address     string              `json:"address" form:"address"`
	City        string              `json:"city" form:"city"`
	State       string              `json:"state" form:"state"`
	Pincode     string              `json:"pincode" form:"pincode"`
	Comment     string              `json:"comment" form:"comment"`
	Attachments []models.Attachment `json:"-" form:"-"`
}

// Service handles the business logic for complaints.
type Service struct {
	Storage storage.Storage
	pub     chathub.Publisher
	log     *zap.Logger
}

// NewService creates a new complaint service.
func NewService(s storage.Storage, pub chathub.Publisher, log *zap.Logger) *Service {
	return &Service{Storage: s, pub: pub, log: log.Named("complaint")}
}

// ValidateCreate runs the checks Create applies before anything is stored.
// Callers that persist side data for a complaint (uploads) run it first.
func (s *Service) ValidateCreate(actor models.Actor, in CreateInput) error {
	_, err := buildComplaint(actor, in)
	return err
}

// Create files a new complaint. The status always starts at Pending.
func (s *Service) Create(ctx context.Context, actor models.Actor, in CreateInput) (*models.Complaint, error) {
	c, err := buildComplaint(actor, in)
	if err != nil {
		return nil, err
	}

	if err := s.Storage.CreateComplaint(ctx, c); err != nil {
		return nil, fmt.Errorf("create complaint: %w", err)
	}
	s.log.Info("complaint created", zap.String("complaint_id", c.ID), zap.String("user_id", actor.UserID))

	chathub.Notify(ctx, s.pub, s.log, models.EventComplaintCreated, c.ID, actor.UserID, c)
	return c, nil
}

func buildComplaint(actor models.Actor, in CreateInput) (*models.Complaint, error) {
	if actor.Role != models.RoleCustomer {
		return nil, apperr.Forbidden("only customers can file complaints")
	}

	c := &models.Complaint{
		UserID:      actor.UserID,
		Name:        strings.TrimSpace(in.Name),
		Address:     strings.TrimSpace(in.Address),
		City:        strings.TrimSpace(in.City),
		State:       strings.TrimSpace(in.State),
		Pincode:     strings.TrimSpace(in.Pincode),
		Comment:     strings.TrimSpace(in.Comment),
		Attachments: models.AttachmentList(in.Attachments),
		Status:      models.StatusPending,
	}
	if missing := missingFields(c); len(missing) > 0 {
		return nil, apperr.Validation("missing required fields: " + strings.Join(missing, ", "))
	}
	return c, nil
}

func missingFields(c *models.Complaint) []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", c.Name},
		{"address", c.Address},
		{"city", c.City},
		{"state", c.State},
		{"pincode", c.Pincode},
		{"comment", c.Comment},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// List returns the complaints visible to the actor: all for admins,
// their own for customers, and assigned ones for agents.
func (s *Service) List(ctx context.Context, actor models.Actor) ([]models.Complaint, error) {
	list, err := s.Storage.ListComplaints(ctx, Scope(actor))
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	return list, nil
}

// Scope maps an actor to the complaints they are related to.
func Scope(actor models.Actor) storage.ComplaintScope {
	switch actor.Role {
	case models.RoleCustomer:
		return storage.ComplaintScope{OwnerID: actor.UserID}
	case models.RoleAgent:
		return storage.ComplaintScope{AgentID: actor.UserID}
	default:
		return storage.ComplaintScope{}
	}
}

func (s *Service) Get(ctx context.Context, actor models.Actor, id string) (*models.Complaint, error) {
	return s.CheckMember(ctx, actor, id)
}

// CheckMember loads a complaint and verifies the actor takes part in it:
// the owner, the assigned agent, or an admin.
func (s *Service) CheckMember(ctx context.Context, actor models.Actor, id string) (*models.Complaint, error) {
	c, err := s.Storage.GetComplaint(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsAdmin():
		return c, nil
	case actor.Role == models.RoleCustomer && c.UserID == actor.UserID:
		return c, nil
	case actor.Role == models.RoleAgent:
		ok, err := s.isAssignedAgent(ctx, actor.UserID, id)
		if err != nil {
			return nil, err
		}
		if ok {
			return c, nil
		}
	}
	return nil, apperr.Forbidden("not a participant of this complaint")
}

func (s *Service) isAssignedAgent(ctx context.Context, agentID, complaintID string) (bool, error) {
	a, err := s.Storage.GetAssignmentByComplaint(ctx, complaintID)
	if errors.Is(err, apperr.ErrAssignmentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.AgentID == agentID, nil
}

// UpdateDetails edits the descriptive fields. Only the owner or an admin may,
// and only while the complaint is Pending.
func (s *Service) UpdateDetails(ctx context.Context, actor models.Actor, id string, d models.ComplaintDetails) (*models.Complaint, error) {
	if d.Empty() {
		return nil, apperr.Validation("nothing to update")
	}
	cols := d.Columns()
	for k, v := range cols {
		value := strings.TrimSpace(v.(string))
		if value == "" {
			return nil, apperr.Validation(k + " cannot be empty")
		}
		cols[k] = value
	}

	c, err := s.Storage.GetComplaint(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && c.UserID != actor.UserID {
		return nil, apperr.Forbidden("only the owner can edit a complaint")
	}

	updated, err := s.Storage.UpdateComplaintDetails(ctx, id, cols)
	if err != nil {
		return nil, fmt.Errorf("update complaint %s: %w", id, err)
	}
	chathub.Notify(ctx, s.pub, s.log, models.EventComplaintUpdated, id, actor.UserID, updated)
	return updated, nil
}

// UpdateStatus moves the complaint forward. The caller must be the assigned agent or an admin.
// Setting the current status again changes nothing and emits no event.
func (s *Service) UpdateStatus(ctx context.Context, actor models.Actor, id string, status models.ComplaintStatus) (*models.Complaint, error) {
	if !status.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown status %q", status))
	}

	c, err := s.Storage.GetComplaint(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		ok := false
		if actor.Role == models.RoleAgent {
			if ok, err = s.isAssignedAgent(ctx, actor.UserID, id); err != nil {
				return nil, err
			}
		}
		if !ok {
			return nil, apperr.Forbidden("only the assigned agent or an admin can change the status")
		}
	}

	if c.Status == status {
		return c, nil
	}
	if !c.Status.CanMoveTo(status) {
		return nil, fmt.Errorf("%s -> %s: %w", c.Status, status, apperr.ErrInvalidTransition)
	}

	updated, err := s.Storage.UpdateComplaintStatus(ctx, id, c.Status, status)
	if err != nil {
		return nil, fmt.Errorf("update status of %s: %w", id, err)
	}
	s.log.Info("complaint status changed",
		zap.String("complaint_id", id),
		zap.String("from", string(c.Status)),
		zap.String("to", string(status)),
		zap.String("actor_id", actor.UserID))

	chathub.Notify(ctx, s.pub, s.log, models.EventComplaintUpdated, id, actor.UserID, updated)
	return updated, nil
}

// Delete removes the complaint with its assignment, messages and feedback. Owner or admin only.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id string) error {
	c, err := s.Storage.GetComplaint(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && c.UserID != actor.UserID {
		return apperr.Forbidden("only the owner or an admin can delete a complaint")
	}
	if err := s.Storage.DeleteComplaint(ctx, id); err != nil {
		return fmt.Errorf("delete complaint %s: %w", id, err)
	}
	s.log.Info("complaint deleted", zap.String("complaint_id", id), zap.String("actor_id", actor.UserID))

	chathub.Notify(ctx, s.pub, s.log, models.EventComplaintDeleted, id, actor.UserID, map[string]string{"id": id})
	return nil
}
