// Package feedback records customer ratings of resolved complaints.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resolvenow/backend/internal/analysis"
	"resolvenow/backend/internal/apperr"
	"resolvenow/backend/internal/config"
	"resolvenow/backend/internal/models"
	"resolvenow/backend/internal/storage"

	"go.uber.org/zap"
)

// Membership decides whether an actor takes part in a complaint.
type Membership interface {
	CheckMember(ctx context.Context, actor models.Actor, complaintID string) (*models.Complaint, error)
}

type SubmitInput struct {
	ComplaintID string `json:"complaintId"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
}

type Service struct {
	store   storage.Storage
	members Membership
	log     *zap.Logger
}

func NewService(store storage.Storage, members Membership, log *zap.Logger) *Service {
	return &Service{store: store, members: members, log: log.Named("feedback")}
}

// Submit records the owner's rating of a resolved complaint. The agent is taken
// from the complaint's assignment. A complaint gets at most one feedback.
func (s *Service) Submit(ctx context.Context, actor models.Actor, in SubmitInput) (*models.Feedback, error) {
	if in.ComplaintID == "" {
		return nil, apperr.Validation("complaintId is required")
	}
	if in.Rating < config.MinRating || in.Rating > config.MaxRating {
		return nil, apperr.Validation(fmt.Sprintf("rating must be between %d and %d", config.MinRating, config.MaxRating))
	}

	c, err := s.store.GetComplaint(ctx, in.ComplaintID)
	if err != nil {
		return nil, err
	}
	if c.UserID != actor.UserID {
		return nil, apperr.Forbidden("only the complaint owner can leave feedback")
	}
	if c.Status != models.StatusResolved {
		return nil, apperr.ErrNotResolved
	}

	f := &models.Feedback{
		ComplaintID: c.ID,
		UserID:      actor.UserID,
		Rating:      in.Rating,
		Comment:     strings.TrimSpace(in.Comment),
	}
	a, err := s.store.GetAssignmentByComplaint(ctx, c.ID)
	switch {
	case err == nil:
		f.AgentID = &a.AgentID
	case !errors.Is(err, apperr.ErrAssignmentNotFound):
		return nil, fmt.Errorf("lookup assignment: %w", err)
	}

	if err := s.store.CreateFeedback(ctx, f); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	s.log.Info("feedback recorded", zap.String("complaint_id", c.ID), zap.Int("rating", f.Rating))
	return f, nil
}

func (s *Service) ForComplaint(ctx context.Context, actor models.Actor, complaintID string) (*models.Feedback, error) {
	if _, err := s.members.CheckMember(ctx, actor, complaintID); err != nil {
		return nil, err
	}
	return s.store.GetFeedbackByComplaint(ctx, complaintID)
}

// ForAgent lists an agent's feedback with the customer who left it. Admins or the agent only.
func (s *Service) ForAgent(ctx context.Context, actor models.Actor, agentID string) ([]models.Feedback, error) {
	if !actor.IsAdmin() && actor.UserID != agentID {
		return nil, apperr.Forbidden("agents can only see their own feedback")
	}
	list, err := s.store.ListFeedback(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return list, nil
}

func (s *Service) AgentSummary(ctx context.Context, actor models.Actor, agentID string) (analysis.Summary, error) {
	list, err := s.ForAgent(ctx, actor, agentID)
	if err != nil {
		return analysis.Summary{}, err
	}
	return analysis.Summarize(agentID, list), nil
}
