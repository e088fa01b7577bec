package storage

import (
	"context"

	"resolvenow/backend/internal/apperr"
	"resolvenow/backend/internal/models"
)

// CreateFeedback inserts feedback. A second submission for the same complaint
// surfaces as apperr.ErrFeedbackExists.
func (s *Service) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	err := s.DB.WithContext(ctx).Omit("User").Create(f).Error
	if isDuplicate(err) {
		return apperr.ErrFeedbackExists
	}
	return err
}

func (s *Service) GetFeedbackByComplaint(ctx context.Context, complaintID string) (*models.Feedback, error) {
	var f models.Feedback
	if err := s.DB.WithContext(ctx).Preload("User").First(&f, "complaint_id = ?", complaintID).Error; err != nil {
		return nil, notFound(err, apperr.ErrFeedbackNotFound)
	}
	return &f, nil
}

// ListFeedback returns feedback with the submitting customer, newest first.
// An empty agentID lists all feedback.
func (s *Service) ListFeedback(ctx context.Context, agentID string) ([]models.Feedback, error) {
	var out []models.Feedback
	q := s.DB.WithContext(ctx).Preload("User").Order("created_at desc")
	if agentID != "" {
		q = q.Where("agent_id = ?", agentID)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
