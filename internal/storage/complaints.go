package storage

import (
	"context"
	"errors"

	"resolvenow/backend/internal/apperr"
	"resolvenow/backend/internal/models"

	"gorm.io/gorm"
)

func (s *Service) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	return s.DB.WithContext(ctx).Omit("User").Create(c).Error
}

// GetComplaint loads a complaint with its owner.
func (s *Service) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	var c models.Complaint
	if err := s.DB.WithContext(ctx).Preload("User").First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, apperr.ErrComplaintNotFound)
	}
	return &c, nil
}

// ListComplaints returns the complaints in scope, newest first.
func (s *Service) ListComplaints(ctx context.Context, scope ComplaintScope) ([]models.Complaint, error) {
	var out []models.Complaint
	q := s.DB.WithContext(ctx).Preload("User").Order("complaints.created_at desc")
	if scope.OwnerID != "" {
		q = q.Where("complaints.user_id = ?", scope.OwnerID)
	}
	if scope.AgentID != "" {
		q = q.Joins("JOIN assignments ON assignments.complaint_id = complaints.id").
			Where("assignments.agent_id = ?", scope.AgentID)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateComplaintDetails edits the descriptive fields of a complaint that is still Pending.
func (s *Service) UpdateComplaintDetails(ctx context.Context, id string, cols map[string]interface{}) (*models.Complaint, error) {
	res := s.DB.WithContext(ctx).Model(&models.Complaint{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(cols)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetComplaint(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperr.ErrNotEditable
	}
	return s.GetComplaint(ctx, id)
}

// UpdateComplaintStatus moves a complaint from one status to another.
// The update only applies while the stored status still equals from.
func (s *Service) UpdateComplaintStatus(ctx context.Context, id string, from, to models.ComplaintStatus) (*models.Complaint, error) {
	res := s.DB.WithContext(ctx).Model(&models.Complaint{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetComplaint(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperr.ErrInvalidTransition
	}
	return s.GetComplaint(ctx, id)
}

// DeleteComplaint removes a complaint together with its assignment, messages and feedback.
func (s *Service) DeleteComplaint(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Complaint{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrComplaintNotFound
		}
		for _, model := range []interface{}{&models.Assignment{}, &models.Message{}, &models.Feedback{}} {
			if err := tx.Where("complaint_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
