package storage

import (
	"context"

	"resolvenow/backend/internal/apperr"
	"resolvenow/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssignAgent records the assignment and moves the complaint to Assigned in one transaction.
//
// The agent row is locked first (FOR UPDATE on PostgreSQL; SQLite serializes writers anyway),
// so two concurrent assignments to the same agent cannot both pass the capacity check.
func (s *Service) AssignAgent(ctx context.Context, a *models.Assignment, maxActive int) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var agent models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&agent, "id = ? AND role = ?", a.AgentID, models.RoleAgent).Error
		if err != nil {
			return notFound(err, apperr.ErrUserNotFound)
		}

		var complaint models.Complaint
		if err := tx.Select("id", "status").First(&complaint, "id = ?", a.ComplaintID).Error; err != nil {
			return notFound(err, apperr.ErrComplaintNotFound)
		}

		var existing int64
		if err := tx.Model(&models.Assignment{}).Where("complaint_id = ?", a.ComplaintID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperr.ErrAlreadyAssigned
		}

		active, err := countActive(tx, a.AgentID)
		if err != nil {
			return err
		}
		if active >= int64(maxActive) {
			return apperr.ErrAgentAtCapacity
		}

		if err := tx.Omit(clause.Associations).Create(a).Error; err != nil {
			if isDuplicate(err) {
				return apperr.ErrAlreadyAssigned
			}
			return err
		}

		res := tx.Model(&models.Complaint{}).
			Where("id = ? AND status = ?", a.ComplaintID, models.StatusPending).
			Update("status", models.StatusAssigned)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotPending
		}
		return nil
	})
}

func (s *Service) GetAssignmentByComplaint(ctx context.Context, complaintID string) (*models.Assignment, error) {
	var a models.Assignment
	if err := s.DB.WithContext(ctx).First(&a, "complaint_id = ?", complaintID).Error; err != nil {
		return nil, notFound(err, apperr.ErrAssignmentNotFound)
	}
	return &a, nil
}

// ListAssignments returns assignments with complaint, owner and agent preloaded, newest first.
// An empty agentID lists every assignment.
func (s *Service) ListAssignments(ctx context.Context, agentID string) ([]models.Assignment, error) {
	var out []models.Assignment
	q := s.DB.WithContext(ctx).
		Preload("Complaint.User").
		Preload("Agent").
		Order("assigned_at desc")
	if agentID != "" {
		q = q.Where("agent_id = ?", agentID)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountActiveAssignments counts the agent's assignments whose complaint is not Resolved.
func (s *Service) CountActiveAssignments(ctx context.Context, agentID string) (int64, error) {
	return countActive(s.DB.WithContext(ctx), agentID)
}

func countActive(db *gorm.DB, agentID string) (int64, error) {
	var n int64
	err := db.Model(&models.Assignment{}).
		Joins("JOIN complaints ON complaints.id = assignments.complaint_id").
		Where("assignments.agent_id = ? AND complaints.status <> ?", agentID, models.StatusResolved).
		Count(&n).Error
	return n, err
}

// AgentLoads lists every agent with their active assignment count, least loaded first.
func (s *Service) AgentLoads(ctx context.Context) ([]models.AgentLoad, error) {
	var out []models.AgentLoad
	err := s.DB.WithContext(ctx).
		Table("users").
		Select("users.id, users.name, users.email, users.phone, COUNT(complaints.id) AS active_assignments").
		Joins("LEFT JOIN assignments ON assignments.agent_id = users.id").
		Joins("LEFT JOIN complaints ON complaints.id = assignments.complaint_id AND complaints.status <> ?", models.StatusResolved).
		Where("users.role = ?", models.RoleAgent).
		Group("users.id, users.name, users.email, users.phone").
		Order("active_assignments asc, users.name asc").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
