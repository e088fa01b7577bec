package storage

import (
	"context"

	"resolvenow/backend/internal/models"
)

func (s *Service) CreateMessage(ctx context.Context, msg *models.Message) error {
	return s.DB.WithContext(ctx).Create(msg).Error
}

// ListMessages returns the conversation of a complaint in send order.
func (s *Service) ListMessages(ctx context.Context, complaintID string) ([]models.Message, error) {
	var out []models.Message
	err := s.DB.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("sent_at asc, id asc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead flags every unread message of the complaint not sent by viewerID as read
// and returns how many changed.
func (s *Service) MarkRead(ctx context.Context, complaintID, viewerID string) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("complaint_id = ? AND sender_id <> ?", complaintID, viewerID).
		Where(map[string]interface{}{"read": false}).
		Update("read", true)
	return res.RowsAffected, res.Error
}

// UnreadCounts aggregates unread messages not sent by viewerID per complaint in scope.
// Complaints without unread messages do not appear.
func (s *Service) UnreadCounts(ctx context.Context, viewerID string, scope ComplaintScope) ([]models.UnreadCount, error) {
	q := s.DB.WithContext(ctx).Model(&models.Message{}).
		Select("messages.complaint_id AS complaint_id, COUNT(*) AS count").
		Where("messages.sender_id <> ?", viewerID).
		Where(map[string]interface{}{"messages.read": false})
	if scope.OwnerID != "" {
		q = q.Joins("JOIN complaints ON complaints.id = messages.complaint_id").
			Where("complaints.user_id = ?", scope.OwnerID)
	}
	if scope.AgentID != "" {
		q = q.Joins("JOIN assignments ON assignments.complaint_id = messages.complaint_id").
			Where("assignments.agent_id = ?", scope.AgentID)
	}

	var out []models.UnreadCount
	if err := q.Group("messages.complaint_id").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
