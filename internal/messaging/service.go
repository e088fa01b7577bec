// Package messaging implements the per-complaint conversation between customer and agent.
package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resolvenow/backend/internal/apperr"
	"resolvenow/backend/internal/chathub"
	"resolvenow/backend/internal/models"
	"resolvenow/backend/internal/storage"

	"go.uber.org/zap"
)

// Membership decides whether an actor takes part in a complaint's conversation.
type Membership interface {
	CheckMember(ctx context.Context, actor models.Actor, complaintID string) (*models.Complaint, error)
}

// ScopeFunc maps an actor to the complaints whose unread counts they see.
type ScopeFunc func(actor models.Actor) storage.ComplaintScope

type PostInput struct {
	ComplaintID string              `json:"complaintId" form:"complaintId"`
	Body        string              `json:"body" form:"body"`
	Attachments []models.Attachment `json:"-" form:"-"`
}

type Service struct {
	store   storage.Storage
	members Membership
	scope   ScopeFunc
	pub     chathub.Publisher
	log     *zap.Logger
}

func NewService(store storage.Storage, members Membership, scope ScopeFunc, pub chathub.Publisher, log *zap.Logger) *Service {
	return &Service{store: store, members: members, scope: scope, pub: pub, log: log.Named("messaging")}
}

// CanPost reports whether actor may post to the complaint's conversation.
// Callers that store attachments run it before saving any file.
func (s *Service) CanPost(ctx context.Context, actor models.Actor, complaintID string) error {
	if complaintID == "" {
		return apperr.Validation("complaintId is required")
	}
	_, err := s.members.CheckMember(ctx, actor, complaintID)
	return err
}

// Post appends a message to the complaint's conversation and broadcasts it.
func (s *Service) Post(ctx context.Context, actor models.Actor, in PostInput) (*models.Message, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" && len(in.Attachments) == 0 {
		return nil, apperr.Validation("message needs a body or an attachment")
	}
	if err := s.CanPost(ctx, actor, in.ComplaintID); err != nil {
		return nil, err
	}
	sender, err := s.store.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load sender: %w", err)
	}

	msg := &models.Message{
		ComplaintID: in.ComplaintID,
		SenderID:    sender.ID,
		SenderName:  sender.Name,
		Body:        body,
		Attachments: models.AttachmentList(in.Attachments),
		SentAt:      time.Now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	chathub.Notify(ctx, s.pub, s.log, models.EventNewMessage, msg.ComplaintID, msg.SenderID, msg)
	return msg, nil
}

// List returns the conversation oldest first.
func (s *Service) List(ctx context.Context, actor models.Actor, complaintID string) ([]models.Message, error) {
	if _, err := s.members.CheckMember(ctx, actor, complaintID); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, complaintID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// MarkRead marks everything the other participants sent as read. Repeating it changes nothing.
func (s *Service) MarkRead(ctx context.Context, actor models.Actor, complaintID string) (int64, error) {
	if _, err := s.members.CheckMember(ctx, actor, complaintID); err != nil {
		return 0, err
	}
	n, err := s.store.MarkRead(ctx, complaintID, actor.UserID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return n, nil
}

// UnreadCounts maps complaint id to the number of unread messages others sent.
// Complaints with nothing unread are left out.
func (s *Service) UnreadCounts(ctx context.Context, actor models.Actor) (map[string]int64, error) {
	rows, err := s.store.UnreadCounts(ctx, actor.UserID, s.scope(actor))
	if err != nil {
		return nil, fmt.Errorf("unread counts: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		if r.Count > 0 {
			counts[r.ComplaintID] = r.Count
		}
	}
	return counts, nil
}
