// Package users manages profiles and admin user administration.
package users

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"resolvenow/backend/internal/apperr"
	"resolvenow/backend/internal/models"
	"resolvenow/backend/internal/storage"

	"go.uber.org/zap"
)

type Service struct {
	store storage.Storage
	log   *zap.Logger
}

func NewService(store storage.Storage, log *zap.Logger) *Service {
	return &Service{store: store, log: log.Named("users")}
}

func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// UpdateProfile changes name, email or phone. Empty values are ignored, and the role is never touched.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	cols := make(map[string]interface{})
	if upd.Name != nil && strings.TrimSpace(*upd.Name) != "" {
		cols["name"] = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil && strings.TrimSpace(*upd.Email) != "" {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperr.Validation("email is malformed")
		}
		cols["email"] = email
	}
	if upd.Phone != nil && strings.TrimSpace(*upd.Phone) != "" {
		cols["phone"] = strings.TrimSpace(*upd.Phone)
	}

	user, err := s.store.UpdateUser(ctx, userID, cols)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (s *Service) List(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx, "")
}

// Delete removes an account. Admins cannot delete themselves, and an agent
// is kept while any complaint assigned to them is unresolved.
func (s *Service) Delete(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return apperr.Validation("admins cannot delete their own account")
	}
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.Role == models.RoleAgent {
		active, err := s.store.CountActiveAssignments(ctx, userID)
		if err != nil {
			return fmt.Errorf("count active assignments: %w", err)
		}
		if active > 0 {
			return apperr.Conflict(fmt.Sprintf("agent still has %d active assignments", active))
		}
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info("user deleted", zap.String("user_id", userID), zap.String("actor_id", actorID))
	return nil
}
