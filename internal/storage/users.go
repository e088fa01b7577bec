package storage

import (
	"context"
	"errors"

	"resolvenow/backend/internal/apperr"
	"resolvenow/backend/internal/models"

	"gorm.io/gorm"
)

// CreateUser inserts a new user. A taken email surfaces as apperr.ErrEmailTaken.
func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	err := s.DB.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrEmailTaken
	}
	return err
}

func (s *Service) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, apperr.ErrUserNotFound)
	}
	return &user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, notFound(err, apperr.ErrUserNotFound)
	}
	return &user, nil
}

// UpdateUser applies the given columns and returns the updated row.
func (s *Service) UpdateUser(ctx context.Context, id string, cols map[string]interface{}) (*models.User, error) {
	db := s.DB.WithContext(ctx)
	if len(cols) > 0 {
		res := db.Model(&models.User{}).Where("id = ?", id).Updates(cols)
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, apperr.ErrEmailTaken
		}
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return s.GetUserByID(ctx, id)
}

// ListUsers returns users ordered by name, optionally restricted to one role.
func (s *Service) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	q := s.DB.WithContext(ctx).Order("name asc")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser removes the account row only. Records referencing the user are left for the audit to report.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

func notFound(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
