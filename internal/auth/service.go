// Package auth handles registration, login, logout and bearer token verification.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"resolvenow/backend/internal/apperr"
	"resolvenow/backend/internal/models"
	"resolvenow/backend/internal/storage"

	"go.uber.org/zap"
)

const minPasswordLen = 6

type RegisterInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Phone    string      `json:"phone"`
	Role     models.Role `json:"role"`
}

// Session is a signed token with the account it was issued for.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type Service struct {
	store  storage.Storage
	tokens *TokenManager
	log    *zap.Logger
}

func NewService(store storage.Storage, tokens *TokenManager, log *zap.Logger) *Service {
	return &Service{store: store, tokens: tokens, log: log.Named("auth")}
}

// Register creates a Customer or Agent account and signs them in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	if in.Role != models.RoleCustomer && in.Role != models.RoleAgent {
		return nil, apperr.Validation("role must be Customer or Agent")
	}
	user, err := s.createUser(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateAdmin creates an Admin account. It is reachable only from the admin CLI.
func (s *Service) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.createUser(ctx, RegisterInput{Name: name, Email: email, Password: password, Role: models.RoleAdmin})
}

func (s *Service) createUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, apperr.Validation("name, email and password are required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, apperr.Validation("email is malformed")
	}
	if len(in.Password) < minPasswordLen {
		return nil, apperr.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         in.Role,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login checks the credentials. An unknown email and a wrong password fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, apperr.ErrUserNotFound) {
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, apperr.ErrInvalidCredentials
	}
	return s.issue(user)
}

// Logout revokes the token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if err := s.store.RevokeToken(ctx, claims.ID, s.tokens.Remaining(claims)); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authenticate verifies a bearer token and rejects revoked ones, as well as
// tokens whose account has since been deleted.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.store.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, apperr.ErrTokenInvalid
	}
	if _, err := s.store.GetUserByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return nil, apperr.ErrTokenInvalid
		}
		return nil, fmt.Errorf("load token owner: %w", err)
	}
	return claims, nil
}

func (s *Service) issue(user *models.User) (*Session, error) {
	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}
