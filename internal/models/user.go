package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the fixed kind of account a user has. It is set at registration and never changes.
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleAgent    Role = "Agent"
	RoleAdmin    Role = "Admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// User represents an account in the system: a customer filing complaints,
// an agent resolving them, or an admin distributing the work.
type User struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Phone        string    `json:"phone"`
	Role         Role      `gorm:"type:text;not null;index" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BeforeCreate is a GORM hook called before the record is inserted.
// It generates a new UUID for the user if the ID is not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// UserSummary is the public projection of a user embedded in other resources.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary returns the public projection of u, or nil for a nil user.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// ProfileUpdate holds the fields a user may change on their own profile.
// Role is intentionally absent.
type ProfileUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// Actor is the authenticated caller on whose behalf an operation runs.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
