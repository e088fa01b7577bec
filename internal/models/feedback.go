package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feedback is the customer's rating of how their complaint was resolved.
// There is at most one feedback per complaint.
type Feedback struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	ComplaintID string    `gorm:"not null;uniqueIndex" json:"complaintId"`
	UserID      string    `gorm:"not null;index" json:"userId"`
	AgentID     *string   `gorm:"index" json:"agentId"`
	Rating      int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment     string    `gorm:"type:text" json:"comment"`
	CreatedAt   time.Time `json:"createdAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName sets custom table name
func (Feedback) TableName() string { return "feedback" }

func (f *Feedback) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return
}
