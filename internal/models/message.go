package models

import (
	"time"

	"gorm.io/datatypes"
)

// Message is a single chat entry in a complaint's conversation.
// The auto-increment ID doubles as the insertion sequence used to order
// messages that share a SentAt timestamp.
type Message struct {
	ID          uint                            `gorm:"primaryKey;autoIncrement" json:"id"`
	ComplaintID string                          `gorm:"not null;index:idx_message_complaint_read" json:"complaintId"`
	SenderID    string                          `gorm:"not null;index" json:"senderId"`
	SenderName  string                          `gorm:"not null" json:"senderName"`
	Body        string                          `gorm:"type:text;not null" json:"body"`
	Attachments datatypes.JSONSlice[Attachment] `json:"attachments"`
	Read        bool                            `gorm:"not null;default:false;index:idx_message_complaint_read" json:"read"`
	SentAt      time.Time                       `gorm:"not null" json:"sentAt"`
}

// UnreadCount is one row of the unread-count aggregation.
type UnreadCount struct {
	ComplaintID string
	Count       int64
}
