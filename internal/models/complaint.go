package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ComplaintStatus is a step of the complaint lifecycle.
type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "Pending"
	StatusAssigned   ComplaintStatus = "Assigned"
	StatusInProgress ComplaintStatus = "In Progress"
	StatusResolved   ComplaintStatus = "Resolved"
)

var statusOrder = map[ComplaintStatus]int{
	StatusPending:    0,
	StatusAssigned:   1,
	StatusInProgress: 2,
	StatusResolved:   3,
}

// Valid reports whether s is a known lifecycle status.
func (s ComplaintStatus) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// CanMoveTo reports whether a status update may move a complaint from s to next.
// The order is strictly forward. Assigned is only entered through the assignment
// engine, so it is never a valid target here, and an unassigned complaint cannot
// jump ahead.
func (s ComplaintStatus) CanMoveTo(next ComplaintStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == StatusPending || next == StatusAssigned {
		return false
	}
	return statusOrder[next] > statusOrder[s]
}

// Attachment is a stored file linked to a complaint or a message.
type Attachment struct {
	Path         string `json:"path"`
	DisplayName  string `json:"displayName"`
	OriginalName string `json:"originalName"`
}

// AttachmentList wraps files for storage. A record without files carries an
// empty list so it serializes as [] rather than null.
func AttachmentList(files []Attachment) datatypes.JSONSlice[Attachment] {
	if files == nil {
		return datatypes.JSONSlice[Attachment]{}
	}
	return datatypes.JSONSlice[Attachment](files)
}

// Complaint is a customer's issue report. It is owned by the customer who filed it
// and referenced by assignments, messages and feedback through its ID.
type Complaint struct {
	ID          string                          `gorm:"primaryKey" json:"id"`
	UserID      string                          `gorm:"not null;index" json:"userId"`
	Name        string                          `gorm:"not null" json:"name"`
	Address     string                          `gorm:"not null" json:"address"`
	City        string                          `gorm:"not null" json:"city"`
	State       string                          `gorm:"not null" json:"state"`
	Pincode     string                          `gorm:"not null" json:"pincode"`
	Comment     string                          `gorm:"type:text;not null" json:"comment"`
	Attachments datatypes.JSONSlice[Attachment] `json:"attachments"`
	Status      ComplaintStatus                 `gorm:"type:text;not null;index" json:"status"`
	CreatedAt   time.Time                       `json:"createdAt"`
	UpdatedAt   time.Time                       `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// ComplaintDetails holds the customer-editable fields of a complaint.
type ComplaintDetails struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Pincode *string `json:"pincode"`
	Comment *string `json:"comment"`
}

// Empty reports whether no field is set.
func (d ComplaintDetails) Empty() bool {
	return d.Name == nil && d.Address == nil && d.City == nil &&
		d.State == nil && d.Pincode == nil && d.Comment == nil
}

// Columns returns the set fields keyed by column name.
func (d ComplaintDetails) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if d.Name != nil {
		cols["name"] = *d.Name
	}
	if d.Address != nil {
		cols["address"] = *d.Address
	}
	if d.City != nil {
		cols["city"] = *d.City
	}
	if d.State != nil {
		cols["state"] = *d.State
	}
	if d.Pincode != nil {
		cols["pincode"] = *d.Pincode
	}
	if d.Comment != nil {
		cols["comment"] = *d.Comment
	}
	return cols
}
