package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssignmentStatusAssigned is the only status an assignment record carries.
const AssignmentStatusAssigned = "Assigned"

// Assignment links a complaint to the agent responsible for it.
// ComplaintID is unique: a complaint is assigned at most once.
type Assignment struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	ComplaintID string    `gorm:"not null;uniqueIndex" json:"complaintId"`
	AgentID     string    `gorm:"not null;index" json:"agentId"`
	AgentName   string    `gorm:"not null" json:"agentName"`
	Status      string    `gorm:"not null" json:"status"`
	AssignedAt  time.Time `gorm:"not null" json:"assignedAt"`

	Complaint *Complaint `gorm:"foreignKey:ComplaintID" json:"complaint,omitempty"`
	Agent     *User      `gorm:"foreignKey:AgentID" json:"-"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = AssignmentStatusAssigned
	}
	if a.AssignedAt.IsZero() {
		a.AssignedAt = time.Now()
	}
	return
}

// AgentLoad is an agent annotated with the number of unresolved complaints assigned to them.
type AgentLoad struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	ActiveAssignments int    `json:"activeAssignments"`
	Selectable        bool   `json:"selectable"`
}

// AssignmentView is an assignment joined with its complaint, the complaint owner and the agent.
type AssignmentView struct {
	Assignment
	Complaint *Complaint   `json:"complaint"`
	Owner     *UserSummary `json:"owner"`
	Agent     *UserSummary `json:"agent,omitempty"`
}

// NewAssignmentView projects a preloaded assignment.
func NewAssignmentView(a Assignment) AssignmentView {
	v := AssignmentView{Assignment: a, Complaint: a.Complaint, Agent: a.Agent.Summary()}
	if a.Complaint != nil {
		v.Owner = a.Complaint.User.Summary()
	}
	v.Assignment.Complaint = nil
	return v
}
