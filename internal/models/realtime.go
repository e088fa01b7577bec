package models

import (
	"encoding/json"
	"time"
)

// EventType names a real-time notification pushed to connected clients.
type EventType string

const (
	EventComplaintCreated EventType = "complaintCreated"
	EventComplaintUpdated EventType = "complaintUpdated"
	EventComplaintDeleted EventType = "complaintDeleted"
	EventNewMessage       EventType = "newMessage"
)

// Event is the envelope broadcast to every client. ComplaintID and ActorID let
// clients drop events for complaints they are not part of and events they caused.
type Event struct {
	Type        EventType       `json:"type"`
	ComplaintID string          `json:"complaintId"`
	ActorID     string          `json:"actorId,omitempty"`
	Data        json.RawMessage `json:"data"`
	Timestamp   time.Time       `json:"timestamp"`
}

// NewEvent marshals payload into an event envelope.
func NewEvent(t EventType, complaintID, actorID string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:        t,
		ComplaintID: complaintID,
		ActorID:     actorID,
		Data:        data,
		Timestamp:   time.Now().UTC(),
	}, nil
}
