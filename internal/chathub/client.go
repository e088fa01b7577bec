package chathub

import "resolvenow/backend/internal/models"

// Client is the interface for any connection the hub pushes events to (e.g., WebSocket, Telegram).
// It abstracts the underlying transport so the hub can manage every client the same way.
type Client interface {
	// GetID returns the unique identifier of this connection.
	// A user with two open tabs has two clients.
	GetID() string
	// GetUserID returns the account the client authenticated as.
	GetUserID() string

	// GetSendChannel returns the channel the hub writes events to.
	// The hub never blocks on it: a full channel gets the client dropped.
	GetSendChannel() chan<- models.Event

	// Run starts the client's pumps.
	Run()
	// Close releases the connection. Only the hub calls it.
	Close()
}
