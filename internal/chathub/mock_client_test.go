package chathub_test

import (
	"sync"

	"resolvenow/backend/internal/models"
)

type MockClient struct {
	id          string
	userID      string
	RecvChannel chan models.Event

	mu     sync.Mutex
	closed bool
}

func newMockClient(id string, buffer int) *MockClient {
	return &MockClient{
		id:          id,
		userID:      "user-" + id,
		RecvChannel: make(chan models.Event, buffer),
	}
}

func (c *MockClient) GetID() string                       { return c.id }
func (c *MockClient) GetUserID() string                   { return c.userID }
func (c *MockClient) GetSendChannel() chan<- models.Event { return c.RecvChannel }

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
