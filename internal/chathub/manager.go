// Package chathub fans real-time events out to every connected client.
package chathub

import (
	"context"
	"sync"

	"resolvenow/backend/internal/models"

	"go.uber.org/zap"
)

// Publisher delivers an event to every connected client.
type Publisher interface {
	Publish(ctx context.Context, ev models.Event) error
}

// ManagerService is the broadcast hub. The client map is owned by Run;
// other goroutines talk to it through the channels.
type ManagerService struct {
	mu      sync.RWMutex
	clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	BroadcastCh  chan models.Event

	done chan struct{}
	log  *zap.Logger
}

func NewManagerService(log *zap.Logger) *ManagerService {
	return &ManagerService{
		clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		BroadcastCh:  make(chan models.Event, 64),
		done:         make(chan struct{}),
		log:          log.Named("hub"),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled,
// then closes every remaining client.
func (m *ManagerService) Run(ctx context.Context) {
	defer close(m.done)
	defer m.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-m.RegisterCh:
			m.mu.Lock()
			m.clients[client.GetID()] = client
			m.mu.Unlock()
			m.log.Debug("client registered", zap.String("client_id", client.GetID()), zap.String("user_id", client.GetUserID()))

		case client := <-m.UnregisterCh:
			m.remove(client.GetID())

		case ev := <-m.BroadcastCh:
			m.broadcast(ev)
		}
	}
}

func (m *ManagerService) broadcast(ev models.Event) {
	var slow []string

	m.mu.RLock()
	for id, client := range m.clients {
		select {
		case client.GetSendChannel() <- ev:
		default:
			slow = append(slow, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range slow {
		m.log.Warn("dropping slow client", zap.String("client_id", id), zap.String("event", string(ev.Type)))
		m.remove(id)
	}
}

func (m *ManagerService) remove(id string) {
	m.mu.Lock()
	client, ok := m.clients[id]
	if ok {
		delete(m.clients, id)
	}
	m.mu.Unlock()

	if ok {
		client.Close()
		m.log.Debug("client unregistered", zap.String("client_id", id))
	}
}

func (m *ManagerService) closeAll() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]Client)
	m.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}

// Register adds a client. It returns false once the hub has stopped.
func (m *ManagerService) Register(c Client) bool {
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.done:
		return false
	}
}

// Unregister removes a client. It is a no-op once the hub has stopped.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
	}
}

// Publish queues ev for every client connected to this instance.
func (m *ManagerService) Publish(ctx context.Context, ev models.Event) error {
	select {
	case m.BroadcastCh <- ev:
		return nil
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientCount reports how many clients are connected.
func (m *ManagerService) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Notify wraps payload in an event and publishes it. Delivery is best effort,
// so failures are logged rather than returned.
func Notify(ctx context.Context, pub Publisher, log *zap.Logger, t models.EventType, complaintID, actorID string, payload interface{}) {
	if pub == nil {
		return
	}
	ev, err := models.NewEvent(t, complaintID, actorID, payload)
	if err == nil {
		err = pub.Publish(ctx, ev)
	}
	if err != nil {
		log.Warn("publish event failed",
			zap.String("event", string(t)),
			zap.String("complaint_id", complaintID),
			zap.Error(err))
	}
}
