package assignment

import (
	"context"
	"testing"

	"resolvenow/backend/internal/apperr"
	"resolvenow/backend/internal/models"
	"resolvenow/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, ev models.Event) error {
	args := m.Called(ev.Type, ev.ComplaintID)
	return args.Error(0)
}

var admin = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}

func TestAssignAgent_Scenario(t *testing.T) {
	store := storagetest.New(t)
	pub := new(mockPublisher)
	e := NewEngine(store, pub, zap.NewNop())
	ctx := context.Background()

	customer := storagetest.SeedUser(t, store, "asha", models.RoleCustomer)
	agent := storagetest.SeedUser(t, store, "ravi", models.RoleAgent)
	c1 := storagetest.SeedComplaint(t, store, customer.ID)
	pub.On("Publish", models.EventComplaintUpdated, c1.ID).Return(nil).Once()

	a, err := e.AssignAgent(ctx, admin, c1.ID, agent.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "ravi", a.AgentName, "name defaults to the agent's account name")
	pub.AssertExpectations(t)

	got, err := store.GetComplaint(ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, got.Status)

	views, err := e.AssignmentsForAgent(ctx, models.Actor{UserID: agent.ID, Role: models.RoleAgent}, agent.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, c1.ID, views[0].Complaint.ID)
	assert.Equal(t, "asha", views[0].Owner.Name)

	loads, err := e.AgentsWithLoad(ctx)
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, 1, loads[0].ActiveAssignments)
	assert.True(t, loads[0].Selectable)
}

func TestAssignAgent_AtCapacity(t *testing.T) {
	store := storagetest.New(t)
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	e := NewEngine(store, pub, zap.NewNop())
	ctx := context.Background()

	customer := storagetest.SeedUser(t, store, "asha", models.RoleCustomer)
	agent := storagetest.SeedUser(t, store, "ravi", models.RoleAgent)
	for i := 0; i < 3; i++ {
		c := storagetest.SeedComplaint(t, store, customer.ID)
		_, err := e.AssignAgent(ctx, admin, c.ID, agent.ID, "")
		require.NoError(t, err)
	}

	c4 := storagetest.SeedComplaint(t, store, customer.ID)
	_, err := e.AssignAgent(ctx, admin, c4.ID, agent.ID, "")
	assert.ErrorIs(t, err, apperr.ErrAgentAtCapacity)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	got, err := store.GetComplaint(ctx, c4.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)

	loads, err := e.AgentsWithLoad(ctx)
	require.NoError(t, err)
	assert.False(t, loads[0].Selectable)
	pub.AssertNumberOfCalls(t, "Publish", 3)
}

func TestAssignAgent_Rejects(t *testing.T) {
	store := storagetest.New(t)
	e := NewEngine(store, nil, zap.NewNop())
	ctx := context.Background()
	customer := storagetest.SeedUser(t, store, "asha", models.RoleCustomer)
	agent := storagetest.SeedUser(t, store, "ravi", models.RoleAgent)
	c := storagetest.SeedComplaint(t, store, customer.ID)

	_, err := e.AssignAgent(ctx, admin, "", agent.ID, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = e.AssignAgent(ctx, admin, c.ID, customer.ID, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = e.AssignAgent(ctx, admin, c.ID, "missing", "")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)

	_, err = e.AssignAgent(ctx, admin, c.ID, agent.ID, "R. Kumar")
	require.NoError(t, err)
	_, err = e.AssignAgent(ctx, admin, c.ID, agent.ID, "")
	assert.ErrorIs(t, err, apperr.ErrAlreadyAssigned)
}

func TestAssignmentsForAgent_OtherAgentForbidden(t *testing.T) {
	store := storagetest.New(t)
	e := NewEngine(store, nil, zap.NewNop())

	_, err := e.AssignmentsForAgent(context.Background(), models.Actor{UserID: "a1", Role: models.RoleAgent}, "a2")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}
