package feedback

import (
	"context"
	"testing"

	"resolvenow/backend/internal/apperr"
	"resolvenow/backend/internal/complaint"
	"resolvenow/backend/internal/models"
	"resolvenow/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSubmit_ResolvedScenario(t *testing.T) {
	store := storagetest.New(t)
	svc := NewService(store, complaint.NewService(store, nil, zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	cust := storagetest.SeedUser(t, store, "asha", models.RoleCustomer)
	agent := storagetest.SeedUser(t, store, "ravi", models.RoleAgent)
	c1 := storagetest.SeedComplaint(t, store, cust.ID)
	storagetest.SeedAssignment(t, store, c1.ID, agent)
	customer := models.Actor{UserID: cust.ID, Role: models.RoleCustomer}

	_, err := svc.Submit(ctx, customer, SubmitInput{ComplaintID: c1.ID, Rating: 5})
	assert.ErrorIs(t, err, apperr.ErrNotResolved)

	_, err = store.UpdateComplaintStatus(ctx, c1.ID, models.StatusAssigned, models.StatusResolved)
	require.NoError(t, err)

	f, err := svc.Submit(ctx, customer, SubmitInput{ComplaintID: c1.ID, Rating: 5, Comment: " quick fix "})
	require.NoError(t, err)
	require.NotNil(t, f.AgentID)
	assert.Equal(t, agent.ID, *f.AgentID)
	assert.Equal(t, "quick fix", f.Comment)

	got, err := svc.ForComplaint(ctx, customer, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Rating)
	require.NotNil(t, got.AgentID)
	assert.Equal(t, agent.ID, *got.AgentID)

	_, err = svc.Submit(ctx, customer, SubmitInput{ComplaintID: c1.ID, Rating: 3})
	assert.ErrorIs(t, err, apperr.ErrFeedbackExists)

	agentActor := models.Actor{UserID: agent.ID, Role: models.RoleAgent}
	list, err := svc.ForAgent(ctx, agentActor, agent.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].User)
	assert.Equal(t, "asha", list[0].User.Name)

	summary, err := svc.AgentSummary(ctx, agentActor, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, 5.0, summary.Average)
}

func TestSubmit_Rejects(t *testing.T) {
	store := storagetest.New(t)
	svc := NewService(store, complaint.NewService(store, nil, zap.NewNop()), zap.NewNop())
	ctx := context.Background()
	cust := storagetest.SeedUser(t, store, "asha", models.RoleCustomer)
	other := storagetest.SeedUser(t, store, "kiran", models.RoleCustomer)
	c1 := storagetest.SeedComplaint(t, store, cust.ID)

	for _, rating := range []int{0, 6} {
		_, err := svc.Submit(ctx, models.Actor{UserID: cust.ID, Role: models.RoleCustomer}, SubmitInput{ComplaintID: c1.ID, Rating: rating})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "rating %d", rating)
	}

	_, err := svc.Submit(ctx, models.Actor{UserID: other.ID, Role: models.RoleCustomer}, SubmitInput{ComplaintID: c1.ID, Rating: 4})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = svc.Submit(ctx, models.Actor{UserID: cust.ID, Role: models.RoleCustomer}, SubmitInput{ComplaintID: "missing", Rating: 4})
	assert.ErrorIs(t, err, apperr.ErrComplaintNotFound)

	_, err = svc.ForAgent(ctx, models.Actor{UserID: "a1", Role: models.RoleAgent}, "a2")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestSubmit_WithoutAssignment(t *testing.T) {
	store := storagetest.New(t)
	svc := NewService(store, complaint.NewService(store, nil, zap.NewNop()), zap.NewNop())
	ctx := context.Background()
	cust := storagetest.SeedUser(t, store, "asha", models.RoleCustomer)
	c := storagetest.SeedComplaint(t, store, cust.ID)
	// resolved by an admin without any agent involved
	require.NoError(t, store.DB.Model(&models.Complaint{}).Where("id = ?", c.ID).Update("status", models.StatusResolved).Error)

	f, err := svc.Submit(ctx, models.Actor{UserID: cust.ID, Role: models.RoleCustomer}, SubmitInput{ComplaintID: c.ID, Rating: 2})
	require.NoError(t, err)
	assert.Nil(t, f.AgentID)
}
