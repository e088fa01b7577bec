// Package assignment distributes complaints to agents.
//
// A complaint is assigned at most once, and an agent never holds more than
// config.MaxActiveAssignments complaints that are not yet Resolved.
package assignment

import (
	"context"
	"fmt"
	"strings"

	"resolvenow/backend/internal/apperr"
	"resolvenow/backend/internal/chathub"
	"resolvenow/backend/internal/config"
	"resolvenow/backend/internal/models"
	"resolvenow/backend/internal/storage"

	"go.uber.org/zap"
)

type Engine struct {
	store storage.Storage
	pub   chathub.Publisher
	log   *zap.Logger
}

func NewEngine(store storage.Storage, pub chathub.Publisher, log *zap.Logger) *Engine {
	return &Engine{store: store, pub: pub, log: log.Named("assignment")}
}

// AssignAgent assigns a Pending complaint to an agent and moves it to Assigned.
// agentName is optional and defaults to the agent's account name.
func (e *Engine) AssignAgent(ctx context.Context, actor models.Actor, complaintID, agentID, agentName string) (*models.Assignment, error) {
	if complaintID == "" || agentID == "" {
		return nil, apperr.Validation("complaintId and agentId are required")
	}

	agent, err := e.store.GetUserByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("load agent: %w", err)
	}
	if agent.Role != models.RoleAgent {
		return nil, apperr.Validation("user is not an agent")
	}
	if strings.TrimSpace(agentName) == "" {
		agentName = agent.Name
	}

	a := &models.Assignment{
		ComplaintID: complaintID,
		AgentID:     agent.ID,
		AgentName:   strings.TrimSpace(agentName),
	}
	if err := e.store.AssignAgent(ctx, a, config.MaxActiveAssignments); err != nil {
		return nil, fmt.Errorf("assign complaint %s: %w", complaintID, err)
	}

	e.log.Info("complaint assigned",
		zap.String("complaint_id", complaintID),
		zap.String("agent_id", agent.ID),
		zap.String("actor_id", actor.UserID))

	if complaint, err := e.store.GetComplaint(ctx, complaintID); err == nil {
		chathub.Notify(ctx, e.pub, e.log, models.EventComplaintUpdated, complaintID, actor.UserID, complaint)
	}
	return a, nil
}

// AgentsWithLoad lists agents least loaded first. Agents at capacity are not selectable.
func (e *Engine) AgentsWithLoad(ctx context.Context) ([]models.AgentLoad, error) {
	loads, err := e.store.AgentLoads(ctx)
	if err != nil {
		return nil, fmt.Errorf("agent loads: %w", err)
	}
	for i := range loads {
		loads[i].Selectable = loads[i].ActiveAssignments < config.MaxActiveAssignments
	}
	return loads, nil
}

// AssignmentsForAgent lists an agent's assignments. Agents may only list their own.
func (e *Engine) AssignmentsForAgent(ctx context.Context, actor models.Actor, agentID string) ([]models.AssignmentView, error) {
	if !actor.IsAdmin() && actor.UserID != agentID {
		return nil, apperr.Forbidden("agents can only list their own assignments")
	}
	return e.list(ctx, agentID)
}

func (e *Engine) AllAssignments(ctx context.Context) ([]models.AssignmentView, error) {
	return e.list(ctx, "")
}

func (e *Engine) list(ctx context.Context, agentID string) ([]models.AssignmentView, error) {
	assignments, err := e.store.ListAssignments(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	views := make([]models.AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		views = append(views, models.NewAssignmentView(a))
	}
	return views, nil
}
