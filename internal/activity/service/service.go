package service

import (
	"context"

	"leadflow_backend/internal/activity/repository"
	"leadflow_backend/internal/events"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence surface of the activity trail.
type Store interface {
	Create(ctx context.Context, activity repository.Activity) (repository.Activity, error)
	List(ctx context.Context, tenantID uuid.UUID, filter repository.Filter) ([]repository.Activity, error)
}

// Service records audit activities from domain events. It is write-only
// from the bus side; the HTTP layer reads through List.
type Service struct {
	store Store
	log   *logger.Logger
}

func New(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter repository.Filter) ([]repository.Activity, error) {
	return s.store.List(ctx, tenantID, filter)
}

// RegisterHandlers subscribes the audit trail to the domain events it
// records. Handler errors are logged by the bus.
func (s *Service) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadAssigned{}.EventName(), events.HandlerFunc(s.handleLeadAssigned))
	bus.Subscribe(events.LeadReassigned{}.EventName(), events.HandlerFunc(s.handleLeadReassigned))
	bus.Subscribe(events.LeadStatusChanged{}.EventName(), events.HandlerFunc(s.handleLeadStatusChanged))
	bus.Subscribe(events.NegligenceRecorded{}.EventName(), events.HandlerFunc(s.handleNegligenceRecorded))
	bus.Subscribe(events.UserStatusChanged{}.EventName(), events.HandlerFunc(s.handleUserStatusChanged))
	bus.Subscribe(events.MeetingScheduled{}.EventName(), events.HandlerFunc(s.handleMeetingScheduled))
}

func (s *Service) handleLeadAssigned(ctx context.Context, event events.Event) error {
	assigned, ok := event.(events.LeadAssigned)
	if !ok {
		return nil
	}

	details := map[string]interface{}{
		"newAgent": assigned.NewAgent.String(),
	}
	if assigned.PreviousAgent != nil {
		details["previousAgent"] = assigned.PreviousAgent.String()
	}

	_, err := s.store.Create(ctx, repository.Activity{
		TenantID:   assigned.TenantID,
		ActorID:    assigned.AssignedByID,
		Action:     "lead.assigned",
		EntityType: "lead",
		EntityID:   assigned.LeadID,
		Details:    details,
	})
	return err
}

func (s *Service) handleLeadReassigned(ctx context.Context, event events.Event) error {
	reassigned, ok := event.(events.LeadReassigned)
	if !ok {
		return nil
	}

	details := map[string]interface{}{
		"toAgent": reassigned.ToAgent.String(),
		"ruleId":  reassigned.RuleID.String(),
		"reason":  reassigned.Reason,
	}
	if reassigned.FromAgent != nil {
		details["fromAgent"] = reassigned.FromAgent.String()
	}

	_, err := s.store.Create(ctx, repository.Activity{
		TenantID:   reassigned.TenantID,
		Action:     "lead.reassigned",
		EntityType: "lead",
		EntityID:   reassigned.LeadID,
		Details:    details,
	})
	return err
}

func (s *Service) handleLeadStatusChanged(ctx context.Context, event events.Event) error {
	changed, ok := event.(events.LeadStatusChanged)
	if !ok {
		return nil
	}

	actor := changed.ActorID
	_, err := s.store.Create(ctx, repository.Activity{
		TenantID:   changed.TenantID,
		ActorID:    &actor,
		Action:     "lead.status_changed",
		EntityType: "lead",
		EntityID:   changed.LeadID,
		Details: map[string]interface{}{
			"oldStatus": changed.OldStatus,
			"newStatus": changed.NewStatus,
		},
	})
	return err
}

func (s *Service) handleNegligenceRecorded(ctx context.Context, event events.Event) error {
	recorded, ok := event.(events.NegligenceRecorded)
	if !ok {
		return nil
	}

	_, err := s.store.Create(ctx, repository.Activity{
		TenantID:   recorded.TenantID,
		Action:     "negligence.recorded",
		EntityType: "user",
		EntityID:   recorded.UserID,
		Details: map[string]interface{}{
			"points":      recorded.Points,
			"totalPoints": recorded.TotalPoints,
			"reason":      recorded.Reason,
		},
	})
	return err
}

func (s *Service) handleUserStatusChanged(ctx context.Context, event events.Event) error {
	changed, ok := event.(events.UserStatusChanged)
	if !ok {
		return nil
	}

	actor := changed.ChangedBy
	_, err := s.store.Create(ctx, repository.Activity{
		TenantID:   changed.TenantID,
		ActorID:    &actor,
		Action:     "user.status_changed",
		EntityType: "user",
		EntityID:   changed.UserID,
		Details: map[string]interface{}{
			"oldStatus": changed.OldStatus,
			"newStatus": changed.NewStatus,
		},
	})
	return err
}

func (s *Service) handleMeetingScheduled(ctx context.Context, event events.Event) error {
	scheduled, ok := event.(events.MeetingScheduled)
	if !ok {
		return nil
	}

	agent := scheduled.AgentID
	_, err := s.store.Create(ctx, repository.Activity{
		TenantID:   scheduled.TenantID,
		ActorID:    &agent,
		Action:     "meeting.scheduled",
		EntityType: "meeting",
		EntityID:   scheduled.MeetingID,
		Details: map[string]interface{}{
			"leadId": scheduled.LeadID.String(),
			"title":  scheduled.Title,
		},
	})
	return err
}
