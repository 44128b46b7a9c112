package service

import (
	"context"
	"fmt"
	"time"

	"leadflow_backend/internal/events"
	leadsrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/reassignment/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	// TriggerCallMissed is the trigger key the call-check job fires.
	TriggerCallMissed = "call_missed"

	leadStatusCall = "call"

	defaultCallCheckWindow  = 48 * time.Hour
	defaultCallCheckPenalty = 1
)

// Store is the persistence surface of the reassignment engine.
type Store interface {
	FindEnabledRule(ctx context.Context, tenantID uuid.UUID, trigger string) (*repository.Rule, error)
	ListPoolMembers(ctx context.Context, tenantID uuid.UUID) ([]repository.PoolMember, error)
	ApplyReassignment(ctx context.Context, input repository.ApplyReassignmentInput) (repository.Event, error)
	CreateNegligencePoint(ctx context.Context, point repository.NegligencePoint) (repository.NegligencePoint, error)
	SumNegligencePoints(ctx context.Context, tenantID, userID uuid.UUID) (int, error)
}

// LeadSource exposes the lead queries the call-check job scans.
// Satisfied by the leads repository.
type LeadSource interface {
	ListLeadsByStatus(ctx context.Context, tenantID uuid.UUID, status string) ([]leadsrepo.Lead, error)
	HasCallLogSince(ctx context.Context, leadID, tenantID uuid.UUID, since time.Time) (bool, error)
}

// Notification carries a best-effort delivery to a single user.
type Notification struct {
	TenantID   uuid.UUID
	UserID     uuid.UUID
	Type       string
	Title      string
	Message    string
	EntityType string
	EntityID   uuid.UUID
	ActionURL  string
}

// Notifier delivers notifications. Failures are logged by the engine and
// never block or roll back the primary mutation.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type Service struct {
	store    Store
	leads    LeadSource
	notifier Notifier
	eventBus events.Bus
	cfg      config.JobsConfig
	log      *logger.Logger
}

func New(store Store, leads LeadSource, notifier Notifier, eventBus events.Bus, cfg config.JobsConfig, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		leads:    leads,
		notifier: notifier,
		eventBus: eventBus,
		cfg:      cfg,
		log:      log,
	}
}

// EvaluateAndReassign decides whether the trigger moves the lead and, if
// so, to whom. A missing rule, empty pool, or missing lead is a no-op
// and returns nil without error; only infrastructure failures surface.
func (s *Service) EvaluateAndReassign(ctx context.Context, tenantID, leadID uuid.UUID, trigger string) (*repository.Event, error) {
	rule, err := s.store.FindEnabledRule(ctx, tenantID, trigger)
	if err != nil {
		return nil, fmt.Errorf("find rule: %w", err)
	}
	if rule == nil {
		return nil, nil
	}

	members, err := s.store.ListPoolMembers(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list pool members: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}
	chosen := selectMember(members)

	event, err := s.store.ApplyReassignment(ctx, repository.ApplyReassignmentInput{
		TenantID: tenantID,
		LeadID:   leadID,
		ToUserID: chosen.UserID,
		RuleID:   rule.ID,
		Reason:   trigger,
	})
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("apply reassignment: %w", err)
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.LeadReassigned{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    event.LeadID,
			TenantID:  event.TenantID,
			FromAgent: event.FromUserID,
			ToAgent:   event.ToUserID,
			RuleID:    event.RuleID,
			Reason:    event.Reason,
		})
	}

	if event.FromUserID != nil && *event.FromUserID != event.ToUserID {
		s.notify(ctx, Notification{
			TenantID:   tenantID,
			UserID:     *event.FromUserID,
			Type:       "lead_unassigned",
			Title:      "Lead reassigned",
			Message:    "A lead has been reassigned away from you.",
			EntityType: "lead",
			EntityID:   leadID,
			ActionURL:  "/leads/" + leadID.String(),
		})
	}
	s.notify(ctx, Notification{
		TenantID:   tenantID,
		UserID:     event.ToUserID,
		Type:       "lead_assigned",
		Title:      "New lead assigned",
		Message:    "A lead has been assigned to you.",
		EntityType: "lead",
		EntityID:   leadID,
		ActionURL:  "/leads/" + leadID.String(),
	})

	return &event, nil
}

// selectMember picks the highest-weight member. Ties break on the lowest
// user id, so repeated runs over the same pool pick the same user.
func selectMember(members []repository.PoolMember) repository.PoolMember {
	best := members[0]
	for _, member := range members[1:] {
		if member.Weight > best.Weight {
			best = member
			continue
		}
		if member.Weight == best.Weight && member.UserID.String() < best.UserID.String() {
			best = member
		}
	}
	return best
}

// AddNegligencePoints records a penalty against a user for a lead.
// Points are append-only audit records; nothing here sums or escalates
// on accrued totals.
func (s *Service) AddNegligencePoints(ctx context.Context, tenantID, leadID, userID uuid.UUID, points int, reason string) (repository.NegligencePoint, error) {
	if points < 1 {
		return repository.NegligencePoint{}, apperr.Validation("points must be a positive integer")
	}
	if reason == "" {
		return repository.NegligencePoint{}, apperr.Validation("reason is required")
	}

	point, err := s.store.CreateNegligencePoint(ctx, repository.NegligencePoint{
		TenantID: tenantID,
		LeadID:   leadID,
		UserID:   userID,
		Points:   points,
		Reason:   reason,
	})
	if err != nil {
		return repository.NegligencePoint{}, fmt.Errorf("create negligence point: %w", err)
	}

	total, err := s.store.SumNegligencePoints(ctx, tenantID, userID)
	if err != nil {
		s.log.DatabaseError("sum negligence points", err)
		total = point.Points
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.NegligenceRecorded{
			BaseEvent:   events.NewBaseEvent(),
			UserID:      userID,
			TenantID:    tenantID,
			Points:      point.Points,
			TotalPoints: total,
			Reason:      reason,
		})
	}

	s.notify(ctx, Notification{
		TenantID:   tenantID,
		UserID:     userID,
		Type:       "negligence_point",
		Title:      "Negligence point recorded",
		Message:    reason,
		EntityType: "lead",
		EntityID:   leadID,
		ActionURL:  "/leads/" + leadID.String(),
	})

	return point, nil
}

// RunCallCheckJob scans the tenant's leads in "call" status. Any lead
// with an assignee and no call log inside the window gets one penalty
// and a reassignment attempt with the "call_missed" trigger. Repeated
// runs inside the same window re-penalize; the job keeps no cooldown
// state of its own.
func (s *Service) RunCallCheckJob(ctx context.Context, tenantID uuid.UUID) error {
	window := s.cfg.GetCallCheckWindow()
	if window <= 0 {
		window = defaultCallCheckWindow
	}
	penalty := s.cfg.GetCallCheckPenaltyPoints()
	if penalty < 1 {
		penalty = defaultCallCheckPenalty
	}
	cutoff := time.Now().Add(-window)
	reason := fmt.Sprintf("No call in %d hours", int(window.Hours()))

	leads, err := s.leads.ListLeadsByStatus(ctx, tenantID, leadStatusCall)
	if err != nil {
		return fmt.Errorf("list leads in call status: %w", err)
	}

	penalized := 0
	for _, lead := range leads {
		if lead.AssignedUserID == nil {
			continue
		}

		hasCall, err := s.leads.HasCallLogSince(ctx, lead.ID, tenantID, cutoff)
		if err != nil {
			s.log.DatabaseError("check call logs", err)
			continue
		}
		if hasCall {
			continue
		}

		// Both side effects are attempted independently so a failed
		// penalty write never suppresses the reassignment attempt, and
		// vice versa.
		if _, err := s.AddNegligencePoints(ctx, tenantID, lead.ID, *lead.AssignedUserID, penalty, reason); err != nil {
			s.log.DatabaseError("add negligence points", err)
		}
		if _, err := s.EvaluateAndReassign(ctx, tenantID, lead.ID, TriggerCallMissed); err != nil {
			s.log.DatabaseError("evaluate reassignment", err)
		}
		penalized++
	}

	s.log.JobRun("call_check", tenantID.String(), penalized, len(leads)-penalized)

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.CallCheckCompleted{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  tenantID,
			Checked:   len(leads),
			Penalized: penalized,
		})
	}

	return nil
}

// notify delivers best-effort. A failed send is logged and dropped.
func (s *Service) notify(ctx context.Context, n Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warn("notification delivery failed",
			"user_id", n.UserID.String(),
			"type", n.Type,
			"error", err.Error(),
		)
	}
}
