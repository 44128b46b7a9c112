package service

import (
	"context"
	"testing"

	"leadflow_backend/internal/activity/repository"
	"leadflow_backend/internal/events"
	platformevents "leadflow_backend/platform/events"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	created []repository.Activity
}

func (f *fakeStore) Create(_ context.Context, activity repository.Activity) (repository.Activity, error) {
	activity.ID = uuid.New()
	f.created = append(f.created, activity)
	return activity, nil
}

func (f *fakeStore) List(_ context.Context, tenantID uuid.UUID, _ repository.Filter) ([]repository.Activity, error) {
	var matched []repository.Activity
	for _, activity := range f.created {
		if activity.TenantID == tenantID {
			matched = append(matched, activity)
		}
	}
	return matched, nil
}

func TestLeadReassignedEventIsRecorded(t *testing.T) {
	store := &fakeStore{}
	log := logger.New("development")
	bus := platformevents.NewInMemoryBus(log)
	svc := New(store, log)
	svc.RegisterHandlers(bus)

	tenantID := uuid.New()
	leadID := uuid.New()
	from := uuid.New()
	to := uuid.New()

	err := bus.PublishSync(context.Background(), events.LeadReassigned{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		TenantID:  tenantID,
		FromAgent: &from,
		ToAgent:   to,
		RuleID:    uuid.New(),
		Reason:    "call_missed",
	})
	if err != nil {
		t.Fatalf("expected no handler error, got %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected one activity, got %d", len(store.created))
	}
	activity := store.created[0]
	if activity.Action != "lead.reassigned" || activity.EntityID != leadID {
		t.Fatalf("unexpected activity: %+v", activity)
	}
	if activity.Details["fromAgent"] != from.String() || activity.Details["toAgent"] != to.String() {
		t.Fatalf("unexpected activity details: %+v", activity.Details)
	}
}

func TestNegligenceRecordedEventIsRecorded(t *testing.T) {
	store := &fakeStore{}
	log := logger.New("development")
	bus := platformevents.NewInMemoryBus(log)
	svc := New(store, log)
	svc.RegisterHandlers(bus)

	tenantID := uuid.New()
	userID := uuid.New()

	err := bus.PublishSync(context.Background(), events.NegligenceRecorded{
		BaseEvent:   events.NewBaseEvent(),
		UserID:      userID,
		TenantID:    tenantID,
		Points:      1,
		TotalPoints: 4,
		Reason:      "No call in 48 hours",
	})
	if err != nil {
		t.Fatalf("expected no handler error, got %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected one activity, got %d", len(store.created))
	}
	activity := store.created[0]
	if activity.Action != "negligence.recorded" || activity.EntityID != userID {
		t.Fatalf("unexpected activity: %+v", activity)
	}
	if activity.Details["points"] != 1 || activity.Details["reason"] != "No call in 48 hours" {
		t.Fatalf("unexpected activity details: %+v", activity.Details)
	}
}

func TestUnrelatedEventsAreIgnored(t *testing.T) {
	store := &fakeStore{}
	log := logger.New("development")
	bus := platformevents.NewInMemoryBus(log)
	svc := New(store, log)
	svc.RegisterHandlers(bus)

	err := bus.PublishSync(context.Background(), events.TenantCreated{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  uuid.New(),
		Name:      "acme",
	})
	if err != nil {
		t.Fatalf("expected no handler error, got %v", err)
	}

	if len(store.created) != 0 {
		t.Fatalf("expected no activities for unsubscribed event, got %d", len(store.created))
	}
}
