package handler

import (
	"testing"
	"time"

	"leadflow_backend/internal/reassignment/repository"

	"github.com/google/uuid"
)

func TestRuleResponseMapsAllFields(t *testing.T) {
	rule := repository.Rule{
		ID:        uuid.New(),
		TenantID:  uuid.New(),
		Name:      "call_missed",
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	}

	resp := toRuleResponse(rule)

	if resp.ID != rule.ID.String() {
		t.Fatalf("id = %q, want %q", resp.ID, rule.ID.String())
	}
	if resp.Name != rule.Name {
		t.Fatalf("name = %q, want %q", resp.Name, rule.Name)
	}
	if !resp.Enabled {
		t.Fatal("expected enabled rule")
	}
	if !resp.CreatedAt.Equal(rule.CreatedAt) {
		t.Fatalf("createdAt = %v, want %v", resp.CreatedAt, rule.CreatedAt)
	}
}

func TestEventResponseOmitsMissingFromUser(t *testing.T) {
	event := repository.Event{
		ID:        uuid.New(),
		LeadID:    uuid.New(),
		ToUserID:  uuid.New(),
		RuleID:    uuid.New(),
		Reason:    "call_missed",
		CreatedAt: time.Now().UTC(),
	}

	resp := toEventResponse(event)
	if resp.FromUserID != nil {
		t.Fatalf("expected nil fromUserId for a first assignment, got %q", *resp.FromUserID)
	}

	from := uuid.New()
	event.FromUserID = &from
	resp = toEventResponse(event)
	if resp.FromUserID == nil || *resp.FromUserID != from.String() {
		t.Fatalf("expected fromUserId %q, got %v", from.String(), resp.FromUserID)
	}
}
