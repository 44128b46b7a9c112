package scheduler

import (
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

func TestCallCheckTaskRoundTrip(t *testing.T) {
	tenantID := uuid.New()

	task, err := NewCallCheckTask(tenantID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if task.Type() != TypeCallCheck {
		t.Fatalf("expected task type %q, got %q", TypeCallCheck, task.Type())
	}

	payload, err := ParseCallCheckPayload(task)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if payload.TenantID != tenantID {
		t.Fatalf("expected tenant %s, got %s", tenantID, payload.TenantID)
	}
}

func TestParseCallCheckPayloadRejectsMissingTenant(t *testing.T) {
	task := asynq.NewTask(TypeCallCheck, []byte(`{}`))

	if _, err := ParseCallCheckPayload(task); err == nil {
		t.Fatal("expected an error for a payload without a tenant id")
	}
}
