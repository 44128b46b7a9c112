// Package scheduler runs periodic jobs through asynq: a dispatcher
// enqueues one task per tenant and a worker pool executes them.
package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeCallCheck is the task type for the per-tenant call-check scan.
const TypeCallCheck = "reassignment:call_check"

type CallCheckPayload struct {
	TenantID uuid.UUID `json:"tenantId"`
}

func NewCallCheckTask(tenantID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(CallCheckPayload{TenantID: tenantID})
	if err != nil {
		return nil, fmt.Errorf("marshal call check payload: %w", err)
	}
	return asynq.NewTask(TypeCallCheck, payload), nil
}

func ParseCallCheckPayload(task *asynq.Task) (CallCheckPayload, error) {
	var payload CallCheckPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CallCheckPayload{}, fmt.Errorf("unmarshal call check payload: %w", err)
	}
	if payload.TenantID == uuid.Nil {
		return CallCheckPayload{}, fmt.Errorf("call check payload missing tenant id")
	}
	return payload, nil
}
