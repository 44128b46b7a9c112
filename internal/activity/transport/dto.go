package transport

import "time"

type ActivityResponse struct {
	ID         string                 `json:"id"`
	ActorID    *string                `json:"actorId,omitempty"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}

type ListActivitiesResponse struct {
	Activities []ActivityResponse `json:"activities"`
}
