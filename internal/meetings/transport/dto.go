package transport

import "time"

type ScheduleMeetingRequest struct {
	LeadID          string    `json:"leadId" validate:"required,uuid"`
	Title           string    `json:"title" validate:"required,min=1,max=200"`
	Notes           *string   `json:"notes" validate:"omitempty,max=2000"`
	ScheduledAt     time.Time `json:"scheduledAt" validate:"required"`
	DurationMinutes int       `json:"durationMinutes" validate:"omitempty,min=5,max=480"`
}

type UpdateMeetingRequest struct {
	Title           *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Notes           *string    `json:"notes" validate:"omitempty,max=2000"`
	ScheduledAt     *time.Time `json:"scheduledAt"`
	DurationMinutes *int       `json:"durationMinutes" validate:"omitempty,min=5,max=480"`
	Status          *string    `json:"status" validate:"omitempty,oneof=scheduled completed cancelled"`
}

type MeetingResponse struct {
	ID              string    `json:"id"`
	LeadID          string    `json:"leadId"`
	AgentID         string    `json:"agentId"`
	Title           string    `json:"title"`
	Notes           *string   `json:"notes,omitempty"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	DurationMinutes int       `json:"durationMinutes"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type ListMeetingsResponse struct {
	Meetings []MeetingResponse `json:"meetings"`
}
