// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadflow_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Identity Domain Events
// =============================================================================

// TenantCreated is published when a new tenant is provisioned.
type TenantCreated struct {
	BaseEvent
	TenantID  uuid.UUID `json:"tenantId"`
	Name      string    `json:"name"`
	CreatedBy uuid.UUID `json:"createdBy"`
}

func (e TenantCreated) EventName() string { return "identity.tenant.created" }

// UserCreated is published when a user account is created within a tenant.
type UserCreated struct {
	BaseEvent
	UserID   uuid.UUID `json:"userId"`
	TenantID uuid.UUID `json:"tenantId"`
	Email    string    `json:"email"`
	Roles    []string  `json:"roles"`
}

func (e UserCreated) EventName() string { return "identity.user.created" }

// UserStatusChanged is published when a user's active status flips.
// The auth module invalidates its user cache entry on this event.
type UserStatusChanged struct {
	BaseEvent
	UserID    uuid.UUID `json:"userId"`
	TenantID  uuid.UUID `json:"tenantId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	ChangedBy uuid.UUID `json:"changedBy"`
}

func (e UserStatusChanged) EventName() string { return "identity.user.status_changed" }

// UserRolesChanged is published when a user's role assignments change.
// Permission sets are resolved at login, so this also invalidates the user cache.
type UserRolesChanged struct {
	BaseEvent
	UserID   uuid.UUID `json:"userId"`
	TenantID uuid.UUID `json:"tenantId"`
	Roles    []string  `json:"roles"`
}

func (e UserRolesChanged) EventName() string { return "identity.user.roles_changed" }

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is captured.
type LeadCreated struct {
	BaseEvent
	LeadID          uuid.UUID  `json:"leadId"`
	TenantID        uuid.UUID  `json:"tenantId"`
	AssignedAgentID *uuid.UUID `json:"assignedAgentId,omitempty"`
	Source          string     `json:"source,omitempty"`
	CustomerName    string     `json:"customerName"`
	CustomerPhone   string     `json:"customerPhone"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadAssigned is published when a lead is assigned to an agent,
// whether manually or by the reassignment engine.
type LeadAssigned struct {
	BaseEvent
	LeadID        uuid.UUID  `json:"leadId"`
	TenantID      uuid.UUID  `json:"tenantId"`
	PreviousAgent *uuid.UUID `json:"previousAgent,omitempty"`
	NewAgent      uuid.UUID  `json:"newAgent"`
	AssignedByID  *uuid.UUID `json:"assignedById,omitempty"`
}

func (e LeadAssigned) EventName() string { return "leads.lead.assigned" }

// LeadStatusChanged is published when a lead's status is updated.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	TenantID  uuid.UUID `json:"tenantId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	ActorID   uuid.UUID `json:"actorId"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// CallLogged is published when an agent records a call against a lead.
type CallLogged struct {
	BaseEvent
	CallLogID uuid.UUID `json:"callLogId"`
	LeadID    uuid.UUID `json:"leadId"`
	TenantID  uuid.UUID `json:"tenantId"`
	AgentID   uuid.UUID `json:"agentId"`
	Outcome   string    `json:"outcome"`
}

func (e CallLogged) EventName() string { return "leads.call.logged" }

// AttachmentUploaded is published when a lead attachment is stored.
type AttachmentUploaded struct {
	BaseEvent
	AttachmentID uuid.UUID `json:"attachmentId"`
	LeadID       uuid.UUID `json:"leadId"`
	TenantID     uuid.UUID `json:"tenantId"`
	FileName     string    `json:"fileName"`
	FileKey      string    `json:"fileKey"`
	ContentType  string    `json:"contentType"`
	SizeBytes    int64     `json:"sizeBytes"`
}

func (e AttachmentUploaded) EventName() string { return "leads.attachment.uploaded" }

// =============================================================================
// Reassignment Domain Events
// =============================================================================

// LeadReassigned is published when the reassignment engine moves a lead
// from one agent to another.
type LeadReassigned struct {
	BaseEvent
	LeadID    uuid.UUID  `json:"leadId"`
	TenantID  uuid.UUID  `json:"tenantId"`
	FromAgent *uuid.UUID `json:"fromAgent,omitempty"`
	ToAgent   uuid.UUID  `json:"toAgent"`
	RuleID    uuid.UUID  `json:"ruleId"`
	Reason    string     `json:"reason"`
}

func (e LeadReassigned) EventName() string { return "reassignment.lead.reassigned" }

// NegligenceRecorded is published when negligence points are added to an agent.
type NegligenceRecorded struct {
	BaseEvent
	UserID      uuid.UUID `json:"userId"`
	TenantID    uuid.UUID `json:"tenantId"`
	Points      int       `json:"points"`
	TotalPoints int       `json:"totalPoints"`
	Reason      string    `json:"reason"`
}

func (e NegligenceRecorded) EventName() string { return "reassignment.negligence.recorded" }

// CallCheckCompleted is published after a tenant's call-check job run finishes.
type CallCheckCompleted struct {
	BaseEvent
	TenantID  uuid.UUID `json:"tenantId"`
	Checked   int       `json:"checked"`
	Penalized int       `json:"penalized"`
}

func (e CallCheckCompleted) EventName() string { return "reassignment.callcheck.completed" }

// =============================================================================
// Meetings Domain Events
// =============================================================================

// MeetingScheduled is published when a meeting is booked against a lead.
type MeetingScheduled struct {
	BaseEvent
	MeetingID uuid.UUID `json:"meetingId"`
	LeadID    uuid.UUID `json:"leadId"`
	TenantID  uuid.UUID `json:"tenantId"`
	AgentID   uuid.UUID `json:"agentId"`
	Title     string    `json:"title"`
}

func (e MeetingScheduled) EventName() string { return "meetings.meeting.scheduled" }

// =============================================================================
// Notification Domain Events
// =============================================================================

// NotificationCreated is published when an in-app notification is persisted.
// The email module subscribes to fan the notification out over SMTP.
type NotificationCreated struct {
	BaseEvent
	NotificationID uuid.UUID `json:"notificationId"`
	UserID         uuid.UUID `json:"userId"`
	TenantID       uuid.UUID `json:"tenantId"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
}

func (e NotificationCreated) EventName() string { return "notification.created" }
