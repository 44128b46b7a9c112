package transport

import "time"

type TriggerRequest struct {
	LeadID     string `json:"leadId" validate:"required,uuid"`
	TriggerKey string `json:"triggerKey" validate:"required,min=1,max=100"`
}

type EventResponse struct {
	ID         string    `json:"id"`
	LeadID     string    `json:"leadId"`
	FromUserID *string   `json:"fromUserId,omitempty"`
	ToUserID   string    `json:"toUserId"`
	RuleID     string    `json:"ruleId"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TriggerResponse reports the outcome of a trigger. Reassigned is false
// when no rule, pool member, or lead matched; that is not an error.
type TriggerResponse struct {
	Reassigned bool           `json:"reassigned"`
	Event      *EventResponse `json:"event,omitempty"`
}

type ListEventsResponse struct {
	Events []EventResponse `json:"events"`
}

type NegligenceRequest struct {
	LeadID string `json:"leadId" validate:"required,uuid"`
	UserID string `json:"userId" validate:"required,uuid"`
	Points int    `json:"points" validate:"required,min=1"`
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

type NegligencePointResponse struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"leadId"`
	UserID    string    `json:"userId"`
	Points    int       `json:"points"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

type ListNegligencePointsResponse struct {
	NegligencePoints []NegligencePointResponse `json:"negligencePoints"`
}

type CreateRuleRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=100"`
	Enabled *bool  `json:"enabled"`
}

type SetRuleEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type RuleResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
}

type ListRulesResponse struct {
	Rules []RuleResponse `json:"rules"`
}

type SetPoolMemberRequest struct {
	Weight int `json:"weight" validate:"min=0,max=1000"`
}

type PoolMemberResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Weight    int       `json:"weight"`
	CreatedAt time.Time `json:"createdAt"`
}

type ListPoolMembersResponse struct {
	Members []PoolMemberResponse `json:"members"`
}
