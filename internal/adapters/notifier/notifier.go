// Package notifier adapts the notification service to the delivery port
// consumed by the reassignment engine.
package notifier

import (
	"context"

	notificationservice "leadflow_backend/internal/notification/service"
	reassignmentservice "leadflow_backend/internal/reassignment/service"
)

type Adapter struct {
	notifications *notificationservice.Service
}

func New(notifications *notificationservice.Service) *Adapter {
	return &Adapter{notifications: notifications}
}

func (a *Adapter) Notify(ctx context.Context, n reassignmentservice.Notification) error {
	entityType := n.EntityType
	entityID := n.EntityID
	actionURL := n.ActionURL

	input := notificationservice.SendInput{
		TenantID: n.TenantID,
		UserID:   n.UserID,
		Type:     n.Type,
		Title:    n.Title,
		Message:  n.Message,
	}
	if entityType != "" {
		input.EntityType = &entityType
		input.EntityID = &entityID
	}
	if actionURL != "" {
		input.ActionURL = &actionURL
	}

	_, err := a.notifications.Send(ctx, input)
	return err
}

var _ reassignmentservice.Notifier = (*Adapter)(nil)
