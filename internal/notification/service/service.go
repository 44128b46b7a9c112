package service

import (
	"context"
	"fmt"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/notification/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence surface of the notification service.
type Store interface {
	Create(ctx context.Context, n repository.Notification) (repository.Notification, error)
	ListByUser(ctx context.Context, tenantID, userID uuid.UUID, unreadOnly bool, limit int) ([]repository.Notification, error)
	CountUnread(ctx context.Context, tenantID, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, notificationID, tenantID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, tenantID, userID uuid.UUID) (int, error)
}

type Service struct {
	store    Store
	eventBus events.Bus
	log      *logger.Logger
}

func New(store Store, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, eventBus: eventBus, log: log}
}

type SendInput struct {
	TenantID   uuid.UUID
	UserID     uuid.UUID
	Type       string
	Title      string
	Message    string
	EntityType *string
	EntityID   *uuid.UUID
	ActionURL  *string
}

// Send persists an in-app notification and announces it on the bus so
// other channels (email) can fan it out.
func (s *Service) Send(ctx context.Context, input SendInput) (repository.Notification, error) {
	if input.Type == "" || input.Title == "" {
		return repository.Notification{}, apperr.Validation("notification type and title are required")
	}

	created, err := s.store.Create(ctx, repository.Notification{
		TenantID:   input.TenantID,
		UserID:     input.UserID,
		Type:       input.Type,
		Title:      input.Title,
		Message:    input.Message,
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		ActionURL:  input.ActionURL,
	})
	if err != nil {
		return repository.Notification{}, fmt.Errorf("create notification: %w", err)
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.NotificationCreated{
			BaseEvent:      events.NewBaseEvent(),
			NotificationID: created.ID,
			UserID:         created.UserID,
			TenantID:       created.TenantID,
			Type:           created.Type,
			Title:          created.Title,
			Body:           created.Message,
		})
	}

	return created, nil
}

// SendMany delivers the same notification to several users. Individual
// failures are logged and skipped so one bad recipient does not block
// the rest.
func (s *Service) SendMany(ctx context.Context, userIDs []uuid.UUID, input SendInput) int {
	delivered := 0
	for _, userID := range userIDs {
		input.UserID = userID
		if _, err := s.Send(ctx, input); err != nil {
			s.log.Warn("notification delivery failed",
				"user_id", userID.String(),
				"type", input.Type,
				"error", err.Error(),
			)
			continue
		}
		delivered++
	}
	return delivered
}

func (s *Service) List(ctx context.Context, tenantID, userID uuid.UUID, unreadOnly bool, limit int) ([]repository.Notification, error) {
	return s.store.ListByUser(ctx, tenantID, userID, unreadOnly, limit)
}

func (s *Service) UnreadCount(ctx context.Context, tenantID, userID uuid.UUID) (int, error) {
	return s.store.CountUnread(ctx, tenantID, userID)
}

func (s *Service) MarkRead(ctx context.Context, notificationID, tenantID, userID uuid.UUID) error {
	err := s.store.MarkRead(ctx, notificationID, tenantID, userID)
	if err == repository.ErrNotFound {
		return apperr.NotFound("notification not found")
	}
	return err
}

func (s *Service) MarkAllRead(ctx context.Context, tenantID, userID uuid.UUID) (int, error) {
	return s.store.MarkAllRead(ctx, tenantID, userID)
}
