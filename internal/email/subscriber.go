package email

import (
	"context"
	"fmt"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/identity/directory"
	"leadflow_backend/platform/logger"
)

// Subscriber fans persisted notifications out over email. Delivery is
// best-effort; a failed send is logged by the bus and dropped.
type Subscriber struct {
	sender    Sender
	directory directory.Directory
	log       *logger.Logger
}

func NewSubscriber(sender Sender, dir directory.Directory, log *logger.Logger) *Subscriber {
	return &Subscriber{sender: sender, directory: dir, log: log}
}

func (s *Subscriber) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.NotificationCreated{}.EventName(), events.HandlerFunc(s.handleNotificationCreated))
}

func (s *Subscriber) handleNotificationCreated(ctx context.Context, event events.Event) error {
	created, ok := event.(events.NotificationCreated)
	if !ok {
		return nil
	}

	account, err := s.directory.GetAccountByID(ctx, created.UserID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}

	if err := s.sender.Send(ctx, account.Email, created.Title, created.Body); err != nil {
		return fmt.Errorf("send notification email: %w", err)
	}

	s.log.Info("notification email sent",
		"notification_id", created.NotificationID.String(),
		"user_id", created.UserID.String(),
	)
	return nil
}
