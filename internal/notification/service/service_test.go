package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/notification/repository"
	platformevents "leadflow_backend/platform/events"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	created   []repository.Notification
	createErr map[uuid.UUID]error
}

func (f *fakeStore) Create(_ context.Context, n repository.Notification) (repository.Notification, error) {
	if err := f.createErr[n.UserID]; err != nil {
		return repository.Notification{}, err
	}
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	f.created = append(f.created, n)
	return n, nil
}

func (f *fakeStore) ListByUser(_ context.Context, tenantID, userID uuid.UUID, unreadOnly bool, _ int) ([]repository.Notification, error) {
	var matched []repository.Notification
	for _, n := range f.created {
		if n.TenantID != tenantID || n.UserID != userID {
			continue
		}
		if unreadOnly && n.ReadAt != nil {
			continue
		}
		matched = append(matched, n)
	}
	return matched, nil
}

func (f *fakeStore) CountUnread(_ context.Context, tenantID, userID uuid.UUID) (int, error) {
	count := 0
	for _, n := range f.created {
		if n.TenantID == tenantID && n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) MarkRead(_ context.Context, notificationID, tenantID, userID uuid.UUID) error {
	for i, n := range f.created {
		if n.ID == notificationID && n.TenantID == tenantID && n.UserID == userID && n.ReadAt == nil {
			now := time.Now()
			f.created[i].ReadAt = &now
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) MarkAllRead(_ context.Context, tenantID, userID uuid.UUID) (int, error) {
	marked := 0
	for i, n := range f.created {
		if n.TenantID == tenantID && n.UserID == userID && n.ReadAt == nil {
			now := time.Now()
			f.created[i].ReadAt = &now
			marked++
		}
	}
	return marked, nil
}

func TestSendPersistsAndPublishes(t *testing.T) {
	store := &fakeStore{}
	log := logger.New("development")
	bus := platformevents.NewInMemoryBus(log)

	var published []events.NotificationCreated
	bus.Subscribe(events.NotificationCreated{}.EventName(), events.HandlerFunc(func(_ context.Context, event events.Event) error {
		published = append(published, event.(events.NotificationCreated))
		return nil
	}))

	svc := New(store, bus, log)
	tenantID := uuid.New()
	userID := uuid.New()

	created, err := svc.Send(context.Background(), SendInput{
		TenantID: tenantID,
		UserID:   userID,
		Type:     "lead_assigned",
		Title:    "New lead assigned",
		Message:  "A lead has been assigned to you.",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one persisted notification, got %d", len(store.created))
	}
	if created.TenantID != tenantID || created.UserID != userID {
		t.Fatalf("unexpected notification scope: %+v", created)
	}

	// Publish is async; give handlers a moment.
	deadline := time.Now().Add(time.Second)
	for len(published) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if len(published) != 1 {
		t.Fatalf("expected one published event, got %d", len(published))
	}
	if published[0].NotificationID != created.ID {
		t.Fatalf("expected event for notification %s, got %s", created.ID, published[0].NotificationID)
	}
}

func TestSendRejectsMissingTypeOrTitle(t *testing.T) {
	svc := New(&fakeStore{}, nil, logger.New("development"))

	if _, err := svc.Send(context.Background(), SendInput{Title: "hi"}); err == nil {
		t.Fatal("expected missing type to be rejected")
	}
	if _, err := svc.Send(context.Background(), SendInput{Type: "system"}); err == nil {
		t.Fatal("expected missing title to be rejected")
	}
}

func TestSendManySkipsFailedRecipients(t *testing.T) {
	good := uuid.New()
	bad := uuid.New()
	store := &fakeStore{createErr: map[uuid.UUID]error{bad: errors.New("insert failed")}}
	svc := New(store, nil, logger.New("development"))

	delivered := svc.SendMany(context.Background(), []uuid.UUID{good, bad}, SendInput{
		TenantID: uuid.New(),
		Type:     "system",
		Title:    "maintenance",
	})
	if delivered != 1 {
		t.Fatalf("expected one delivered notification, got %d", delivered)
	}
	if len(store.created) != 1 || store.created[0].UserID != good {
		t.Fatalf("expected only the healthy recipient to be persisted, got %+v", store.created)
	}
}

func TestMarkReadMapsMissingToNotFound(t *testing.T) {
	svc := New(&fakeStore{}, nil, logger.New("development"))

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New(), uuid.New())
	if err == nil {
		t.Fatal("expected an error for a missing notification")
	}
}

func TestMarkAllRead(t *testing.T) {
	store := &fakeStore{}
	svc := New(store, nil, logger.New("development"))
	tenantID := uuid.New()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		if _, err := svc.Send(context.Background(), SendInput{
			TenantID: tenantID,
			UserID:   userID,
			Type:     "system",
			Title:    "hello",
		}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	marked, err := svc.MarkAllRead(context.Background(), tenantID, userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if marked != 3 {
		t.Fatalf("expected 3 notifications marked, got %d", marked)
	}

	count, err := svc.UnreadCount(context.Background(), tenantID, userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count != 0 {
		t.Fatalf("expected zero unread, got %d", count)
	}
}
