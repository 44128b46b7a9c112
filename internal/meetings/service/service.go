package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/meetings/repository"
	"leadflow_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"

	defaultDurationMinutes = 30
)

var validStatuses = map[string]bool{
	StatusScheduled: true,
	StatusCompleted: true,
	StatusCancelled: true,
}

type Service struct {
	repo     *repository.Repository
	eventBus events.Bus
}

func New(repo *repository.Repository, eventBus events.Bus) *Service {
	return &Service{repo: repo, eventBus: eventBus}
}

type ScheduleInput struct {
	TenantID        uuid.UUID
	LeadID          uuid.UUID
	AgentID         uuid.UUID
	Title           string
	Notes           *string
	ScheduledAt     time.Time
	DurationMinutes int
}

func (s *Service) Schedule(ctx context.Context, input ScheduleInput) (repository.Meeting, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return repository.Meeting{}, apperr.Validation("meeting title is required")
	}
	if input.ScheduledAt.IsZero() {
		return repository.Meeting{}, apperr.Validation("scheduled time is required")
	}

	duration := input.DurationMinutes
	if duration <= 0 {
		duration = defaultDurationMinutes
	}

	meeting, err := s.repo.Create(ctx, repository.Meeting{
		TenantID:        input.TenantID,
		LeadID:          input.LeadID,
		AgentID:         input.AgentID,
		Title:           title,
		Notes:           input.Notes,
		ScheduledAt:     input.ScheduledAt,
		DurationMinutes: duration,
		Status:          StatusScheduled,
	})
	if err != nil {
		return repository.Meeting{}, fmt.Errorf("create meeting: %w", err)
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.MeetingScheduled{
			BaseEvent: events.NewBaseEvent(),
			MeetingID: meeting.ID,
			LeadID:    meeting.LeadID,
			TenantID:  meeting.TenantID,
			AgentID:   meeting.AgentID,
			Title:     meeting.Title,
		})
	}

	return meeting, nil
}

func (s *Service) Get(ctx context.Context, meetingID, tenantID uuid.UUID) (repository.Meeting, error) {
	meeting, err := s.repo.Get(ctx, meetingID, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Meeting{}, apperr.NotFound("meeting not found")
		}
		return repository.Meeting{}, err
	}
	return meeting, nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter repository.Filter) ([]repository.Meeting, error) {
	return s.repo.List(ctx, tenantID, filter)
}

func (s *Service) Update(ctx context.Context, meetingID, tenantID uuid.UUID, update repository.MeetingUpdate) (repository.Meeting, error) {
	if update.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*update.Status))
		if !validStatuses[status] {
			return repository.Meeting{}, apperr.Validation("invalid meeting status")
		}
		update.Status = &status
	}

	meeting, err := s.repo.Update(ctx, meetingID, tenantID, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Meeting{}, apperr.NotFound("meeting not found")
		}
		return repository.Meeting{}, err
	}
	return meeting, nil
}

func (s *Service) Delete(ctx context.Context, meetingID, tenantID uuid.UUID) error {
	err := s.repo.Delete(ctx, meetingID, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("meeting not found")
	}
	return err
}
