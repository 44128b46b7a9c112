package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadflow_backend/internal/adapters/storage"
	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	leadNotFound       = "lead not found"
	attachmentNotFound = "attachment not found"

	// StatusNew is the initial status for captured leads.
	StatusNew = "new"
	// StatusCall marks leads awaiting an agent call; the call-check job
	// scans this status.
	StatusCall = "call"

	defaultPhoneRegion = "US"
)

type Service struct {
	repo             *repository.Repository
	eventBus         events.Bus
	storage          storage.StorageService
	attachmentBucket string
}

func New(repo *repository.Repository, eventBus events.Bus, storageSvc storage.StorageService, attachmentBucket string) *Service {
	return &Service{repo: repo, eventBus: eventBus, storage: storageSvc, attachmentBucket: attachmentBucket}
}

// Repository exposes the repository for cross-module wiring in the
// composition root (the reassignment engine shares the assignment ledger).
func (s *Service) Repository() *repository.Repository {
	return s.repo
}

type CreateLeadInput struct {
	TenantID uuid.UUID
	Name     string
	Phone    string
	Email    *string
	Priority int
	Source   *string
}

func (s *Service) CreateLead(ctx context.Context, input CreateLeadInput) (repository.Lead, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return repository.Lead{}, apperr.Validation("lead name is required")
	}

	lead, err := s.repo.CreateLead(ctx, repository.Lead{
		TenantID: input.TenantID,
		Name:     name,
		Phone:    phone.NormalizeE164(input.Phone, defaultPhoneRegion),
		Email:    input.Email,
		Status:   StatusNew,
		Priority: input.Priority,
		Source:   input.Source,
	})
	if err != nil {
		return repository.Lead{}, fmt.Errorf("create lead: %w", err)
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.LeadCreated{
			BaseEvent:       events.NewBaseEvent(),
			LeadID:          lead.ID,
			TenantID:        lead.TenantID,
			AssignedAgentID: lead.AssignedUserID,
			Source:          derefOr(lead.Source, ""),
			CustomerName:    lead.Name,
			CustomerPhone:   lead.Phone,
		})
	}

	return lead, nil
}

func (s *Service) GetLead(ctx context.Context, leadID, tenantID uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetLead(ctx, s.repo.Pool(), leadID, tenantID)
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.Lead{}, apperr.NotFound(leadNotFound)
		}
		return repository.Lead{}, err
	}
	return lead, nil
}

func (s *Service) ListLeads(ctx context.Context, tenantID uuid.UUID, filter repository.LeadFilter) ([]repository.Lead, error) {
	return s.repo.ListLeads(ctx, tenantID, filter)
}

func (s *Service) UpdateLead(ctx context.Context, leadID, tenantID, actorID uuid.UUID, update repository.LeadUpdate) (repository.Lead, error) {
	current, err := s.GetLead(ctx, leadID, tenantID)
	if err != nil {
		return repository.Lead{}, err
	}

	if update.Phone != nil {
		normalized := phone.NormalizeE164(*update.Phone, defaultPhoneRegion)
		update.Phone = &normalized
	}
	if update.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*update.Status))
		if status == "" {
			return repository.Lead{}, apperr.Validation("status cannot be empty")
		}
		update.Status = &status
	}

	updated, err := s.repo.UpdateLead(ctx, leadID, tenantID, update)
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.Lead{}, apperr.NotFound(leadNotFound)
		}
		return repository.Lead{}, err
	}

	if s.eventBus != nil && update.Status != nil && current.Status != updated.Status {
		s.eventBus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    updated.ID,
			TenantID:  updated.TenantID,
			OldStatus: current.Status,
			NewStatus: updated.Status,
			ActorID:   actorID,
		})
	}

	return updated, nil
}

// AssignLead manually assigns a lead to a user. The lead row update and
// the ledger entry commit in one transaction.
func (s *Service) AssignLead(ctx context.Context, leadID, tenantID, userID, assignedBy uuid.UUID) (repository.Lead, error) {
	tx, err := s.repo.Pool().Begin(ctx)
	if err != nil {
		return repository.Lead{}, fmt.Errorf("begin assignment transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lead, err := s.repo.GetLeadForUpdate(ctx, tx, leadID, tenantID)
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.Lead{}, apperr.NotFound(leadNotFound)
		}
		return repository.Lead{}, err
	}
	previous := lead.AssignedUserID

	if err := s.repo.SetAssignedUser(ctx, tx, leadID, tenantID, &userID); err != nil {
		return repository.Lead{}, fmt.Errorf("set assigned user: %w", err)
	}

	if _, err := s.repo.CreateAssignment(ctx, tx, repository.LeadAssignment{
		TenantID:       tenantID,
		LeadID:         leadID,
		AssignedUserID: userID,
		AssignedBy:     &assignedBy,
		Reason:         "manual",
	}); err != nil {
		return repository.Lead{}, fmt.Errorf("record assignment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return repository.Lead{}, fmt.Errorf("commit assignment transaction: %w", err)
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.LeadAssigned{
			BaseEvent:     events.NewBaseEvent(),
			LeadID:        leadID,
			TenantID:      tenantID,
			PreviousAgent: previous,
			NewAgent:      userID,
			AssignedByID:  &assignedBy,
		})
	}

	return s.GetLead(ctx, leadID, tenantID)
}

func (s *Service) ListAssignments(ctx context.Context, leadID, tenantID uuid.UUID) ([]repository.LeadAssignment, error) {
	if _, err := s.GetLead(ctx, leadID, tenantID); err != nil {
		return nil, err
	}
	return s.repo.ListAssignments(ctx, leadID, tenantID)
}

type CreateCallLogInput struct {
	TenantID uuid.UUID
	LeadID   uuid.UUID
	AgentID  uuid.UUID
	Outcome  string
	Notes    *string
	CalledAt *time.Time
}

func (s *Service) CreateCallLog(ctx context.Context, input CreateCallLogInput) (repository.CallLog, error) {
	if _, err := s.GetLead(ctx, input.LeadID, input.TenantID); err != nil {
		return repository.CallLog{}, err
	}

	calledAt := time.Now()
	if input.CalledAt != nil {
		calledAt = *input.CalledAt
	}

	log, err := s.repo.CreateCallLog(ctx, repository.CallLog{
		TenantID: input.TenantID,
		LeadID:   input.LeadID,
		AgentID:  input.AgentID,
		Outcome:  strings.ToLower(strings.TrimSpace(input.Outcome)),
		Notes:    input.Notes,
		CalledAt: calledAt,
	})
	if err != nil {
		return repository.CallLog{}, fmt.Errorf("create call log: %w", err)
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.CallLogged{
			BaseEvent: events.NewBaseEvent(),
			CallLogID: log.ID,
			LeadID:    log.LeadID,
			TenantID:  log.TenantID,
			AgentID:   log.AgentID,
			Outcome:   log.Outcome,
		})
	}

	return log, nil
}

func (s *Service) ListCallLogs(ctx context.Context, leadID, tenantID uuid.UUID) ([]repository.CallLog, error) {
	if _, err := s.GetLead(ctx, leadID, tenantID); err != nil {
		return nil, err
	}
	return s.repo.ListCallLogs(ctx, leadID, tenantID)
}

// PresignAttachmentUpload returns a presigned PUT URL scoped under the
// tenant/lead folder. The attachment record is created after the client
// confirms the upload.
func (s *Service) PresignAttachmentUpload(ctx context.Context, leadID, tenantID uuid.UUID, fileName, contentType string, sizeBytes int64) (*storage.PresignedURL, error) {
	if s.storage == nil {
		return nil, apperr.Internal("file storage is not configured")
	}
	if _, err := s.GetLead(ctx, leadID, tenantID); err != nil {
		return nil, err
	}

	folder := tenantID.String() + "/" + leadID.String()
	presigned, err := s.storage.GenerateUploadURL(ctx, s.attachmentBucket, folder, fileName, contentType, sizeBytes)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	return presigned, nil
}

type ConfirmAttachmentInput struct {
	TenantID    uuid.UUID
	LeadID      uuid.UUID
	UploadedBy  uuid.UUID
	FileKey     string
	FileName    string
	ContentType string
	SizeBytes   int64
}

func (s *Service) ConfirmAttachment(ctx context.Context, input ConfirmAttachmentInput) (repository.Attachment, error) {
	if _, err := s.GetLead(ctx, input.LeadID, input.TenantID); err != nil {
		return repository.Attachment{}, err
	}

	attachment, err := s.repo.CreateAttachment(ctx, repository.Attachment{
		TenantID:    input.TenantID,
		LeadID:      input.LeadID,
		FileKey:     input.FileKey,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
		UploadedBy:  input.UploadedBy,
	})
	if err != nil {
		return repository.Attachment{}, fmt.Errorf("create attachment: %w", err)
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.AttachmentUploaded{
			BaseEvent:    events.NewBaseEvent(),
			AttachmentID: attachment.ID,
			LeadID:       attachment.LeadID,
			TenantID:     attachment.TenantID,
			FileName:     attachment.FileName,
			FileKey:      attachment.FileKey,
			ContentType:  attachment.ContentType,
			SizeBytes:    attachment.SizeBytes,
		})
	}

	return attachment, nil
}

func (s *Service) ListAttachments(ctx context.Context, leadID, tenantID uuid.UUID) ([]repository.Attachment, error) {
	if _, err := s.GetLead(ctx, leadID, tenantID); err != nil {
		return nil, err
	}
	return s.repo.ListAttachments(ctx, leadID, tenantID)
}

func (s *Service) PresignAttachmentDownload(ctx context.Context, attachmentID, tenantID uuid.UUID) (*storage.PresignedURL, error) {
	if s.storage == nil {
		return nil, apperr.Internal("file storage is not configured")
	}

	attachment, err := s.repo.GetAttachment(ctx, attachmentID, tenantID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperr.NotFound(attachmentNotFound)
		}
		return nil, err
	}

	return s.storage.GenerateDownloadURL(ctx, s.attachmentBucket, attachment.FileKey)
}

func derefOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}
