package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

type Lead struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	Name           string
	Phone          string
	Email          *string
	Status         string
	Priority       int
	Source         *string
	AssignedUserID *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type LeadFilter struct {
	Status         *string
	AssignedUserID *uuid.UUID
	Limit          int
	Offset         int
}

type LeadUpdate struct {
	Name     *string
	Phone    *string
	Email    *string
	Status   *string
	Priority *int
	Source   *string
}

type CallLog struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	LeadID    uuid.UUID
	AgentID   uuid.UUID
	Outcome   string
	Notes     *string
	CalledAt  time.Time
	CreatedAt time.Time
}

// LeadAssignment is the append-only "who is assigned now" ledger. Written
// both by manual assignment and by the reassignment engine.
type LeadAssignment struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	LeadID         uuid.UUID
	AssignedUserID uuid.UUID
	AssignedBy     *uuid.UUID
	Reason         string
	CreatedAt      time.Time
}

type Attachment struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	LeadID      uuid.UUID
	FileKey     string
	FileName    string
	ContentType string
	SizeBytes   int64
	UploadedBy  uuid.UUID
	CreatedAt   time.Time
}

const listLeadsQuery = `
    SELECT id, tenant_id, name, phone, email, status, priority, source, assigned_user_id, created_at, updated_at
    FROM leads
    WHERE tenant_id = $1
`

const leadColumns = `id, tenant_id, name, phone, email, status, priority, source, assigned_user_id, created_at, updated_at`

func (r *Repository) CreateLead(ctx context.Context, lead Lead) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
    INSERT INTO leads (tenant_id, name, phone, email, status, priority, source, assigned_user_id)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING `+leadColumns+`
  `, lead.TenantID, lead.Name, lead.Phone, lead.Email, lead.Status, lead.Priority, lead.Source, lead.AssignedUserID)
	return scanLead(row)
}

func (r *Repository) GetLead(ctx context.Context, q DBTX, leadID, tenantID uuid.UUID) (Lead, error) {
	row := q.QueryRow(ctx, `
    SELECT `+leadColumns+`
    FROM leads
    WHERE id = $1 AND tenant_id = $2
  `, leadID, tenantID)
	return scanLead(row)
}

// GetLeadForUpdate loads the lead row under a row-level lock. Must run
// inside a transaction; the lock is held until commit or rollback.
func (r *Repository) GetLeadForUpdate(ctx context.Context, q DBTX, leadID, tenantID uuid.UUID) (Lead, error) {
	row := q.QueryRow(ctx, `
    SELECT `+leadColumns+`
    FROM leads
    WHERE id = $1 AND tenant_id = $2
    FOR UPDATE
  `, leadID, tenantID)
	return scanLead(row)
}

func (r *Repository) ListLeads(ctx context.Context, tenantID uuid.UUID, filter LeadFilter) ([]Lead, error) {
	query := listLeadsQuery
	args := []interface{}{tenantID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.AssignedUserID != nil {
		args = append(args, *filter.AssignedUserID)
		query += fmt.Sprintf(" AND assigned_user_id = $%d", len(args))
	}

	query += " ORDER BY created_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		lead, err := scanLeadFromRows(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// ListLeadsByStatus streams all leads in a status for the call-check job.
func (r *Repository) ListLeadsByStatus(ctx context.Context, tenantID uuid.UUID, status string) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
    SELECT `+leadColumns+`
    FROM leads
    WHERE tenant_id = $1 AND status = $2
    ORDER BY created_at ASC, id ASC
  `, tenantID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		lead, err := scanLeadFromRows(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *Repository) UpdateLead(ctx context.Context, leadID, tenantID uuid.UUID, update LeadUpdate) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
    UPDATE leads
    SET name = COALESCE($3, name),
        phone = COALESCE($4, phone),
        email = COALESCE($5, email),
        status = COALESCE($6, status),
        priority = COALESCE($7, priority),
        source = COALESCE($8, source),
        updated_at = now()
    WHERE id = $1 AND tenant_id = $2
    RETURNING `+leadColumns+`
  `, leadID, tenantID, update.Name, update.Phone, update.Email, update.Status, update.Priority, update.Source)
	return scanLead(row)
}

// SetAssignedUser updates the lead's current assignee. Runs on the given
// DBTX so the reassignment engine can include it in its transaction.
func (r *Repository) SetAssignedUser(ctx context.Context, q DBTX, leadID, tenantID uuid.UUID, userID *uuid.UUID) error {
	tag, err := q.Exec(ctx, `
    UPDATE leads
    SET assigned_user_id = $3, updated_at = now()
    WHERE id = $1 AND tenant_id = $2
  `, leadID, tenantID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) CreateAssignment(ctx context.Context, q DBTX, assignment LeadAssignment) (LeadAssignment, error) {
	var created LeadAssignment
	err := q.QueryRow(ctx, `
    INSERT INTO lead_assignments (tenant_id, lead_id, assigned_user_id, assigned_by, reason)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id, tenant_id, lead_id, assigned_user_id, assigned_by, reason, created_at
  `, assignment.TenantID, assignment.LeadID, assignment.AssignedUserID, assignment.AssignedBy, assignment.Reason).Scan(
		&created.ID,
		&created.TenantID,
		&created.LeadID,
		&created.AssignedUserID,
		&created.AssignedBy,
		&created.Reason,
		&created.CreatedAt,
	)
	return created, err
}

func (r *Repository) ListAssignments(ctx context.Context, leadID, tenantID uuid.UUID) ([]LeadAssignment, error) {
	rows, err := r.pool.Query(ctx, `
    SELECT id, tenant_id, lead_id, assigned_user_id, assigned_by, reason, created_at
    FROM lead_assignments
    WHERE lead_id = $1 AND tenant_id = $2
    ORDER BY created_at DESC
  `, leadID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []LeadAssignment
	for rows.Next() {
		var assignment LeadAssignment
		if err := rows.Scan(
			&assignment.ID,
			&assignment.TenantID,
			&assignment.LeadID,
			&assignment.AssignedUserID,
			&assignment.AssignedBy,
			&assignment.Reason,
			&assignment.CreatedAt,
		); err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}
	return assignments, rows.Err()
}

func (r *Repository) CreateCallLog(ctx context.Context, log CallLog) (CallLog, error) {
	var created CallLog
	err := r.pool.QueryRow(ctx, `
    INSERT INTO call_logs (tenant_id, lead_id, agent_id, outcome, notes, called_at)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id, tenant_id, lead_id, agent_id, outcome, notes, called_at, created_at
  `, log.TenantID, log.LeadID, log.AgentID, log.Outcome, log.Notes, log.CalledAt).Scan(
		&created.ID,
		&created.TenantID,
		&created.LeadID,
		&created.AgentID,
		&created.Outcome,
		&created.Notes,
		&created.CalledAt,
		&created.CreatedAt,
	)
	return created, err
}

func (r *Repository) ListCallLogs(ctx context.Context, leadID, tenantID uuid.UUID) ([]CallLog, error) {
	rows, err := r.pool.Query(ctx, `
    SELECT id, tenant_id, lead_id, agent_id, outcome, notes, called_at, created_at
    FROM call_logs
    WHERE lead_id = $1 AND tenant_id = $2
    ORDER BY called_at DESC
  `, leadID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []CallLog
	for rows.Next() {
		var log CallLog
		if err := rows.Scan(
			&log.ID,
			&log.TenantID,
			&log.LeadID,
			&log.AgentID,
			&log.Outcome,
			&log.Notes,
			&log.CalledAt,
			&log.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// HasCallLogSince reports whether the lead has any call log at or after
// the cutoff. Used by the call-check job.
func (r *Repository) HasCallLogSince(ctx context.Context, leadID, tenantID uuid.UUID, since time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM call_logs
      WHERE lead_id = $1 AND tenant_id = $2 AND called_at >= $3
    )
  `, leadID, tenantID, since).Scan(&exists)
	return exists, err
}

func (r *Repository) CreateAttachment(ctx context.Context, attachment Attachment) (Attachment, error) {
	var created Attachment
	err := r.pool.QueryRow(ctx, `
    INSERT INTO lead_attachments (tenant_id, lead_id, file_key, file_name, content_type, size_bytes, uploaded_by)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id, tenant_id, lead_id, file_key, file_name, content_type, size_bytes, uploaded_by, created_at
  `, attachment.TenantID, attachment.LeadID, attachment.FileKey, attachment.FileName, attachment.ContentType, attachment.SizeBytes, attachment.UploadedBy).Scan(
		&created.ID,
		&created.TenantID,
		&created.LeadID,
		&created.FileKey,
		&created.FileName,
		&created.ContentType,
		&created.SizeBytes,
		&created.UploadedBy,
		&created.CreatedAt,
	)
	return created, err
}

func (r *Repository) GetAttachment(ctx context.Context, attachmentID, tenantID uuid.UUID) (Attachment, error) {
	var attachment Attachment
	err := r.pool.QueryRow(ctx, `
    SELECT id, tenant_id, lead_id, file_key, file_name, content_type, size_bytes, uploaded_by, created_at
    FROM lead_attachments
    WHERE id = $1 AND tenant_id = $2
  `, attachmentID, tenantID).Scan(
		&attachment.ID,
		&attachment.TenantID,
		&attachment.LeadID,
		&attachment.FileKey,
		&attachment.FileName,
		&attachment.ContentType,
		&attachment.SizeBytes,
		&attachment.UploadedBy,
		&attachment.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Attachment{}, ErrNotFound
	}
	return attachment, err
}

func (r *Repository) ListAttachments(ctx context.Context, leadID, tenantID uuid.UUID) ([]Attachment, error) {
	rows, err := r.pool.Query(ctx, `
    SELECT id, tenant_id, lead_id, file_key, file_name, content_type, size_bytes, uploaded_by, created_at
    FROM lead_attachments
    WHERE lead_id = $1 AND tenant_id = $2
    ORDER BY created_at DESC
  `, leadID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []Attachment
	for rows.Next() {
		var attachment Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TenantID,
			&attachment.LeadID,
			&attachment.FileKey,
			&attachment.FileName,
			&attachment.ContentType,
			&attachment.SizeBytes,
			&attachment.UploadedBy,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		attachments = append(attachments, attachment)
	}
	return attachments, rows.Err()
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID,
		&lead.TenantID,
		&lead.Name,
		&lead.Phone,
		&lead.Email,
		&lead.Status,
		&lead.Priority,
		&lead.Source,
		&lead.AssignedUserID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func scanLeadFromRows(rows pgx.Rows) (Lead, error) {
	var lead Lead
	err := rows.Scan(
		&lead.ID,
		&lead.TenantID,
		&lead.Name,
		&lead.Phone,
		&lead.Email,
		&lead.Status,
		&lead.Priority,
		&lead.Source,
		&lead.AssignedUserID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	return lead, err
}
