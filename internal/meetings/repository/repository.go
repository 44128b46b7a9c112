package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Meeting struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	LeadID          uuid.UUID
	AgentID         uuid.UUID
	Title           string
	Notes           *string
	ScheduledAt     time.Time
	DurationMinutes int
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type MeetingUpdate struct {
	Title           *string
	Notes           *string
	ScheduledAt     *time.Time
	DurationMinutes *int
	Status          *string
}

type Filter struct {
	LeadID  *uuid.UUID
	AgentID *uuid.UUID
	Status  *string
	Limit   int
}

const meetingColumns = `id, tenant_id, lead_id, agent_id, title, notes, scheduled_at, duration_minutes, status, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, meeting Meeting) (Meeting, error) {
	row := r.pool.QueryRow(ctx, `
    INSERT INTO meetings (tenant_id, lead_id, agent_id, title, notes, scheduled_at, duration_minutes, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING `+meetingColumns+`
  `, meeting.TenantID, meeting.LeadID, meeting.AgentID, meeting.Title, meeting.Notes, meeting.ScheduledAt, meeting.DurationMinutes, meeting.Status)
	return scanMeeting(row)
}

func (r *Repository) Get(ctx context.Context, meetingID, tenantID uuid.UUID) (Meeting, error) {
	row := r.pool.QueryRow(ctx, `
    SELECT `+meetingColumns+`
    FROM meetings
    WHERE id = $1 AND tenant_id = $2
  `, meetingID, tenantID)
	return scanMeeting(row)
}

func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Meeting, error) {
	query := `
    SELECT ` + meetingColumns + `
    FROM meetings
    WHERE tenant_id = $1
  `
	args := []interface{}{tenantID}

	if filter.LeadID != nil {
		args = append(args, *filter.LeadID)
		query += fmt.Sprintf(" AND lead_id = $%d", len(args))
	}
	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		query += fmt.Sprintf(" AND agent_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY scheduled_at ASC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []Meeting
	for rows.Next() {
		var meeting Meeting
		if err := rows.Scan(
			&meeting.ID,
			&meeting.TenantID,
			&meeting.LeadID,
			&meeting.AgentID,
			&meeting.Title,
			&meeting.Notes,
			&meeting.ScheduledAt,
			&meeting.DurationMinutes,
			&meeting.Status,
			&meeting.CreatedAt,
			&meeting.UpdatedAt,
		); err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	return meetings, rows.Err()
}

func (r *Repository) Update(ctx context.Context, meetingID, tenantID uuid.UUID, update MeetingUpdate) (Meeting, error) {
	row := r.pool.QueryRow(ctx, `
    UPDATE meetings
    SET title = COALESCE($3, title),
        notes = COALESCE($4, notes),
        scheduled_at = COALESCE($5, scheduled_at),
        duration_minutes = COALESCE($6, duration_minutes),
        status = COALESCE($7, status),
        updated_at = now()
    WHERE id = $1 AND tenant_id = $2
    RETURNING `+meetingColumns+`
  `, meetingID, tenantID, update.Title, update.Notes, update.ScheduledAt, update.DurationMinutes, update.Status)
	return scanMeeting(row)
}

func (r *Repository) Delete(ctx context.Context, meetingID, tenantID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
    DELETE FROM meetings
    WHERE id = $1 AND tenant_id = $2
  `, meetingID, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMeeting(row pgx.Row) (Meeting, error) {
	var meeting Meeting
	err := row.Scan(
		&meeting.ID,
		&meeting.TenantID,
		&meeting.LeadID,
		&meeting.AgentID,
		&meeting.Title,
		&meeting.Notes,
		&meeting.ScheduledAt,
		&meeting.DurationMinutes,
		&meeting.Status,
		&meeting.CreatedAt,
		&meeting.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Meeting{}, ErrNotFound
	}
	return meeting, err
}
