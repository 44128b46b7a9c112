package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Notification struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	UserID     uuid.UUID
	Type       string
	Title      string
	Message    string
	EntityType *string
	EntityID   *uuid.UUID
	ActionURL  *string
	ReadAt     *time.Time
	CreatedAt  time.Time
}

const notificationColumns = `id, tenant_id, user_id, type, title, message, entity_type, entity_id, action_url, read_at, created_at`

func (r *Repository) Create(ctx context.Context, n Notification) (Notification, error) {
	row := r.pool.QueryRow(ctx, `
    INSERT INTO notifications (tenant_id, user_id, type, title, message, entity_type, entity_id, action_url)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING `+notificationColumns+`
  `, n.TenantID, n.UserID, n.Type, n.Title, n.Message, n.EntityType, n.EntityID, n.ActionURL)
	return scanNotification(row.Scan)
}

func (r *Repository) ListByUser(ctx context.Context, tenantID, userID uuid.UUID, unreadOnly bool, limit int) ([]Notification, error) {
	query := `
    SELECT ` + notificationColumns + `
    FROM notifications
    WHERE tenant_id = $1 AND user_id = $2
  `
	if unreadOnly {
		query += " AND read_at IS NULL"
	}
	query += " ORDER BY created_at DESC LIMIT $3"

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, query, tenantID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *Repository) CountUnread(ctx context.Context, tenantID, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
    SELECT COUNT(*)
    FROM notifications
    WHERE tenant_id = $1 AND user_id = $2 AND read_at IS NULL
  `, tenantID, userID).Scan(&count)
	return count, err
}

func (r *Repository) MarkRead(ctx context.Context, notificationID, tenantID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
    UPDATE notifications
    SET read_at = now()
    WHERE id = $1 AND tenant_id = $2 AND user_id = $3 AND read_at IS NULL
  `, notificationID, tenantID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, tenantID, userID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `
    UPDATE notifications
    SET read_at = now()
    WHERE tenant_id = $1 AND user_id = $2 AND read_at IS NULL
  `, tenantID, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanNotification(scan func(dest ...interface{}) error) (Notification, error) {
	var n Notification
	err := scan(
		&n.ID,
		&n.TenantID,
		&n.UserID,
		&n.Type,
		&n.Title,
		&n.Message,
		&n.EntityType,
		&n.EntityID,
		&n.ActionURL,
		&n.ReadAt,
		&n.CreatedAt,
	)
	return n, err
}
