package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Activity is one audit trail entry. Details carries event-specific
// fields and is stored as JSONB.
type Activity struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Details    map[string]interface{}
	CreatedAt  time.Time
}

func (r *Repository) Create(ctx context.Context, activity Activity) (Activity, error) {
	row := r.pool.QueryRow(ctx, `
    INSERT INTO activities (tenant_id, actor_id, action, entity_type, entity_id, details)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id, tenant_id, actor_id, action, entity_type, entity_id, details, created_at
  `, activity.TenantID, activity.ActorID, activity.Action, activity.EntityType, activity.EntityID, activity.Details)

	var created Activity
	err := row.Scan(
		&created.ID,
		&created.TenantID,
		&created.ActorID,
		&created.Action,
		&created.EntityType,
		&created.EntityID,
		&created.Details,
		&created.CreatedAt,
	)
	return created, err
}

type Filter struct {
	EntityType *string
	EntityID   *uuid.UUID
	Limit      int
}

func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Activity, error) {
	query := `
    SELECT id, tenant_id, actor_id, action, entity_type, entity_id, details, created_at
    FROM activities
    WHERE tenant_id = $1
  `
	args := []interface{}{tenantID}

	if filter.EntityType != nil {
		args = append(args, *filter.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if filter.EntityID != nil {
		args = append(args, *filter.EntityID)
		query += fmt.Sprintf(" AND entity_id = $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		var activity Activity
		if err := rows.Scan(
			&activity.ID,
			&activity.TenantID,
			&activity.ActorID,
			&activity.Action,
			&activity.EntityType,
			&activity.EntityID,
			&activity.Details,
			&activity.CreatedAt,
		); err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}
