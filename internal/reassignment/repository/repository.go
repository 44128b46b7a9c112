package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	leadsrepo "leadflow_backend/internal/leads/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// assignmentReasonAuto marks ledger entries written by the engine, as
// opposed to manual assignment.
const assignmentReasonAuto = "auto"

type Repository struct {
	pool  *pgxpool.Pool
	leads *leadsrepo.Repository
}

// New builds the repository. The leads repository is shared so the
// reassignment transaction can lock and mutate the lead row directly.
func New(pool *pgxpool.Pool, leads *leadsrepo.Repository) *Repository {
	return &Repository{pool: pool, leads: leads}
}

// Rule matches a trigger key to the reassignment behavior. Multiple rules
// may share a name; the oldest enabled one wins.
type Rule struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Enabled   bool
	CreatedAt time.Time
}

// PoolMember is a user eligible for auto-assignment, with a selection weight.
type PoolMember struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	UserID    uuid.UUID
	Weight    int
	CreatedAt time.Time
}

// Event is the immutable audit record of one reassignment.
type Event struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	LeadID     uuid.UUID
	FromUserID *uuid.UUID
	ToUserID   uuid.UUID
	RuleID     uuid.UUID
	Reason     string
	CreatedAt  time.Time
}

// NegligencePoint is an append-only penalty record. Points are recorded
// for audit; no automatic policy aggregates them.
type NegligencePoint struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	LeadID    uuid.UUID
	UserID    uuid.UUID
	Points    int
	Reason    string
	CreatedAt time.Time
}

const findEnabledRuleQuery = `
    SELECT id, tenant_id, name, enabled, created_at
    FROM reassignment_rules
    WHERE tenant_id = $1 AND name = $2 AND enabled
    ORDER BY created_at ASC, id ASC
    LIMIT 1
`

// FindEnabledRule returns the oldest enabled rule matching the trigger
// key, or nil when no rule matches.
func (r *Repository) FindEnabledRule(ctx context.Context, tenantID uuid.UUID, trigger string) (*Rule, error) {
	var rule Rule
	err := r.pool.QueryRow(ctx, findEnabledRuleQuery, tenantID, trigger).Scan(
		&rule.ID,
		&rule.TenantID,
		&rule.Name,
		&rule.Enabled,
		&rule.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *Repository) CreateRule(ctx context.Context, tenantID uuid.UUID, name string, enabled bool) (Rule, error) {
	var rule Rule
	err := r.pool.QueryRow(ctx, `
    INSERT INTO reassignment_rules (tenant_id, name, enabled)
    VALUES ($1, $2, $3)
    RETURNING id, tenant_id, name, enabled, created_at
  `, tenantID, name, enabled).Scan(
		&rule.ID,
		&rule.TenantID,
		&rule.Name,
		&rule.Enabled,
		&rule.CreatedAt,
	)
	return rule, err
}

func (r *Repository) ListRules(ctx context.Context, tenantID uuid.UUID) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `
    SELECT id, tenant_id, name, enabled, created_at
    FROM reassignment_rules
    WHERE tenant_id = $1
    ORDER BY created_at ASC, id ASC
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(&rule.ID, &rule.TenantID, &rule.Name, &rule.Enabled, &rule.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *Repository) SetRuleEnabled(ctx context.Context, ruleID, tenantID uuid.UUID, enabled bool) error {
	tag, err := r.pool.Exec(ctx, `
    UPDATE reassignment_rules
    SET enabled = $3
    WHERE id = $1 AND tenant_id = $2
  `, ruleID, tenantID, enabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteRule(ctx context.Context, ruleID, tenantID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
    DELETE FROM reassignment_rules
    WHERE id = $1 AND tenant_id = $2
  `, ruleID, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const listPoolMembersQuery = `
    SELECT id, tenant_id, user_id, weight, created_at
    FROM pool_members
    WHERE tenant_id = $1
    ORDER BY weight DESC, user_id ASC
`

// ListPoolMembers returns the tenant's pool ordered by weight descending,
// user id ascending, so iteration order is reproducible.
func (r *Repository) ListPoolMembers(ctx context.Context, tenantID uuid.UUID) ([]PoolMember, error) {
	rows, err := r.pool.Query(ctx, listPoolMembersQuery, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []PoolMember
	for rows.Next() {
		var member PoolMember
		if err := rows.Scan(&member.ID, &member.TenantID, &member.UserID, &member.Weight, &member.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *Repository) UpsertPoolMember(ctx context.Context, tenantID, userID uuid.UUID, weight int) (PoolMember, error) {
	var member PoolMember
	err := r.pool.QueryRow(ctx, `
    INSERT INTO pool_members (tenant_id, user_id, weight)
    VALUES ($1, $2, $3)
    ON CONFLICT (tenant_id, user_id) DO UPDATE SET weight = EXCLUDED.weight
    RETURNING id, tenant_id, user_id, weight, created_at
  `, tenantID, userID, weight).Scan(
		&member.ID,
		&member.TenantID,
		&member.UserID,
		&member.Weight,
		&member.CreatedAt,
	)
	return member, err
}

func (r *Repository) RemovePoolMember(ctx context.Context, tenantID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
    DELETE FROM pool_members
    WHERE tenant_id = $1 AND user_id = $2
  `, tenantID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type ApplyReassignmentInput struct {
	TenantID uuid.UUID
	LeadID   uuid.UUID
	ToUserID uuid.UUID
	RuleID   uuid.UUID
	Reason   string
}

// ApplyReassignment moves the lead to the chosen user and writes both
// audit records in one transaction. The lead row is locked for the
// duration, so concurrent triggers on the same lead serialize. Returns
// ErrNotFound when the lead does not exist in the tenant.
func (r *Repository) ApplyReassignment(ctx context.Context, input ApplyReassignmentInput) (Event, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("begin reassignment transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lead, err := r.leads.GetLeadForUpdate(ctx, tx, input.LeadID, input.TenantID)
	if err != nil {
		if errors.Is(err, leadsrepo.ErrNotFound) {
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}
	fromUserID := lead.AssignedUserID

	if err := r.leads.SetAssignedUser(ctx, tx, input.LeadID, input.TenantID, &input.ToUserID); err != nil {
		return Event{}, fmt.Errorf("set assigned user: %w", err)
	}

	if _, err := r.leads.CreateAssignment(ctx, tx, leadsrepo.LeadAssignment{
		TenantID:       input.TenantID,
		LeadID:         input.LeadID,
		AssignedUserID: input.ToUserID,
		Reason:         assignmentReasonAuto,
	}); err != nil {
		return Event{}, fmt.Errorf("record assignment: %w", err)
	}

	var event Event
	err = tx.QueryRow(ctx, `
    INSERT INTO reassignment_events (tenant_id, lead_id, from_user_id, to_user_id, rule_id, reason)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id, tenant_id, lead_id, from_user_id, to_user_id, rule_id, reason, created_at
  `, input.TenantID, input.LeadID, fromUserID, input.ToUserID, input.RuleID, input.Reason).Scan(
		&event.ID,
		&event.TenantID,
		&event.LeadID,
		&event.FromUserID,
		&event.ToUserID,
		&event.RuleID,
		&event.Reason,
		&event.CreatedAt,
	)
	if err != nil {
		return Event{}, fmt.Errorf("record reassignment event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Event{}, fmt.Errorf("commit reassignment transaction: %w", err)
	}
	return event, nil
}

func (r *Repository) ListEvents(ctx context.Context, tenantID uuid.UUID, leadID *uuid.UUID) ([]Event, error) {
	query := `
    SELECT id, tenant_id, lead_id, from_user_id, to_user_id, rule_id, reason, created_at
    FROM reassignment_events
    WHERE tenant_id = $1
  `
	args := []interface{}{tenantID}
	if leadID != nil {
		args = append(args, *leadID)
		query += " AND lead_id = $2"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(
			&event.ID,
			&event.TenantID,
			&event.LeadID,
			&event.FromUserID,
			&event.ToUserID,
			&event.RuleID,
			&event.Reason,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *Repository) CreateNegligencePoint(ctx context.Context, point NegligencePoint) (NegligencePoint, error) {
	var created NegligencePoint
	err := r.pool.QueryRow(ctx, `
    INSERT INTO negligence_points (tenant_id, lead_id, user_id, points, reason)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id, tenant_id, lead_id, user_id, points, reason, created_at
  `, point.TenantID, point.LeadID, point.UserID, point.Points, point.Reason).Scan(
		&created.ID,
		&created.TenantID,
		&created.LeadID,
		&created.UserID,
		&created.Points,
		&created.Reason,
		&created.CreatedAt,
	)
	return created, err
}

func (r *Repository) ListNegligencePoints(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID) ([]NegligencePoint, error) {
	query := `
    SELECT id, tenant_id, lead_id, user_id, points, reason, created_at
    FROM negligence_points
    WHERE tenant_id = $1
  `
	args := []interface{}{tenantID}
	if userID != nil {
		args = append(args, *userID)
		query += " AND user_id = $2"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []NegligencePoint
	for rows.Next() {
		var point NegligencePoint
		if err := rows.Scan(
			&point.ID,
			&point.TenantID,
			&point.LeadID,
			&point.UserID,
			&point.Points,
			&point.Reason,
			&point.CreatedAt,
		); err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, rows.Err()
}

// SumNegligencePoints totals a user's accrued points. Exposed for
// reporting; no engine policy consumes the total.
func (r *Repository) SumNegligencePoints(ctx context.Context, tenantID, userID uuid.UUID) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
    SELECT COALESCE(SUM(points), 0)
    FROM negligence_points
    WHERE tenant_id = $1 AND user_id = $2
  `, tenantID, userID).Scan(&total)
	return total, err
}
