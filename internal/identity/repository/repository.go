package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so repository methods
// can run inside or outside a transaction.
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

// Pool exposes the underlying pool for transaction management in services.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

type Tenant struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	Phone        *string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Role struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
}

type Permission struct {
	ID          uuid.UUID
	Key         string
	Description string
}

// Override effect values for user_permission_overrides.
const (
	OverrideAllow = "allow"
	OverrideDeny  = "deny"
)

type PermissionOverride struct {
	PermissionKey string
	Effect        string
}

const listUsersByTenantQuery = `
    SELECT id, tenant_id, email, password_hash, full_name, phone, status, created_at, updated_at
    FROM users
    WHERE tenant_id = $1
    ORDER BY created_at ASC, id ASC
`

const resolvePermissionsQuery = `
    SELECT p.key
    FROM permissions p
    JOIN role_permissions rp ON rp.permission_id = p.id
    JOIN user_roles ur ON ur.role_id = rp.role_id
    WHERE ur.user_id = $1
    UNION
    SELECT p.key
    FROM permissions p
    JOIN user_permission_overrides po ON po.permission_id = p.id
    WHERE po.user_id = $1 AND po.effect = 'allow'
    EXCEPT
    SELECT p.key
    FROM permissions p
    JOIN user_permission_overrides po ON po.permission_id = p.id
    WHERE po.user_id = $1 AND po.effect = 'deny'
    ORDER BY 1
`

func (r *Repository) CreateTenant(ctx context.Context, q DBTX, name string) (Tenant, error) {
	var tenant Tenant
	err := q.QueryRow(ctx, `
    INSERT INTO tenants (name)
    VALUES ($1)
    RETURNING id, name, created_at, updated_at
  `, name).Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt, &tenant.UpdatedAt)
	return tenant, err
}

func (r *Repository) GetTenant(ctx context.Context, tenantID uuid.UUID) (Tenant, error) {
	var tenant Tenant
	err := r.pool.QueryRow(ctx, `
    SELECT id, name, created_at, updated_at
    FROM tenants
    WHERE id = $1
  `, tenantID).Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt, &tenant.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tenant{}, ErrNotFound
	}
	return tenant, err
}

func (r *Repository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM tenants ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) CreateUser(ctx context.Context, q DBTX, user User) (User, error) {
	var created User
	err := q.QueryRow(ctx, `
    INSERT INTO users (tenant_id, email, password_hash, full_name, phone, status)
    VALUES ($1, lower($2), $3, $4, $5, $6)
    RETURNING id, tenant_id, email, password_hash, full_name, phone, status, created_at, updated_at
  `, user.TenantID, user.Email, user.PasswordHash, user.FullName, user.Phone, user.Status).Scan(
		&created.ID,
		&created.TenantID,
		&created.Email,
		&created.PasswordHash,
		&created.FullName,
		&created.Phone,
		&created.Status,
		&created.CreatedAt,
		&created.UpdatedAt,
	)
	return created, err
}

func (r *Repository) GetUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `
    SELECT id, tenant_id, email, password_hash, full_name, phone, status, created_at, updated_at
    FROM users
    WHERE id = $1
  `, userID))
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `
    SELECT id, tenant_id, email, password_hash, full_name, phone, status, created_at, updated_at
    FROM users
    WHERE email = lower($1)
  `, email))
}

func (r *Repository) ListUsersByTenant(ctx context.Context, tenantID uuid.UUID) ([]User, error) {
	rows, err := r.pool.Query(ctx, listUsersByTenantQuery, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(
			&user.ID,
			&user.TenantID,
			&user.Email,
			&user.PasswordHash,
			&user.FullName,
			&user.Phone,
			&user.Status,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *Repository) UpdateUserStatus(ctx context.Context, userID, tenantID uuid.UUID, status string) (User, error) {
	user, err := r.scanUser(r.pool.QueryRow(ctx, `
    UPDATE users
    SET status = $3, updated_at = now()
    WHERE id = $1 AND tenant_id = $2
    RETURNING id, tenant_id, email, password_hash, full_name, phone, status, created_at, updated_at
  `, userID, tenantID, status))
	return user, err
}

func (r *Repository) scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.TenantID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Phone,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

func (r *Repository) CreateRole(ctx context.Context, q DBTX, tenantID uuid.UUID, name string) (Role, error) {
	var role Role
	err := q.QueryRow(ctx, `
    INSERT INTO roles (tenant_id, name)
    VALUES ($1, $2)
    RETURNING id, tenant_id, name
  `, tenantID, name).Scan(&role.ID, &role.TenantID, &role.Name)
	return role, err
}

func (r *Repository) ListRolesByTenant(ctx context.Context, tenantID uuid.UUID) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `
    SELECT id, tenant_id, name
    FROM roles
    WHERE tenant_id = $1
    ORDER BY name ASC
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.TenantID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *Repository) GetRoleByName(ctx context.Context, q DBTX, tenantID uuid.UUID, name string) (Role, error) {
	var role Role
	err := q.QueryRow(ctx, `
    SELECT id, tenant_id, name
    FROM roles
    WHERE tenant_id = $1 AND name = $2
  `, tenantID, name).Scan(&role.ID, &role.TenantID, &role.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrNotFound
	}
	return role, err
}

func (r *Repository) ListUserRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
    SELECT r.name
    FROM roles r
    JOIN user_roles ur ON ur.role_id = r.id
    WHERE ur.user_id = $1
    ORDER BY r.name ASC
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ReplaceUserRoles swaps the full role assignment set for a user.
func (r *Repository) ReplaceUserRoles(ctx context.Context, q DBTX, userID uuid.UUID, roleIDs []uuid.UUID) error {
	if _, err := q.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := q.Exec(ctx, `
      INSERT INTO user_roles (user_id, role_id)
      VALUES ($1, $2)
    `, userID, roleID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
    SELECT id, key, description
    FROM permissions
    ORDER BY key ASC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Key, &perm.Description); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

func (r *Repository) GetPermissionByKey(ctx context.Context, key string) (Permission, error) {
	var perm Permission
	err := r.pool.QueryRow(ctx, `
    SELECT id, key, description
    FROM permissions
    WHERE key = $1
  `, key).Scan(&perm.ID, &perm.Key, &perm.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, ErrNotFound
	}
	return perm, err
}

// ReplaceRolePermissions swaps the full permission grant set for a role.
func (r *Repository) ReplaceRolePermissions(ctx context.Context, q DBTX, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	if _, err := q.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return err
	}
	for _, permissionID := range permissionIDs {
		if _, err := q.Exec(ctx, `
      INSERT INTO role_permissions (role_id, permission_id)
      VALUES ($1, $2)
    `, roleID, permissionID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) UpsertPermissionOverride(ctx context.Context, userID, permissionID uuid.UUID, effect string) error {
	_, err := r.pool.Exec(ctx, `
    INSERT INTO user_permission_overrides (user_id, permission_id, effect)
    VALUES ($1, $2, $3)
    ON CONFLICT (user_id, permission_id) DO UPDATE SET effect = EXCLUDED.effect
  `, userID, permissionID, effect)
	return err
}

func (r *Repository) DeletePermissionOverride(ctx context.Context, userID, permissionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
    DELETE FROM user_permission_overrides
    WHERE user_id = $1 AND permission_id = $2
  `, userID, permissionID)
	return err
}

func (r *Repository) ListPermissionOverrides(ctx context.Context, userID uuid.UUID) ([]PermissionOverride, error) {
	rows, err := r.pool.Query(ctx, `
    SELECT p.key, po.effect
    FROM user_permission_overrides po
    JOIN permissions p ON p.id = po.permission_id
    WHERE po.user_id = $1
    ORDER BY p.key ASC
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []PermissionOverride
	for rows.Next() {
		var override PermissionOverride
		if err := rows.Scan(&override.PermissionKey, &override.Effect); err != nil {
			return nil, err
		}
		overrides = append(overrides, override)
	}
	return overrides, rows.Err()
}

// ResolvePermissions computes the effective permission keys for a user:
// role grants plus allow overrides minus deny overrides.
func (r *Repository) ResolvePermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, resolvePermissionsQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
