package service

import (
	"context"
	"fmt"
	"strings"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/identity/directory"
	"leadflow_backend/internal/identity/repository"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/phone"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	userNotFound   = "user not found"
	tenantNotFound = "tenant not found"
	roleNotFound   = "role not found"

	// UserStatusActive marks a user as eligible for assignment and login.
	UserStatusActive = "active"
	// UserStatusInactive excludes a user from login and lead assignment.
	UserStatusInactive = "inactive"

	defaultPhoneRegion = "US"
)

// Built-in role names seeded for every tenant.
var builtinRoles = []string{"admin", "manager", "agent"}

type Service struct {
	repo     *repository.Repository
	eventBus events.Bus
}

func New(repo *repository.Repository, eventBus events.Bus) *Service {
	return &Service{repo: repo, eventBus: eventBus}
}

type CreateTenantInput struct {
	Name          string
	AdminEmail    string
	AdminPassword string
	AdminFullName string
}

type CreateTenantResult struct {
	Tenant repository.Tenant
	Admin  repository.User
}

// CreateTenant provisions a tenant with its built-in roles and an initial
// admin user in a single transaction.
func (s *Service) CreateTenant(ctx context.Context, input CreateTenantInput) (CreateTenantResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return CreateTenantResult{}, apperr.Validation("tenant name is required")
	}

	passwordHash, err := hashPassword(input.AdminPassword)
	if err != nil {
		return CreateTenantResult{}, err
	}

	tx, err := s.repo.Pool().Begin(ctx)
	if err != nil {
		return CreateTenantResult{}, fmt.Errorf("begin tenant transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tenant, err := s.repo.CreateTenant(ctx, tx, name)
	if err != nil {
		return CreateTenantResult{}, fmt.Errorf("create tenant: %w", err)
	}

	var adminRoleID uuid.UUID
	for _, roleName := range builtinRoles {
		role, err := s.repo.CreateRole(ctx, tx, tenant.ID, roleName)
		if err != nil {
			return CreateTenantResult{}, fmt.Errorf("seed role %s: %w", roleName, err)
		}
		if roleName == "admin" {
			adminRoleID = role.ID
		}
	}

	admin, err := s.repo.CreateUser(ctx, tx, repository.User{
		TenantID:     tenant.ID,
		Email:        strings.ToLower(strings.TrimSpace(input.AdminEmail)),
		PasswordHash: passwordHash,
		FullName:     strings.TrimSpace(input.AdminFullName),
		Status:       UserStatusActive,
	})
	if err != nil {
		return CreateTenantResult{}, fmt.Errorf("create admin user: %w", err)
	}

	if err := s.repo.ReplaceUserRoles(ctx, tx, admin.ID, []uuid.UUID{adminRoleID}); err != nil {
		return CreateTenantResult{}, fmt.Errorf("assign admin role: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return CreateTenantResult{}, fmt.Errorf("commit tenant transaction: %w", err)
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.TenantCreated{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  tenant.ID,
			Name:      tenant.Name,
			CreatedBy: admin.ID,
		})
	}

	return CreateTenantResult{Tenant: tenant, Admin: admin}, nil
}

func (s *Service) GetTenant(ctx context.Context, tenantID uuid.UUID) (repository.Tenant, error) {
	tenant, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.Tenant{}, apperr.NotFound(tenantNotFound)
		}
		return repository.Tenant{}, err
	}
	return tenant, nil
}

func (s *Service) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.repo.ListTenantIDs(ctx)
}

type CreateUserInput struct {
	TenantID uuid.UUID
	Email    string
	Password string
	FullName string
	Phone    *string
	Roles    []string
}

func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (repository.User, error) {
	passwordHash, err := hashPassword(input.Password)
	if err != nil {
		return repository.User{}, err
	}

	var normalizedPhone *string
	if input.Phone != nil && strings.TrimSpace(*input.Phone) != "" {
		normalized := phone.NormalizeE164(*input.Phone, defaultPhoneRegion)
		normalizedPhone = &normalized
	}

	roleIDs, err := s.resolveRoleIDs(ctx, input.TenantID, input.Roles)
	if err != nil {
		return repository.User{}, err
	}

	tx, err := s.repo.Pool().Begin(ctx)
	if err != nil {
		return repository.User{}, fmt.Errorf("begin user transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user, err := s.repo.CreateUser(ctx, tx, repository.User{
		TenantID:     input.TenantID,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: passwordHash,
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        normalizedPhone,
		Status:       UserStatusActive,
	})
	if err != nil {
		return repository.User{}, fmt.Errorf("create user: %w", err)
	}

	if len(roleIDs) > 0 {
		if err := s.repo.ReplaceUserRoles(ctx, tx, user.ID, roleIDs); err != nil {
			return repository.User{}, fmt.Errorf("assign user roles: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return repository.User{}, fmt.Errorf("commit user transaction: %w", err)
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.UserCreated{
			BaseEvent: events.NewBaseEvent(),
			UserID:    user.ID,
			TenantID:  user.TenantID,
			Email:     user.Email,
			Roles:     input.Roles,
		})
	}

	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, tenantID uuid.UUID) ([]repository.User, error) {
	return s.repo.ListUsersByTenant(ctx, tenantID)
}

func (s *Service) GetUser(ctx context.Context, userID, tenantID uuid.UUID) (repository.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.User{}, apperr.NotFound(userNotFound)
		}
		return repository.User{}, err
	}
	if user.TenantID != tenantID {
		return repository.User{}, apperr.NotFound(userNotFound)
	}
	return user, nil
}

// UpdateUserStatus flips a user between active and inactive and publishes
// UserStatusChanged so the auth cache entry is invalidated.
func (s *Service) UpdateUserStatus(ctx context.Context, userID, tenantID, actorID uuid.UUID, status string) (repository.User, error) {
	if status != UserStatusActive && status != UserStatusInactive {
		return repository.User{}, apperr.Validation("status must be active or inactive")
	}

	current, err := s.GetUser(ctx, userID, tenantID)
	if err != nil {
		return repository.User{}, err
	}
	if current.Status == status {
		return current, nil
	}

	updated, err := s.repo.UpdateUserStatus(ctx, userID, tenantID, status)
	if err != nil {
		if err == repository.ErrNotFound {
			return repository.User{}, apperr.NotFound(userNotFound)
		}
		return repository.User{}, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.UserStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			UserID:    updated.ID,
			TenantID:  updated.TenantID,
			OldStatus: current.Status,
			NewStatus: updated.Status,
			ChangedBy: actorID,
		})
	}

	return updated, nil
}

// ReplaceUserRoles swaps a user's role set and publishes UserRolesChanged.
func (s *Service) ReplaceUserRoles(ctx context.Context, userID, tenantID uuid.UUID, roleNames []string) error {
	if _, err := s.GetUser(ctx, userID, tenantID); err != nil {
		return err
	}

	roleIDs, err := s.resolveRoleIDs(ctx, tenantID, roleNames)
	if err != nil {
		return err
	}

	tx, err := s.repo.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin roles transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.repo.ReplaceUserRoles(ctx, tx, userID, roleIDs); err != nil {
		return fmt.Errorf("replace user roles: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit roles transaction: %w", err)
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.UserRolesChanged{
			BaseEvent: events.NewBaseEvent(),
			UserID:    userID,
			TenantID:  tenantID,
			Roles:     roleNames,
		})
	}

	return nil
}

func (s *Service) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]repository.Role, error) {
	return s.repo.ListRolesByTenant(ctx, tenantID)
}

func (s *Service) CreateRole(ctx context.Context, tenantID uuid.UUID, name string) (repository.Role, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return repository.Role{}, apperr.Validation("role name is required")
	}
	return s.repo.CreateRole(ctx, s.repo.Pool(), tenantID, trimmed)
}

// ReplaceRolePermissions swaps a role's grant set by permission key.
func (s *Service) ReplaceRolePermissions(ctx context.Context, tenantID uuid.UUID, roleName string, permissionKeys []string) error {
	role, err := s.repo.GetRoleByName(ctx, s.repo.Pool(), tenantID, roleName)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.NotFound(roleNotFound)
		}
		return err
	}

	permissionIDs := make([]uuid.UUID, 0, len(permissionKeys))
	for _, key := range permissionKeys {
		perm, err := s.repo.GetPermissionByKey(ctx, key)
		if err != nil {
			if err == repository.ErrNotFound {
				return apperr.Validation("unknown permission: " + key)
			}
			return err
		}
		permissionIDs = append(permissionIDs, perm.ID)
	}

	tx, err := s.repo.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin permissions transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.repo.ReplaceRolePermissions(ctx, tx, role.ID, permissionIDs); err != nil {
		return fmt.Errorf("replace role permissions: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Service) ListPermissions(ctx context.Context) ([]repository.Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// SetPermissionOverride grants or denies a single permission for a user,
// overriding their role grants.
func (s *Service) SetPermissionOverride(ctx context.Context, userID, tenantID uuid.UUID, permissionKey, effect string) error {
	if effect != repository.OverrideAllow && effect != repository.OverrideDeny {
		return apperr.Validation("effect must be allow or deny")
	}
	if _, err := s.GetUser(ctx, userID, tenantID); err != nil {
		return err
	}

	perm, err := s.repo.GetPermissionByKey(ctx, permissionKey)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.Validation("unknown permission: " + permissionKey)
		}
		return err
	}

	return s.repo.UpsertPermissionOverride(ctx, userID, perm.ID, effect)
}

func (s *Service) ClearPermissionOverride(ctx context.Context, userID, tenantID uuid.UUID, permissionKey string) error {
	if _, err := s.GetUser(ctx, userID, tenantID); err != nil {
		return err
	}

	perm, err := s.repo.GetPermissionByKey(ctx, permissionKey)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.Validation("unknown permission: " + permissionKey)
		}
		return err
	}

	return s.repo.DeletePermissionOverride(ctx, userID, perm.ID)
}

func (s *Service) ListPermissionOverrides(ctx context.Context, userID, tenantID uuid.UUID) ([]repository.PermissionOverride, error) {
	if _, err := s.GetUser(ctx, userID, tenantID); err != nil {
		return nil, err
	}
	return s.repo.ListPermissionOverrides(ctx, userID)
}

// GetAccountByEmail implements directory.Directory for the auth module.
func (s *Service) GetAccountByEmail(ctx context.Context, email string) (directory.Account, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if err == repository.ErrNotFound {
			return directory.Account{}, apperr.NotFound(userNotFound)
		}
		return directory.Account{}, err
	}
	return s.buildAccount(ctx, user)
}

// GetAccountByID implements directory.Directory.
func (s *Service) GetAccountByID(ctx context.Context, userID uuid.UUID) (directory.Account, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return directory.Account{}, apperr.NotFound(userNotFound)
		}
		return directory.Account{}, err
	}
	return s.buildAccount(ctx, user)
}

func (s *Service) buildAccount(ctx context.Context, user repository.User) (directory.Account, error) {
	roles, err := s.repo.ListUserRoleNames(ctx, user.ID)
	if err != nil {
		return directory.Account{}, fmt.Errorf("list user roles: %w", err)
	}
	permissions, err := s.repo.ResolvePermissions(ctx, user.ID)
	if err != nil {
		return directory.Account{}, fmt.Errorf("resolve permissions: %w", err)
	}

	return directory.Account{
		ID:           user.ID,
		TenantID:     user.TenantID,
		Email:        user.Email,
		FullName:     user.FullName,
		PasswordHash: user.PasswordHash,
		Status:       user.Status,
		Roles:        roles,
		Permissions:  permissions,
	}, nil
}

func (s *Service) resolveRoleIDs(ctx context.Context, tenantID uuid.UUID, roleNames []string) ([]uuid.UUID, error) {
	roleIDs := make([]uuid.UUID, 0, len(roleNames))
	for _, name := range roleNames {
		role, err := s.repo.GetRoleByName(ctx, s.repo.Pool(), tenantID, name)
		if err != nil {
			if err == repository.ErrNotFound {
				return nil, apperr.Validation("unknown role: " + name)
			}
			return nil, err
		}
		roleIDs = append(roleIDs, role.ID)
	}
	return roleIDs, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", apperr.Validation("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

var _ directory.Directory = (*Service)(nil)
