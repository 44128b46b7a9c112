// Package directory is the cross-module account lookup port of the
// identity context. It is a leaf package so the identity service and its
// consumers can share these types without importing the module wiring.
package directory

import (
	"context"

	"github.com/google/uuid"
)

// Account is the cross-module view of a user account. Permissions are
// resolved (role grants plus allow overrides minus deny overrides).
type Account struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Email        string
	FullName     string
	PasswordHash string
	Status       string
	Roles        []string
	Permissions  []string
}

// Directory is implemented by the identity service. Other domains depend
// on this interface, not on the concrete service.
type Directory interface {
	// GetAccountByEmail returns the account for a login email, any tenant.
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
	// GetAccountByID returns the account for a user ID.
	GetAccountByID(ctx context.Context, userID uuid.UUID) (Account, error)
}
