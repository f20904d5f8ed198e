package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root persistence port. Drivers (sqlite, mysql) implement it and
// expose one sub-repository per entity kind. Sub-repositories obtained from a
// Tx run inside that transaction; the root Store's run on the pool.
type Store interface {
	Clients() Clients
	APIScopes() Resources
	IdentityResources() Resources
	Roles() Roles
	RoleClaims() RoleClaims
	Users() Users
	UserClaims() UserClaims
	UserRoles() UserRoles

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise. Nested transactions are not supported.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying connection pool.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Clients interface {
	CountClients(ctx context.Context) (int, error)

	// ListClients returns every client with its child collections, ordered by client_id.
	ListClients(ctx context.Context) ([]domain.Client, error)

	// GetClientByClientID loads a client and its child collections.
	GetClientByClientID(ctx context.Context, clientID string) (domain.Client, error)

	// CreateClient inserts the client row and every child collection.
	CreateClient(ctx context.Context, c domain.Client) error

	// UpdateClient overwrites the scalar fields of the row keyed by c.ID.
	UpdateClient(ctx context.Context, c domain.Client) error

	// ReplaceClientChildren clears and re-inserts every child collection of c.
	ReplaceClientChildren(ctx context.Context, c domain.Client) error

	// DeleteClient cascades to child collections (per schema).
	DeleteClient(ctx context.Context, id string) error

	// DeleteExpiredSecrets removes secrets whose expiration is at or before now.
	DeleteExpiredSecrets(ctx context.Context, now time.Time) (int64, error)
}

// Resources stores API scopes and identity resources; each driver hands out
// one instance per kind over the same table.
type Resources interface {
	CountResources(ctx context.Context) (int, error)
	ListResources(ctx context.Context) ([]domain.Resource, error)
	GetResourceByName(ctx context.Context, name string) (domain.Resource, error)

	// CreateResource inserts the resource with its user claims and properties.
	CreateResource(ctx context.Context, r domain.Resource) error

	// UpdateResource overwrites scalar fields only.
	UpdateResource(ctx context.Context, r domain.Resource) error

	AddResourceClaims(ctx context.Context, resourceID string, claimTypes []string) error
	RemoveResourceClaims(ctx context.Context, resourceID string, claimTypes []string) error
	AddResourceProperties(ctx context.Context, resourceID string, props []domain.Property) error
	RemoveResourceProperties(ctx context.Context, resourceID string, keys []string) error

	DeleteResource(ctx context.Context, id string) error
}

type Roles interface {
	CountRoles(ctx context.Context) (int, error)
	ListRoles(ctx context.Context) ([]domain.Role, error)
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)

	// GetRoleByNormalizedName matches against the upper-cased name column.
	GetRoleByNormalizedName(ctx context.Context, normalized string) (domain.Role, error)

	CreateRole(ctx context.Context, r domain.Role) error
	UpdateRole(ctx context.Context, r domain.Role) error

	// DeleteRole cascades to role claims and memberships (per schema).
	DeleteRole(ctx context.Context, id string) error
}

type RoleClaims interface {
	CountRoleClaims(ctx context.Context) (int, error)
	ListRoleClaims(ctx context.Context, roleID string) ([]domain.RoleClaim, error)
	CreateRoleClaim(ctx context.Context, rc domain.RoleClaim) error

	// DeleteRoleClaim removes every row of roleID matching the claim's type and value.
	DeleteRoleClaim(ctx context.Context, roleID string, c domain.Claim) error
}

type Users interface {
	CountUsers(ctx context.Context) (int, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByNormalizedUserName(ctx context.Context, normalized string) (domain.User, error)

	// GetUserByNormalizedEmail returns the oldest user with the email.
	GetUserByNormalizedEmail(ctx context.Context, normalized string) (domain.User, error)

	CreateUser(ctx context.Context, u domain.User) error
	UpdateUser(ctx context.Context, u domain.User) error

	// DeleteUser cascades to user claims and memberships (per schema).
	DeleteUser(ctx context.Context, id string) error
}

type UserClaims interface {
	CountUserClaims(ctx context.Context) (int, error)
	ListUserClaims(ctx context.Context, userID string) ([]domain.UserClaim, error)
	CreateUserClaim(ctx context.Context, uc domain.UserClaim) error
	DeleteUserClaim(ctx context.Context, userID string, c domain.Claim) error
}

type UserRoles interface {
	CountUserRoles(ctx context.Context) (int, error)
	ListUserRoles(ctx context.Context, userID string) ([]domain.UserRole, error)
	CreateUserRole(ctx context.Context, ur domain.UserRole) error
	DeleteUserRole(ctx context.Context, userID, roleID string) error
}
