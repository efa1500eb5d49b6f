package auth

import (
	"context"
	"time"
)

// Store describes the persistence operations required by the subsystem.
// Implementations must guarantee per-record atomicity and enforce the
// active-name uniqueness constraints; nothing here needs a multi-record
// transaction.
type Store interface {
	Roles() RoleStore
	Accounts() AccountStore
	Sessions() SessionStore
}

// RoleStore manages role records.
type RoleStore interface {
	// Create persists a new role. Returns ErrConflict when an active role
	// already holds the same name.
	Create(ctx context.Context, role *Role) error
	// Find returns a role by id regardless of status.
	Find(ctx context.Context, id string) (*Role, error)
	// List returns active roles, optionally filtered by a case-insensitive
	// substring match on name.
	List(ctx context.Context, keyword string) ([]*Role, error)
	// Update rewrites name, authorities and update_time of an active role.
	// Returns ErrConflict on an active-name collision, ErrNotFound when no
	// active role has the id.
	Update(ctx context.Context, role *Role) error
	// SetStatus flips the soft-delete flag. Returns ErrNotFound when no
	// record with the id exists in any status.
	SetStatus(ctx context.Context, id string, status int) error
	// CountActive reports how many active roles exist.
	CountActive(ctx context.Context) (int64, error)
}

// AccountStore manages login identities.
type AccountStore interface {
	// Create persists a new account. Returns ErrConflict when an active
	// account already holds the username.
	Create(ctx context.Context, account *Account) error
	Find(ctx context.Context, id string) (*Account, error)
	FindActiveByUsername(ctx context.Context, username string) (*Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// SessionStore manages persisted login sessions.
type SessionStore interface {
	Create(ctx context.Context, rec *SessionRecord) error
	Find(ctx context.Context, id string) (*SessionRecord, error)
	Revoke(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, before time.Time) error
}
