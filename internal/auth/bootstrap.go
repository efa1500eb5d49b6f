package auth

import (
	"context"
	"errors"

	"meshstudio.org/internal/ids"
)

// Bootstrap defaults. The administrator role carries every catalog
// authority; the default credentials must be changed after first login.
const (
	AdministratorRoleName = "Administrator"

	DefaultAdminUsername = "admin"
	defaultAdminPassword = "123456"
)

// InitializeResult reports what Initialize did.
type InitializeResult struct {
	Created bool
	Message string
}

// Initialize seeds the default administrator role and account when no
// active role exists yet. It is idempotent: repeated calls, including two
// racing callers that both observed an empty system, all resolve to
// success. Arbitration relies on the storage uniqueness constraint for
// active role names, not on a lock.
func (s *Service) Initialize(ctx context.Context) (InitializeResult, error) {
	alreadyInitialized := InitializeResult{
		Created: false,
		Message: "System has already been initialized.",
	}

	initialized, err := s.Initialized(ctx)
	if err != nil {
		return InitializeResult{}, err
	}
	if initialized {
		return alreadyInitialized, nil
	}

	now := s.now().UTC()
	role := &Role{
		ID:          ids.New(),
		Name:        AdministratorRoleName,
		Authorities: AllAuthorityIDs(),
		CreateTime:  now,
		UpdateTime:  now,
		Status:      StatusActive,
	}
	if err := s.store.Roles().Create(ctx, role); err != nil {
		// A concurrent caller won the race; its seed is as good as ours.
		if errors.Is(err, ErrConflict) {
			return alreadyInitialized, nil
		}
		return InitializeResult{}, err
	}

	hash, err := HashPassword(defaultAdminPassword)
	if err != nil {
		return InitializeResult{}, err
	}
	account := &Account{
		ID:           ids.New(),
		Username:     DefaultAdminUsername,
		PasswordHash: hash,
		RoleID:       role.ID,
		CreateTime:   now,
		UpdateTime:   now,
		Status:       StatusActive,
	}
	if err := s.store.Accounts().Create(ctx, account); err != nil && !errors.Is(err, ErrConflict) {
		return InitializeResult{}, err
	}

	return InitializeResult{
		Created: true,
		Message: "Initialize successfully. Default account: admin, please change the password.",
	}, nil
}
