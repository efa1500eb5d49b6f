package auth

import (
	"context"
	"fmt"
	"testing"
)

func TestInitializeSeedsDefaults(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	initialized, err := svc.Initialized(ctx)
	if err != nil {
		t.Fatalf("Initialized: %v", err)
	}
	if initialized {
		t.Fatal("fresh system must not report initialized")
	}

	res, err := svc.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !res.Created {
		t.Fatal("first Initialize must create the seed")
	}

	initialized, err = svc.Initialized(ctx)
	if err != nil {
		t.Fatalf("Initialized: %v", err)
	}
	if !initialized {
		t.Fatal("system must report initialized after seed")
	}

	roles, err := svc.ListRoles(ctx, "")
	if err != nil {
		t.Fatalf("ListRoles: %v", err)
	}
	if len(roles) != 1 || roles[0].Name != AdministratorRoleName {
		t.Fatalf("roles after seed = %v", roles)
	}
	if len(roles[0].Authorities) != len(Catalog()) {
		t.Fatalf("administrator must hold every authority, got %d", len(roles[0].Authorities))
	}

	admin, err := store.Accounts().FindActiveByUsername(ctx, DefaultAdminUsername)
	if err != nil {
		t.Fatalf("admin account missing: %v", err)
	}
	if admin.RoleID != roles[0].ID {
		t.Fatal("admin account must reference the administrator role")
	}
	if err := VerifyPassword(admin.PasswordHash, defaultAdminPassword); err != nil {
		t.Fatal("admin account must carry the default password")
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Initialize(ctx); err != nil {
		t.Fatalf("first Initialize: %v", err)
	}
	res, err := svc.Initialize(ctx)
	if err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if res.Created {
		t.Fatal("second Initialize must be a no-op")
	}
	if res.Message != "System has already been initialized." {
		t.Fatalf("message = %q", res.Message)
	}

	roles, err := store.Roles().List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(roles) != 1 {
		t.Fatalf("seed must exist exactly once, got %d roles", len(roles))
	}
}

// conflictOnCreateStore simulates losing the bootstrap race: the emptiness
// check passes but the seed insert hits the uniqueness constraint because a
// concurrent caller committed first.
type conflictOnCreateStore struct {
	Store
}

func (s *conflictOnCreateStore) Roles() RoleStore {
	return &conflictOnCreateRoles{RoleStore: s.Store.Roles()}
}

type conflictOnCreateRoles struct {
	RoleStore
}

func (r *conflictOnCreateRoles) Create(context.Context, *Role) error {
	return fmt.Errorf("%w: role %s", ErrConflict, AdministratorRoleName)
}

func TestInitializeRaceLoserSucceeds(t *testing.T) {
	store := &conflictOnCreateStore{Store: NewMemoryStore()}
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	res, err := svc.Initialize(context.Background())
	if err != nil {
		t.Fatalf("race loser must not error: %v", err)
	}
	if res.Created {
		t.Fatal("race loser must not report creation")
	}
	if res.Message != "System has already been initialized." {
		t.Fatalf("message = %q", res.Message)
	}
}
