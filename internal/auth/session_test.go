package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoginRequiresInitialization(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Login(ctx, DefaultAdminUsername, "123456"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("login before initialize: got %v, want ErrNotInitialized", err)
	}
}

func TestLoginAndResolve(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	token, account, err := svc.Login(ctx, DefaultAdminUsername, "123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if account.Username != DefaultAdminUsername {
		t.Fatalf("account = %q", account.Username)
	}
	if !strings.Contains(token, ".") {
		t.Fatalf("token %q is not id.secret", token)
	}

	session, err := svc.ResolveSession(ctx, token)
	if err != nil {
		t.Fatalf("ResolveSession: %v", err)
	}
	if !session.Authenticated {
		t.Fatal("resolved session must be authenticated")
	}
	if session.Username != DefaultAdminUsername {
		t.Fatalf("session username = %q", session.Username)
	}
	if !session.HasAuthority(AuthorityAddRole) {
		t.Fatal("administrator must hold ADD_ROLE")
	}
	if session.HasAuthority("NO_SUCH_AUTHORITY") {
		t.Fatal("unknown authority must not be granted")
	}
}

func TestLoginWrongCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	cases := []struct{ username, password string }{
		{DefaultAdminUsername, "wrong"},
		{"nobody", "123456"},
		{"", "123456"},
		{DefaultAdminUsername, ""},
	}
	for _, tc := range cases {
		if _, _, err := svc.Login(ctx, tc.username, tc.password); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("Login(%q, %q): got %v, want ErrUnauthorized", tc.username, tc.password, err)
		}
	}
}

func TestResolveSessionFailsClosed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	token, _, err := svc.Login(ctx, DefaultAdminUsername, "123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	for _, raw := range []string{"", "garbage", "one.two.three", ".", "id.", ".secret"} {
		session, err := svc.ResolveSession(ctx, raw)
		if err != nil {
			t.Fatalf("ResolveSession(%q): %v", raw, err)
		}
		if session.Authenticated {
			t.Fatalf("malformed token %q must resolve anonymous", raw)
		}
	}

	// Valid id, wrong secret.
	id, _, _ := splitSessionToken(token)
	session, err := svc.ResolveSession(ctx, id+".forgedsecret")
	if err != nil {
		t.Fatalf("ResolveSession: %v", err)
	}
	if session.Authenticated {
		t.Fatal("forged secret must resolve anonymous")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	token, _, err := svc.Login(ctx, DefaultAdminUsername, "123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	session, err := svc.ResolveSession(ctx, token)
	if err != nil {
		t.Fatalf("ResolveSession: %v", err)
	}
	if session.Authenticated {
		t.Fatal("revoked session must resolve anonymous")
	}

	// Retry and garbage are both no-ops.
	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("repeat Logout: %v", err)
	}
	if err := svc.Logout(ctx, "not-a-token"); err != nil {
		t.Fatalf("garbage Logout: %v", err)
	}
}

func TestSessionExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc, _ := newTestService(t, WithClock(clock), WithSessionTTL(time.Hour))
	ctx := context.Background()

	if _, err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	token, _, err := svc.Login(ctx, DefaultAdminUsername, "123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	now = now.Add(30 * time.Minute)
	if session, _ := svc.ResolveSession(ctx, token); !session.Authenticated {
		t.Fatal("session must still be valid before TTL")
	}

	now = now.Add(31 * time.Minute)
	if session, _ := svc.ResolveSession(ctx, token); session.Authenticated {
		t.Fatal("session must expire after TTL")
	}
}

// Deleting a role strips authorities from sessions on their next resolution
// without touching the accounts that reference it.
func TestRoleDeletionDegradesSession(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	token, account, err := svc.Login(ctx, DefaultAdminUsername, "123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := store.Roles().SetStatus(ctx, account.RoleID, StatusDeleted); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	session, err := svc.ResolveSession(ctx, token)
	if err != nil {
		t.Fatalf("ResolveSession: %v", err)
	}
	if !session.Authenticated {
		t.Fatal("account stays authenticated after role deletion")
	}
	for _, id := range AllAuthorityIDs() {
		if session.HasAuthority(id) {
			t.Fatalf("deleted role must grant nothing, still has %s", id)
		}
	}
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "carol", "pw"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("register before initialize: got %v", err)
	}
	if _, err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if _, err := svc.Register(ctx, "", "pw"); !errors.Is(err, ErrNameEmpty) {
		t.Fatalf("empty username: got %v", err)
	}
	if _, err := svc.Register(ctx, "_carol", "pw"); !errors.Is(err, ErrNameReserved) {
		t.Fatalf("reserved username: got %v", err)
	}
	if _, err := svc.Register(ctx, "carol", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty password: got %v", err)
	}

	account, err := svc.Register(ctx, "carol", "secret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if account.RoleID != "" {
		t.Fatal("self-registered account must have no role")
	}
	if _, err := svc.Register(ctx, "carol", "secret"); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate username: got %v", err)
	}

	// A roleless account can log in but holds no authorities.
	token, _, err := svc.Login(ctx, "carol", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	session, err := svc.ResolveSession(ctx, token)
	if err != nil {
		t.Fatalf("ResolveSession: %v", err)
	}
	if !session.Authenticated || session.HasAuthority(AuthorityListRole) {
		t.Fatalf("session = %+v", session)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	_, account, err := svc.Login(ctx, DefaultAdminUsername, "123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.ChangePassword(ctx, account.ID, "wrong", "next"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("wrong old password: got %v", err)
	}
	if err := svc.ChangePassword(ctx, account.ID, "123456", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty new password: got %v", err)
	}
	if err := svc.ChangePassword(ctx, account.ID, "123456", "stronger"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, _, err := svc.Login(ctx, DefaultAdminUsername, "123456"); !errors.Is(err, ErrUnauthorized) {
		t.Fatal("old password must stop working")
	}
	if _, _, err := svc.Login(ctx, DefaultAdminUsername, "stronger"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestMenuStateFor(t *testing.T) {
	authed := NewSession(&Account{ID: "a1", Username: "admin"}, nil)

	cases := []struct {
		initialized bool
		session     Session
		want        MenuState
		str         string
	}{
		{false, Anonymous(), MenuUninitialized, "uninitialized"},
		{false, authed, MenuUninitialized, "uninitialized"},
		{true, Anonymous(), MenuAnonymous, "anonymous"},
		{true, authed, MenuAuthenticated, "authenticated"},
	}
	for _, tc := range cases {
		got := MenuStateFor(tc.initialized, tc.session)
		if got != tc.want {
			t.Fatalf("MenuStateFor(%v, auth=%v) = %v, want %v", tc.initialized, tc.session.Authenticated, got, tc.want)
		}
		if got.String() != tc.str {
			t.Fatalf("String() = %q, want %q", got.String(), tc.str)
		}
	}
}
