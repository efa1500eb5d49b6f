package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestServiceTokensDisabledByDefault(t *testing.T) {
	svc, _ := newTestService(t)
	if svc.SupportsServiceTokens() {
		t.Fatal("tokens must be disabled without a secret")
	}
	if _, _, err := svc.IssueServiceToken("acct", time.Minute); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("issue without secret: got %v", err)
	}
}

func TestServiceTokenRoundTrip(t *testing.T) {
	svc, _ := newTestService(t, WithTokenSecret("test-secret"))
	ctx := context.Background()

	if _, err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	_, account, err := svc.Login(ctx, DefaultAdminUsername, "123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	token, expiresAt, err := svc.IssueServiceToken(account.ID, 10*time.Minute)
	if err != nil {
		t.Fatalf("IssueServiceToken: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expiresAt = %v", expiresAt)
	}

	session, err := svc.AuthenticateServiceToken(ctx, token)
	if err != nil {
		t.Fatalf("AuthenticateServiceToken: %v", err)
	}
	if !session.Authenticated || session.AccountID != account.ID {
		t.Fatalf("session = %+v", session)
	}
	if !session.HasAuthority(AuthorityListRole) {
		t.Fatal("token session must carry the account's current authorities")
	}
}

func TestServiceTokenRejectsForgeries(t *testing.T) {
	svc, _ := newTestService(t, WithTokenSecret("test-secret"))
	ctx := context.Background()

	if _, err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	_, account, err := svc.Login(ctx, DefaultAdminUsername, "123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	token, _, err := svc.IssueServiceToken(account.ID, 10*time.Minute)
	if err != nil {
		t.Fatalf("IssueServiceToken: %v", err)
	}

	other, _ := newTestService(t, WithTokenSecret("different-secret"))
	if _, err := other.AuthenticateServiceToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: got %v", err)
	}
	if _, err := svc.AuthenticateServiceToken(ctx, "not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token: got %v", err)
	}
}

func TestServiceTokenExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc, _ := newTestService(t, WithTokenSecret("test-secret"), WithClock(clock))
	ctx := context.Background()

	if _, err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	_, account, err := svc.Login(ctx, DefaultAdminUsername, "123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	token, _, err := svc.IssueServiceToken(account.ID, 5*time.Minute)
	if err != nil {
		t.Fatalf("IssueServiceToken: %v", err)
	}

	if _, err := svc.AuthenticateServiceToken(ctx, token); err != nil {
		t.Fatalf("fresh token: %v", err)
	}

	now = now.Add(6 * time.Minute)
	if _, err := svc.AuthenticateServiceToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: got %v", err)
	}
}

func TestIssueServiceTokenValidation(t *testing.T) {
	svc, _ := newTestService(t, WithTokenSecret("test-secret"))

	if _, _, err := svc.IssueServiceToken("", time.Minute); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty account: got %v", err)
	}
	if _, _, err := svc.IssueServiceToken("acct", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero ttl: got %v", err)
	}
}
