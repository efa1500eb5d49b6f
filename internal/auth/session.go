package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"meshstudio.org/internal/ids"
)

// Initialized reports whether bootstrap has ever completed, derived from
// "does at least one active role exist".
func (s *Service) Initialized(ctx context.Context) (bool, error) {
	n, err := s.store.Roles().CountActive(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Login verifies credentials and opens a persisted session. The returned
// token is the only place the session secret appears in plaintext. Login
// while the system is uninitialized fails with ErrNotInitialized.
func (s *Service) Login(ctx context.Context, username, password string) (string, *Account, error) {
	initialized, err := s.Initialized(ctx)
	if err != nil {
		return "", nil, err
	}
	if !initialized {
		return "", nil, ErrNotInitialized
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, ErrUnauthorized
	}
	account, err := s.store.Accounts().FindActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrUnauthorized
		}
		return "", nil, err
	}
	if err := VerifyPassword(account.PasswordHash, password); err != nil {
		return "", nil, ErrUnauthorized
	}

	token, rec, err := s.newSessionToken(account.ID)
	if err != nil {
		return "", nil, err
	}
	if err := s.store.Sessions().Create(ctx, rec); err != nil {
		return "", nil, err
	}
	return token, account, nil
}

// Logout revokes the session named by the token. Unknown or already-revoked
// tokens are a no-op: logout is safe to retry.
func (s *Service) Logout(ctx context.Context, token string) error {
	id, _, err := splitSessionToken(token)
	if err != nil {
		return nil
	}
	if err := s.store.Sessions().Revoke(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// ResolveSession turns a session token into the per-request Session. Any
// defect in the token, the record, the account or the role degrades to the
// anonymous session rather than an error: authority checks downstream
// simply fail closed.
func (s *Service) ResolveSession(ctx context.Context, token string) (Session, error) {
	id, secret, err := splitSessionToken(token)
	if err != nil {
		return Anonymous(), nil
	}
	rec, err := s.store.Sessions().Find(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Anonymous(), nil
		}
		return Anonymous(), err
	}
	if rec.Revoked || s.now().After(rec.ExpiresAt) {
		return Anonymous(), nil
	}
	if !secureCompareHash(rec.TokenHash, secret) {
		return Anonymous(), nil
	}
	return s.sessionForAccount(ctx, rec.AccountID)
}

// sessionForAccount loads the account and resolves its role authorities
// into the session's membership set, once per request.
func (s *Service) sessionForAccount(ctx context.Context, accountID string) (Session, error) {
	account, err := s.store.Accounts().Find(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Anonymous(), nil
		}
		return Anonymous(), err
	}
	if account.Status != StatusActive {
		return Anonymous(), nil
	}
	var role *Role
	if account.RoleID != "" {
		role, err = s.store.Roles().Find(ctx, account.RoleID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Anonymous(), err
		}
	}
	return NewSession(account, role), nil
}

// Register creates a self-service account with no role bound yet.
func (s *Service) Register(ctx context.Context, username, password string) (*Account, error) {
	initialized, err := s.Initialized(ctx)
	if err != nil {
		return nil, err
	}
	if !initialized {
		return nil, ErrNotInitialized
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrNameEmpty
	}
	if strings.HasPrefix(username, ReservedNamePrefix) {
		return nil, ErrNameReserved
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is empty", ErrInvalidInput)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	account := &Account{
		ID:           ids.New(),
		Username:     username,
		PasswordHash: hash,
		CreateTime:   now,
		UpdateTime:   now,
		Status:       StatusActive,
	}
	if err := s.store.Accounts().Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// ChangePassword verifies the old password and replaces it.
func (s *Service) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password is empty", ErrInvalidInput)
	}
	account, err := s.store.Accounts().Find(ctx, accountID)
	if err != nil {
		return err
	}
	if err := VerifyPassword(account.PasswordHash, oldPassword); err != nil {
		return ErrUnauthorized
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.Accounts().UpdatePassword(ctx, account.ID, hash)
}

func (s *Service) newSessionToken(accountID string) (string, *SessionRecord, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", nil, err
	}
	secret := base64.RawURLEncoding.EncodeToString(secretBytes)
	sum := sha256.Sum256([]byte(secret))
	now := s.now().UTC()
	rec := &SessionRecord{
		ID:        ids.New(),
		AccountID: accountID,
		TokenHash: hex.EncodeToString(sum[:]),
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	return rec.ID + "." + secret, rec, nil
}

func splitSessionToken(raw string) (id, secret string, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("invalid session token format")
	}
	return parts[0], parts[1], nil
}

func secureCompareHash(expectedHash, secret string) bool {
	sum := sha256.Sum256([]byte(secret))
	actual := hex.EncodeToString(sum[:])
	if len(expectedHash) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expectedHash), []byte(actual)) == 1
}
