package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests and by development runs
// without a database. It enforces the same active-name uniqueness the SQL
// schema enforces with partial unique indexes.
type MemoryStore struct {
	mu       sync.Mutex
	roles    map[string]*Role
	accounts map[string]*Account
	sessions map[string]*SessionRecord
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		roles:    make(map[string]*Role),
		accounts: make(map[string]*Account),
		sessions: make(map[string]*SessionRecord),
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Roles() RoleStore       { return (*memRoleStore)(m) }
func (m *MemoryStore) Accounts() AccountStore { return (*memAccountStore)(m) }
func (m *MemoryStore) Sessions() SessionStore { return (*memSessionStore)(m) }

func cloneRole(r *Role) *Role {
	out := *r
	out.Authorities = append([]string(nil), r.Authorities...)
	return &out
}

type memRoleStore MemoryStore

func (m *memRoleStore) Create(_ context.Context, role *Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.roles {
		if existing.Active() && existing.Name == role.Name {
			return fmt.Errorf("%w: role %s", ErrConflict, role.Name)
		}
	}
	m.roles[role.ID] = cloneRole(role)
	return nil
}

func (m *memRoleStore) Find(_ context.Context, id string) (*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[id]
	if !ok {
		return nil, fmt.Errorf("%w: role %s", ErrNotFound, id)
	}
	return cloneRole(role), nil
}

func (m *memRoleStore) List(_ context.Context, keyword string) ([]*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keyword = strings.ToLower(keyword)
	var out []*Role
	for _, role := range m.roles {
		if !role.Active() {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(role.Name), keyword) {
			continue
		}
		out = append(out, cloneRole(role))
	}
	sortRolesByID(out)
	return out, nil
}

func (m *memRoleStore) Update(_ context.Context, role *Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.roles[role.ID]
	if !ok || !current.Active() {
		return fmt.Errorf("%w: role %s", ErrNotFound, role.ID)
	}
	for id, existing := range m.roles {
		if id != role.ID && existing.Active() && existing.Name == role.Name {
			return fmt.Errorf("%w: role %s", ErrConflict, role.Name)
		}
	}
	m.roles[role.ID] = cloneRole(role)
	return nil
}

func (m *memRoleStore) SetStatus(_ context.Context, id string, status int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[id]
	if !ok {
		return fmt.Errorf("%w: role %s", ErrNotFound, id)
	}
	role.Status = status
	return nil
}

func (m *memRoleStore) CountActive(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, role := range m.roles {
		if role.Active() {
			n++
		}
	}
	return n, nil
}

type memAccountStore MemoryStore

func (m *memAccountStore) Create(_ context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Status == StatusActive && existing.Username == account.Username {
			return fmt.Errorf("%w: account %s", ErrConflict, account.Username)
		}
	}
	copied := *account
	m.accounts[account.ID] = &copied
	return nil
}

func (m *memAccountStore) Find(_ context.Context, id string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", ErrNotFound, id)
	}
	copied := *account
	return &copied, nil
}

func (m *memAccountStore) FindActiveByUsername(_ context.Context, username string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.Status == StatusActive && account.Username == username {
			copied := *account
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: account %s", ErrNotFound, username)
}

func (m *memAccountStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return fmt.Errorf("%w: account %s", ErrNotFound, id)
	}
	account.PasswordHash = passwordHash
	account.UpdateTime = time.Now().UTC()
	return nil
}

type memSessionStore MemoryStore

func (m *memSessionStore) Create(_ context.Context, rec *SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *rec
	m.sessions[rec.ID] = &copied
	return nil
}

func (m *memSessionStore) Find(_ context.Context, id string) (*SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	copied := *rec
	return &copied, nil
}

func (m *memSessionStore) Revoke(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	rec.Revoked = true
	return nil
}

func (m *memSessionStore) DeleteExpired(_ context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.sessions {
		if rec.ExpiresAt.Before(before) {
			delete(m.sessions, id)
		}
	}
	return nil
}

func sortRolesByID(roles []*Role) {
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
}
