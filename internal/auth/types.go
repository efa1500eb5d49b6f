package auth

import "time"

// Record status values. These round-trip the historical layout: 0 marks an
// active record, -1 a soft-deleted one. There is no hard delete path.
const (
	StatusActive  = 0
	StatusDeleted = -1
)

// ReservedNamePrefix marks system roles. User-created roles must never
// start with it, so built-ins cannot collide with administrator input.
const ReservedNamePrefix = "_"

// Role is an administrator-managed bundle of operating authorities.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Authorities []string  `json:"authorities"`
	CreateTime  time.Time `json:"create_time"`
	UpdateTime  time.Time `json:"update_time"`
	Status      int       `json:"status"`
}

// Active reports whether the role has not been soft-deleted.
func (r *Role) Active() bool { return r.Status == StatusActive }

// Account is a login identity. It references a Role by id only; deleting
// the role does not cascade, the account simply loses its authorities.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	RoleID       string    `json:"role_id"`
	CreateTime   time.Time `json:"create_time"`
	UpdateTime   time.Time `json:"update_time"`
	Status       int       `json:"status"`
}

// SessionRecord is a persisted login session. Only the SHA-256 of the token
// secret is stored; the plaintext secret leaves the server exactly once,
// inside the cookie value.
type SessionRecord struct {
	ID        string
	AccountID string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// Session is the per-request caller identity. It is built by the transport
// layer from the trust token, never persisted, and discarded at request end.
type Session struct {
	Authenticated bool
	AccountID     string
	Username      string
	RoleID        string

	authorities map[string]struct{}
}

// NewSession resolves an account and its role into a request session. A nil
// or soft-deleted role degrades to a session with no authorities.
func NewSession(account *Account, role *Role) Session {
	s := Session{
		Authenticated: true,
		AccountID:     account.ID,
		Username:      account.Username,
		RoleID:        account.RoleID,
	}
	if role == nil || !role.Active() {
		return s
	}
	s.authorities = make(map[string]struct{}, len(role.Authorities))
	for _, id := range role.Authorities {
		s.authorities[id] = struct{}{}
	}
	return s
}

// Anonymous returns the unauthenticated session.
func Anonymous() Session { return Session{} }

// HasAuthority reports whether the session's role grants the authority.
// Anonymous sessions hold no authorities.
func (s Session) HasAuthority(authorityID string) bool {
	if !s.Authenticated {
		return false
	}
	_, ok := s.authorities[authorityID]
	return ok
}

// MenuState is the client-visible session state that drives the login menu.
type MenuState int

const (
	MenuUninitialized MenuState = iota
	MenuAnonymous
	MenuAuthenticated
)

// MenuStateFor maps the session tri-state onto the menu rendering contract:
// Uninitialized shows only the Initialize affordance, Anonymous shows
// Login/Register, Authenticated shows Welcome/ChangePassword/Logout.
func MenuStateFor(initialized bool, s Session) MenuState {
	switch {
	case !initialized:
		return MenuUninitialized
	case s.Authenticated:
		return MenuAuthenticated
	default:
		return MenuAnonymous
	}
}

func (m MenuState) String() string {
	switch m {
	case MenuUninitialized:
		return "uninitialized"
	case MenuAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}
