package httpapi

import (
	"net/http"
	"strings"
	"time"

	"meshstudio.org/internal/audit"
	"meshstudio.org/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type serviceTokenRequest struct {
	TTLMinutes int `json:"ttl_minutes"`
}

type sessionStateResponse struct {
	Initialized   bool     `json:"initialized"`
	Authenticated bool     `json:"authenticated"`
	Username      string   `json:"username,omitempty"`
	Menu          string   `json:"menu"`
	Authorities   []string `json:"authorities,omitempty"`
}

// handleSessionState mirrors the server-side session to the client. The
// frontend renders the login menu purely from this payload and performs a
// full reload after Initialize and Logout instead of patching state.
func (a *API) handleSessionState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	initialized, err := a.svc.Initialized(r.Context())
	if err != nil {
		writeBusinessError(w, r, err)
		return
	}
	session, _ := auth.SessionFromContext(r.Context())

	resp := sessionStateResponse{
		Initialized:   initialized,
		Authenticated: session.Authenticated,
		Username:      session.Username,
		Menu:          auth.MenuStateFor(initialized, session).String(),
	}
	if session.Authenticated {
		for _, authority := range auth.AllAuthorityIDs() {
			if session.HasAuthority(authority) {
				resp.Authorities = append(resp.Authorities, authority)
			}
		}
	}
	writeOKData(w, "Get Successfully!", resp)
}

func (a *API) handleSessionScoped(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/session/"), "/")
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	switch action {
	case "login":
		a.login(w, r)
	case "logout":
		a.logout(w, r)
	case "register":
		a.register(w, r)
	case "password":
		a.changePassword(w, r)
	case "token":
		a.issueServiceToken(w, r)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailed(w, err.Error())
		return
	}
	token, account, err := a.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeBusinessError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	_ = audit.LogEvent(r.Context(), "session.login", map[string]any{
		"account_id": account.ID,
		"username":   account.Username,
	})
	a.publish(r, "session.login", map[string]any{"username": account.Username})
	writeOKData(w, "Login successfully!", map[string]any{
		"username": account.Username,
	})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := a.svc.Logout(r.Context(), cookie.Value); err != nil {
			writeBusinessError(w, r, err)
			return
		}
	}
	// Expire the cookie. SameSite=Lax is required for the browser to
	// accept the clearing Set-Cookie from the editor origin.
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	_ = audit.LogEvent(r.Context(), "session.logout", nil)
	writeOK(w, "Logout successfully!")
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailed(w, err.Error())
		return
	}
	account, err := a.svc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeBusinessError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "session.register", map[string]any{
		"account_id": account.ID,
		"username":   account.Username,
	})
	writeOK(w, "Register successfully!")
}

func (a *API) changePassword(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	if !session.Authenticated {
		writeFailed(w, "Please login first.")
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailed(w, err.Error())
		return
	}
	if err := a.svc.ChangePassword(r.Context(), session.AccountID, req.OldPassword, req.NewPassword); err != nil {
		writeBusinessError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "session.change_password", nil)
	writeOK(w, "Change password successfully!")
}

// issueServiceToken mints a bearer JWT for headless clients. The caller
// must already hold an authenticated session.
func (a *API) issueServiceToken(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	if !session.Authenticated {
		writeFailed(w, "Please login first.")
		return
	}
	if !a.svc.SupportsServiceTokens() {
		writeFailed(w, "Service tokens are not enabled.")
		return
	}
	var req serviceTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailed(w, err.Error())
		return
	}
	ttl := time.Duration(req.TTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	token, expiresAt, err := a.svc.IssueServiceToken(session.AccountID, ttl)
	if err != nil {
		writeBusinessError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "session.service_token", map[string]any{
		"expires_at": expiresAt.Format(time.RFC3339),
	})
	writeOKData(w, "Get Successfully!", map[string]any{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}
