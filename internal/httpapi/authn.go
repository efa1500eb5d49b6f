package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"meshstudio.org/internal/auth"
	"meshstudio.org/internal/obs"
)

// SessionCookieName carries the opaque session token. SameSite must stay
// Lax: the editor frontend cannot clear the cookie on logout otherwise.
const SessionCookieName = "MESHSTUDIO_SESSION"

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// withSession resolves the trust token (session cookie or bearer service
// token) into the per-request Session and attaches it to the context. A
// missing or defective token yields the anonymous session; only storage
// failures abort the request.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		session := auth.Anonymous()

		if token, ok := bearerToken(r); ok {
			resolved, err := a.svc.AuthenticateServiceToken(r.Context(), token)
			if err != nil && !errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, r, http.StatusServiceUnavailable, "authentication unavailable")
				return
			}
			session = resolved
		} else if cookie, err := r.Cookie(SessionCookieName); err == nil {
			resolved, err := a.svc.ResolveSession(r.Context(), cookie.Value)
			if err != nil {
				writeError(w, r, http.StatusServiceUnavailable, "authentication unavailable")
				return
			}
			session = resolved
		}

		ctx := auth.ContextWithSession(r.Context(), session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuthority gates a protected endpoint. It enforces the session
// state machine: while the system is uninitialized every protected call
// fails with the initialization notice, then anonymous callers are asked
// to log in, then the role's authority set decides.
func (a *API) requireAuthority(w http.ResponseWriter, r *http.Request, authorityID string) bool {
	initialized, err := a.svc.Initialized(r.Context())
	if err != nil {
		writeBusinessError(w, r, err)
		return false
	}
	if !initialized {
		writeFailed(w, "The system has not been initialized, please initialize first.")
		return false
	}
	session, _ := auth.SessionFromContext(r.Context())
	if !session.Authenticated {
		writeFailed(w, "Please login first.")
		return false
	}
	if !session.HasAuthority(authorityID) {
		obs.CountAuthorityDenial(authorityID)
		writeFailed(w, "Not allowed.")
		return false
	}
	return true
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get(authHeader))
	if header == "" {
		return "", false
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearerPrefix)) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
