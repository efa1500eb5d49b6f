package httpapi

import (
	"net/http"
	"strings"

	"meshstudio.org/internal/audit"
	"meshstudio.org/internal/auth"
)

type roleEditRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Authorities []string `json:"authorities"`
}

func (a *API) handleRoles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listRoles(w, r)
	case http.MethodPost:
		a.addRole(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listRoles(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuthority(w, r, auth.AuthorityListRole) {
		return
	}
	roles, err := a.svc.ListRoles(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		writeBusinessError(w, r, err)
		return
	}
	if roles == nil {
		roles = []*auth.Role{}
	}
	writeOKData(w, "Get Successfully!", listPayload{
		Total: len(roles),
		Rows:  roles,
	})
}

func (a *API) addRole(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuthority(w, r, auth.AuthorityAddRole) {
		return
	}
	var req roleEditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailed(w, err.Error())
		return
	}
	role, err := a.svc.AddRole(r.Context(), req.Name, req.Authorities)
	if err != nil {
		writeBusinessError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "role.add", map[string]any{
		"role_id": role.ID,
		"name":    role.Name,
	})
	a.publish(r, "role.add", map[string]any{"role_id": role.ID, "name": role.Name})
	writeOKData(w, "Saved successfully!", role)
}

// handleRoleResource dispatches POST /api/roles/{id} (edit) and
// POST /api/roles/{id}/delete (soft delete).
func (a *API) handleRoleResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/roles/")
	path = strings.Trim(path, "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		a.editRole(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "delete":
		a.deleteRole(w, r, parts[0])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) editRole(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.requireAuthority(w, r, auth.AuthorityEditRole) {
		return
	}
	var req roleEditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailed(w, err.Error())
		return
	}
	if err := a.svc.EditRole(r.Context(), id, req.Name, req.Authorities); err != nil {
		writeBusinessError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "role.edit", map[string]any{
		"role_id": id,
		"name":    req.Name,
	})
	a.publish(r, "role.edit", map[string]any{"role_id": id, "name": req.Name})
	writeOK(w, "Saved successfully!")
}

func (a *API) deleteRole(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !a.requireAuthority(w, r, auth.AuthorityDeleteRole) {
		return
	}
	if err := a.svc.DeleteRole(r.Context(), id); err != nil {
		writeBusinessError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "role.delete", map[string]any{
		"role_id": id,
	})
	a.publish(r, "role.delete", map[string]any{"role_id": id})
	writeOK(w, "Delete successfully!")
}

// handleInitialize seeds the default administrator role and account. Safe
// to call repeatedly; a racing caller that loses the seed still gets a
// success response so the client can reload into the Anonymous state.
func (a *API) handleInitialize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	result, err := a.svc.Initialize(r.Context())
	if err != nil {
		writeBusinessError(w, r, err)
		return
	}
	if result.Created {
		_ = audit.LogEvent(r.Context(), "system.initialize", nil)
		a.publish(r, "system.initialize", nil)
	}
	writeOK(w, result.Message)
}
