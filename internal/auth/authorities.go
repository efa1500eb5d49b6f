package auth

import "strings"

// Operating authority ids. The set is fixed per build; an id is never
// reused with a different meaning across versions.
const (
	AuthorityAdministrator = "ADMINISTRATOR"
	AuthorityLogin         = "LOGIN"

	AuthorityListScene    = "LIST_SCENE"
	AuthoritySaveScene    = "SAVE_SCENE"
	AuthorityPublishScene = "PUBLISH_SCENE"
	AuthorityDeleteScene  = "DELETE_SCENE"

	AuthorityListMesh   = "LIST_MESH"
	AuthorityAddMesh    = "ADD_MESH"
	AuthorityEditMesh   = "EDIT_MESH"
	AuthorityDeleteMesh = "DELETE_MESH"

	AuthorityListMap   = "LIST_MAP"
	AuthorityAddMap    = "ADD_MAP"
	AuthorityEditMap   = "EDIT_MAP"
	AuthorityDeleteMap = "DELETE_MAP"

	AuthorityListAudio   = "LIST_AUDIO"
	AuthorityAddAudio    = "ADD_AUDIO"
	AuthorityEditAudio   = "EDIT_AUDIO"
	AuthorityDeleteAudio = "DELETE_AUDIO"

	AuthorityListScreenshot   = "LIST_SCREENSHOT"
	AuthorityAddScreenshot    = "ADD_SCREENSHOT"
	AuthorityDeleteScreenshot = "DELETE_SCREENSHOT"

	AuthorityListRole   = "LIST_ROLE"
	AuthorityAddRole    = "ADD_ROLE"
	AuthorityEditRole   = "EDIT_ROLE"
	AuthorityDeleteRole = "DELETE_ROLE"

	AuthorityListUser       = "LIST_USER"
	AuthorityAddUser        = "ADD_USER"
	AuthorityEditUser       = "EDIT_USER"
	AuthorityDeleteUser     = "DELETE_USER"
	AuthorityChangePassword = "CHANGE_PASSWORD"
)

// Authority is one catalog entry: a capability id plus its display label.
type Authority struct {
	ID    string `json:"id"`
	Label string `json:"name"`
}

// catalog is the explicit, statically declared authority table. The
// administration UI lists it but can never add or remove entries.
var catalog = []Authority{
	{AuthorityAdministrator, "Administrator"},
	{AuthorityLogin, "Login"},
	{AuthorityListScene, "List Scene"},
	{AuthoritySaveScene, "Save Scene"},
	{AuthorityPublishScene, "Publish Scene"},
	{AuthorityDeleteScene, "Delete Scene"},
	{AuthorityListMesh, "List Mesh"},
	{AuthorityAddMesh, "Add Mesh"},
	{AuthorityEditMesh, "Edit Mesh"},
	{AuthorityDeleteMesh, "Delete Mesh"},
	{AuthorityListMap, "List Map"},
	{AuthorityAddMap, "Add Map"},
	{AuthorityEditMap, "Edit Map"},
	{AuthorityDeleteMap, "Delete Map"},
	{AuthorityListAudio, "List Audio"},
	{AuthorityAddAudio, "Add Audio"},
	{AuthorityEditAudio, "Edit Audio"},
	{AuthorityDeleteAudio, "Delete Audio"},
	{AuthorityListScreenshot, "List Screenshot"},
	{AuthorityAddScreenshot, "Add Screenshot"},
	{AuthorityDeleteScreenshot, "Delete Screenshot"},
	{AuthorityListRole, "List Role"},
	{AuthorityAddRole, "Add Role"},
	{AuthorityEditRole, "Edit Role"},
	{AuthorityDeleteRole, "Delete Role"},
	{AuthorityListUser, "List User"},
	{AuthorityAddUser, "Add User"},
	{AuthorityEditUser, "Edit User"},
	{AuthorityDeleteUser, "Delete User"},
	{AuthorityChangePassword, "Change Password"},
}

var catalogIndex = func() map[string]struct{} {
	idx := make(map[string]struct{}, len(catalog))
	for _, a := range catalog {
		idx[a.ID] = struct{}{}
	}
	return idx
}()

// Catalog returns the full ordered authority table. Safe for concurrent
// reads; callers must not mutate the returned slice.
func Catalog() []Authority {
	out := make([]Authority, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogContains reports whether id names a known operating authority.
func CatalogContains(id string) bool {
	_, ok := catalogIndex[id]
	return ok
}

// FilterCatalog returns catalog entries whose id or label contains keyword,
// case-insensitively. An empty keyword returns the full catalog.
func FilterCatalog(keyword string) []Authority {
	keyword = strings.TrimSpace(strings.ToLower(keyword))
	if keyword == "" {
		return Catalog()
	}
	var out []Authority
	for _, a := range catalog {
		if strings.Contains(strings.ToLower(a.ID), keyword) ||
			strings.Contains(strings.ToLower(a.Label), keyword) {
			out = append(out, a)
		}
	}
	return out
}

// AllAuthorityIDs returns every catalog id in declaration order.
func AllAuthorityIDs() []string {
	out := make([]string, len(catalog))
	for i, a := range catalog {
		out[i] = a.ID
	}
	return out
}

// normalizeAuthorities trims, deduplicates and drops ids absent from the
// catalog, preserving input order.
func normalizeAuthorities(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || !CatalogContains(id) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
