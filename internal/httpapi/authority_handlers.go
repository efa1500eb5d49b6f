package httpapi

import (
	"net/http"

	"meshstudio.org/internal/auth"
)

// handleAuthorities lists the operating authority catalog. The catalog is
// compiled into the binary: there is no add, edit or delete for it, only
// roles reference its entries. The keyword parameter filters by
// case-insensitive substring on id and label.
func (a *API) handleAuthorities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.requireAuthority(w, r, auth.AuthorityListRole) {
		return
	}
	rows := auth.FilterCatalog(r.URL.Query().Get("keyword"))
	writeOKData(w, "Get Successfully!", listPayload{
		Total: len(rows),
		Rows:  rows,
	})
}
