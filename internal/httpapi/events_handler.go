package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"meshstudio.org/internal/auth"
	"meshstudio.org/internal/events"
)

// handleEvents streams administrative events as server-sent events. Only
// administrators may watch the feed.
func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.requireAuthority(w, r, auth.AuthorityAdministrator) {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	_ = rc.Flush()

	sub := a.events.Subscribe(r.Context())
	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			_ = rc.Flush()
		case evt, open := <-sub:
			if !open {
				return
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			if err := enc.Encode(evt); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n")); err != nil {
				return
			}
			_ = rc.Flush()
		}
	}
}

// publish pushes one event onto the live feed, stamped with the acting
// session and the request id.
func (a *API) publish(r *http.Request, eventType string, fields map[string]any) {
	evt := events.Event{
		Type:      eventType,
		RequestID: RequestIDFromContext(r.Context()),
		Fields:    fields,
	}
	if session, ok := auth.SessionFromContext(r.Context()); ok && session.Authenticated {
		evt.Actor = session.Username
	}
	a.events.Publish(evt)
}
