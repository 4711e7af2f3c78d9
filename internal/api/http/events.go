package http

import (
	"context"
	"net/http"

	"github.com/mosaicedu/gradelens/internal/synclog"
)

// EventSource is the read side of the event log; *synclog.EventRepo
// satisfies it.
type EventSource interface {
	Since(ctx context.Context, after int64, limit int) ([]synclog.Event, error)
}

// GET /events?after=0&limit=100 — sync and grading activity feed for
// the dashboard, oldest first. Clients poll with the last seq they saw.
func EventsHandler(events EventSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after := int64(parseIntDefault(r.URL.Query().Get("after"), 0))
		limit := parseIntDefault(r.URL.Query().Get("limit"), 100)

		evs, err := events.Since(r.Context(), after, limit)
		if err != nil {
			http.Error(w, "event log: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if evs == nil {
			evs = []synclog.Event{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"events": evs})
	}
}
