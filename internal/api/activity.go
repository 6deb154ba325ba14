package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-autopilot/internal/audit"
	"github.com/nerrad567/gray-logic-autopilot/internal/autopilot"
)

// record appends an activity entry for an accepted action. Failures are
// logged and never change the response.
func (s *Server) record(r *http.Request, action string, st *autopilot.Status) {
	if s.activity == nil {
		return
	}
	e := &audit.Entry{Action: action, Source: audit.SourceAPI}
	if id, ok := r.Context().Value(ctxKeyRequestID).(string); ok {
		e.RequestID = id
	}
	if st != nil {
		e.Details = map[string]any{
			"enabled":     st.Enabled,
			"oscillators": st.Oscillators,
			"bindings":    st.Bindings,
		}
	}
	if err := s.activity.Record(r.Context(), e); err != nil {
		s.logger.Warn("recording activity", "action", action, "error", err)
	}
}

// handleListActivity returns the activity log, newest first.
//
// Query parameters: action, source, limit, offset.
func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		Action: q.Get("action"),
		Source: q.Get("source"),
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, name+" must be an integer")
			return
		}
		*dst = n
	}

	page, err := s.activity.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing activity", "error", err)
		writeInternalError(w, "failed to list activity")
		return
	}
	writeJSON(w, http.StatusOK, page)
}
