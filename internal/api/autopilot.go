package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/gray-logic-autopilot/internal/audit"
)

// SetAutopilotRequest is the body of PUT /autopilot.
type SetAutopilotRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleGetAutopilot returns the controller status and its visible parameters.
func (s *Server) handleGetAutopilot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Status())
}

// handleSetAutopilot toggles the autopilot.
func (s *Server) handleSetAutopilot(w http.ResponseWriter, r *http.Request) {
	var req SetAutopilotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "enabled is required")
		return
	}

	st, err := s.session.SetEnabled(r.Context(), *req.Enabled)
	if err != nil {
		// The transition has happened; only the autosave failed.
		s.logger.Error("autosave after toggle failed", "error", err)
		writeInternalError(w, "state changed but the project could not be saved")
		return
	}
	action := audit.ActionDisable
	if *req.Enabled {
		action = audit.ActionEnable
	}
	s.record(r, action, &st)
	writeJSON(w, http.StatusOK, st)
}

// handleResetAutopilot discards every autopilot snapshot and modulation.
func (s *Server) handleResetAutopilot(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.Reset(r.Context())
	if err != nil {
		s.logger.Warn("autopilot reset", "error", err)
		writeSessionError(w, err, "reset done but the project could not be saved")
		return
	}
	s.record(r, audit.ActionReset, &st)
	writeJSON(w, http.StatusOK, st)
}

// handleListChannels returns the show graph with base and modulated values.
func (s *Server) handleListChannels(w http.ResponseWriter, _ *http.Request) {
	channels := s.session.Channels()
	writeJSON(w, http.StatusOK, map[string]any{
		"channels": channels,
		"count":    len(channels),
	})
}

// handleSaveProject persists the current project.
func (s *Server) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Save(r.Context()); err != nil {
		s.logger.Error("saving project", "error", err)
		writeInternalError(w, "failed to save project")
		return
	}
	s.record(r, audit.ActionSave, nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// handleLoadProject replaces the current state with the saved project.
func (s *Server) handleLoadProject(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.Load(r.Context())
	if err != nil {
		s.logger.Warn("loading project", "error", err)
		writeSessionError(w, err, "failed to load project")
		return
	}
	s.record(r, audit.ActionLoad, &st)
	writeJSON(w, http.StatusOK, st)
}
