package http

import (
	"fmt"
	"net/http"

	"meinbudget/internal/core"
	"meinbudget/internal/format"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Settings())
}

// handlePatchSettings applies a field mask. lastSync belongs to the sync
// worker and is ignored here.
func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var patch core.SettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	patch.LastSync = nil
	if patch.Currency != nil && !format.ValidCurrency(*patch.Currency) {
		writeError(w, r, fmt.Errorf("%w: unknown currency %q", core.ErrValidation, *patch.Currency))
		return
	}
	if patch.Empty() {
		writeJSON(w, http.StatusOK, s.state.Settings())
		return
	}
	settings, err := s.state.UpdateSettings(r.Context(), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleToggleDarkMode(w http.ResponseWriter, r *http.Request) {
	settings, err := s.state.ToggleDarkMode(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
