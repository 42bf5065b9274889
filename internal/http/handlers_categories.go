package http

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"meinbudget/internal/core"
	"meinbudget/internal/state"
)

// handleListCategories returns categories by name. ?type=income|expense
// narrows the list to one transaction type.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list := s.state.Categories()
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		typ := core.TransactionType(raw)
		if !typ.Valid() {
			writeError(w, r, core.ErrInvalidType)
			return
		}
		filtered := list[:0]
		for _, c := range list {
			if c.TransactionType == typ {
				filtered = append(filtered, c)
			}
		}
		list = filtered
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	if list == nil {
		list = []core.Category{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.state.Category(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleCreateCategory adds a user-defined category. Predefined kinds are
// installed by seeding only.
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in state.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.Type != "" && in.Type != core.CategoryCustom {
		writeError(w, r, fmt.Errorf("%w: category type %q is reserved", core.ErrValidation, in.Type))
		return
	}
	in.Type = ""
	c, err := s.state.AddCategory(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/categories/"+c.ID)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in state.CategoryUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.state.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.state.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
