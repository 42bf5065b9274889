package http

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"meinbudget/internal/core"
	"meinbudget/internal/state"
	"meinbudget/internal/stats"
)

// handleListTransactions returns transactions newest first. The from/to and
// category filters are answered by the store's secondary lookups.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, byDate, err := dateRange(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := limitParam(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	categoryID := strings.TrimSpace(q.Get("category"))

	var list []core.Transaction
	switch {
	case byDate:
		list, err = s.state.TransactionsByDate(r.Context(), from, to)
		if err == nil && categoryID != "" {
			list = slices.DeleteFunc(list, func(t core.Transaction) bool { return t.CategoryID != categoryID })
		}
	case categoryID != "":
		list, err = s.state.TransactionsByCategory(r.Context(), categoryID)
	default:
		list = s.state.Transactions()
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	if limit > 0 {
		list = stats.Recent(list, limit)
	} else {
		stats.SortByDateDesc(list)
	}
	if list == nil {
		list = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.state.Transaction(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in state.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.checkCategory(in); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.state.AddTransaction(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/transactions/"+t.ID)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var in state.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.checkCategory(in); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.state.UpdateTransaction(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.state.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkCategory enforces that a transaction references an existing category
// of its own type. An empty id is left to record validation.
func (s *Server) checkCategory(in state.TransactionInput) error {
	if strings.TrimSpace(in.CategoryID) == "" {
		return nil
	}
	cat, err := s.state.Category(in.CategoryID)
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("%w: unknown category %q", core.ErrValidation, in.CategoryID)
	}
	if err != nil {
		return err
	}
	return core.CheckCategory(in.Type, cat)
}
