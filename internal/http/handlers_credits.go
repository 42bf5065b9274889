package http

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"meinbudget/internal/amortization"
	"meinbudget/internal/core"
	"meinbudget/internal/state"
)

// creditView is a credit with its repayment progress as of a given day.
type creditView struct {
	core.Credit
	Progress amortization.Progress `json:"progress"`
}

type quoteRequest struct {
	TotalAmount           decimal.Decimal `json:"totalAmount"`
	TermMonths            int             `json:"termMonths"`
	EffectiveInterestRate decimal.Decimal `json:"effectiveInterestRate"`
	StartDate             *core.Date      `json:"startDate,omitempty"`
}

type quoteResponse struct {
	amortization.Installment
	TotalRepayment decimal.Decimal              `json:"totalRepayment"`
	Schedule       []amortization.ScheduleEntry `json:"schedule,omitempty"`
}

type scheduleResponse struct {
	CreditID string                       `json:"creditId"`
	Schedule []amortization.ScheduleEntry `json:"schedule"`
	Progress amortization.Progress        `json:"progress"`
}

func newCreditView(c core.Credit, asOf core.Date) (creditView, error) {
	p, err := amortization.ProgressOf(c, asOf)
	if err != nil {
		return creditView{}, err
	}
	return creditView{Credit: c, Progress: p}, nil
}

// handleListCredits returns credits ordered by start date. from/to filter on
// the start date through the store.
func (s *Server) handleListCredits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, byDate, err := dateRange(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	asOf, err := asOfParam(q, s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var list []core.Credit
	if byDate {
		list, err = s.state.CreditsByStartDate(r.Context(), from, to)
		if err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		list = s.state.Credits()
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].StartDate.Before(list[j].StartDate.Time) })

	views := make([]creditView, 0, len(list))
	for _, c := range list {
		v, err := newCreditView(c, asOf)
		if err != nil {
			writeError(w, r, err)
			return
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetCredit(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfParam(r.URL.Query(), s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.state.Credit(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := newCreditView(c, asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleCreateCredit(w http.ResponseWriter, r *http.Request) {
	var in state.CreditInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.state.AddCredit(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/credits/"+c.ID)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCredit(w http.ResponseWriter, r *http.Request) {
	var in state.CreditInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.state.UpdateCredit(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCredit(w http.ResponseWriter, r *http.Request) {
	if err := s.state.DeleteCredit(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreditSchedule(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfParam(r.URL.Query(), s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.state.Credit(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := amortization.Schedule(c.TotalAmount, c.TermMonths, c.EffectiveInterestRate, c.StartDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	progress, err := amortization.ProgressOf(c, asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{CreditID: c.ID, Schedule: entries, Progress: progress})
}

// handleQuoteCredit previews the installment for a prospective credit without
// storing anything. A start date adds the full schedule.
func (s *Server) handleQuoteCredit(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	start := s.today()
	if req.StartDate != nil {
		start = *req.StartDate
	}
	// Reuse record validation for amount, term and rate bounds.
	candidate := core.Credit{
		Creditor:              "quote",
		Debtor:                "quote",
		TotalAmount:           req.TotalAmount,
		TermMonths:            req.TermMonths,
		EffectiveInterestRate: req.EffectiveInterestRate,
		StartDate:             start,
	}
	if err := candidate.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	inst, err := amortization.ComputeInstallment(req.TotalAmount, req.TermMonths, req.EffectiveInterestRate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := quoteResponse{Installment: inst, TotalRepayment: inst.TotalRepayment(req.TermMonths)}
	if req.StartDate != nil {
		if resp.Schedule, err = amortization.Schedule(req.TotalAmount, req.TermMonths, req.EffectiveInterestRate, start); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
