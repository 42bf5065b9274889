package http

import (
	"context"
	"net/http"
	"time"

	"meinbudget/internal/state"
	"meinbudget/internal/stats"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports 503 until the manager is Ready and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]any{}

	phase := s.state.Phase()
	checks["state"] = phase.String()
	if phase != state.Ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			checks["store"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	cacheStats := s.statsCache.Stats()
	checks["stats_cache"] = map[string]any{
		"entries": cacheStats.Size,
		"hits":    cacheStats.Hits,
		"misses":  cacheStats.Misses,
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"rejected":       s.limiter.GetMetrics().Rejected,
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleStatistics serves the dashboard aggregates. Results are memoized per
// manager version, so any successful write invalidates them.
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	summary, err := s.statsCache.Get(s.state.Version(), func() (stats.Summary, error) {
		return stats.Compute(s.state.Transactions(), s.state.Categories(), s.state.Credits()), nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	res, err := s.syncer.RunOnce(r.Context())
	body := map[string]any{
		"skipped":   res.Skipped,
		"pending":   res.Pending,
		"published": res.Published,
		"failed":    res.Failed,
	}
	if err != nil {
		body["error"] = err.Error()
		writeJSON(w, http.StatusBadGateway, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}
