package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// healthCheckTimeout bounds each dependency check.
const healthCheckTimeout = 2 * time.Second

// Health statuses.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
)

// HealthResponse is the /api/v1/health body.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// handleHealth runs every registered check plus a loop round-trip.
// Any failure answers 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  statusOK,
		Version: s.version,
		Checks:  make(map[string]string, len(s.checks)+1),
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		resp.Checks[name] = s.runCheck(r.Context(), s.checks[name].HealthCheck)
	}
	resp.Checks["loop"] = s.runCheck(r.Context(), func(ctx context.Context) error {
		return s.loop.Call(ctx, func() {})
	})

	for _, result := range resp.Checks {
		if result != statusOK {
			resp.Status = statusDegraded
			break
		}
	}

	status := http.StatusOK
	if resp.Status != statusOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) runCheck(parent context.Context, check func(context.Context) error) string {
	ctx, cancel := context.WithTimeout(parent, healthCheckTimeout)
	defer cancel()
	if err := check(ctx); err != nil {
		return err.Error()
	}
	return statusOK
}
