package handlers

import (
	"context"
	"net/http"
	"time"

	"docqa/internal/contextutil"
)

// Check pings one dependency.
type Check struct {
	Name string
	// Critical failures make the service unhealthy; other failures only degrade it.
	Critical bool
	Ping     func(ctx context.Context) error
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	checks             []Check
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{
		checks:             checks,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 OK when healthy or degraded (keyword store down, vector-only answers),
// 503 Service Unavailable when a critical dependency is down.
//
// swagger:route GET /api/health healthCheck
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	var issues []string
	status := "healthy"
	httpStatus := http.StatusOK

	for _, c := range h.checks {
		if err := c.Ping(checkCtx); err != nil {
			logger.WarnContext(ctx, "health check failed", "check", c.Name, "error", err)
			checks[c.Name] = "error"
			issues = append(issues, c.Name+"_unavailable")
			if c.Critical {
				status = "unhealthy"
				httpStatus = http.StatusServiceUnavailable
			} else if status == "healthy" {
				status = "degraded"
			}
			continue
		}
		checks[c.Name] = "ok"
	}

	writeJSON(ctx, w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}
