package handlers

import (
	"context"
	"net/http"
	"sync/atomic"

	"docqa/internal/access"
	"docqa/internal/contextutil"
	"docqa/internal/indexer"
)

// Ingester runs an ingestion pass over the knowledge directory. *indexer.Pipeline implements it.
type Ingester interface {
	IndexAll(ctx context.Context) (*indexer.Report, error)
}

// IndexHandler handles HTTP requests for triggering re-ingestion.
type IndexHandler struct {
	ingester Ingester
	running  atomic.Bool
	// done is signalled after every background run; used by tests.
	done func(*indexer.Report, error)
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(ingester Ingester) *IndexHandler {
	return &IndexHandler{ingester: ingester}
}

// IndexResponse represents the response from the index endpoint.
type IndexResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServeHTTP starts a background ingestion pass. Only admins may trigger it and only
// one pass runs at a time.
//
// swagger:route POST /api/v1/index reindex
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(ctx, w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	u := access.UserFromContext(ctx)
	if !u.IsAdmin() {
		logger.WarnContext(ctx, "re-ingestion refused", "user_id", userID(u))
		writeError(ctx, w, http.StatusForbidden, "Admin role required")
		return
	}

	if !h.running.CompareAndSwap(false, true) {
		writeError(ctx, w, http.StatusConflict, "Ingestion already running")
		return
	}

	logger.InfoContext(ctx, "re-ingestion triggered via API", "user_id", u.ID)

	// The run outlives the request; it keeps the request logger but not its deadline.
	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer h.running.Store(false)
		report, err := h.ingester.IndexAll(runCtx)
		if err != nil {
			logger.ErrorContext(runCtx, "re-ingestion completed with errors", "error", err)
		} else {
			logger.InfoContext(runCtx, "re-ingestion completed successfully")
		}
		if h.done != nil {
			h.done(report, err)
		}
	}()

	writeJSON(ctx, w, http.StatusAccepted, IndexResponse{
		Message: "Ingestion started. Check server logs for progress.",
		Status:  "accepted",
	})
}

func userID(u *access.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
