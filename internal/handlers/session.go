package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"docqa/internal/access"
	"docqa/internal/contextutil"
	"docqa/internal/rag"
)

// SessionHandler serves the conversation session endpoints.
type SessionHandler struct {
	engine rag.Engine
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(engine rag.Engine) *SessionHandler {
	return &SessionHandler{engine: engine}
}

func sessionRequest(r *http.Request) rag.SessionRequest {
	ctx := r.Context()
	return rag.SessionRequest{
		SessionID: chi.URLParam(r, "id"),
		User:      access.UserFromContext(ctx),
		ClientIP:  contextutil.ClientIPFromContext(ctx),
	}
}

// Get returns the session history, topic keywords and cached passage ids.
//
// swagger:route GET /api/v1/sessions/{id} getSession
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap, err := h.engine.GetSession(ctx, sessionRequest(r))
	if err != nil {
		handleEngineError(ctx, w, err, "Failed to get session")
		return
	}
	writeJSON(ctx, w, http.StatusOK, snap)
}

// Delete clears the session. Unknown sessions are cleared trivially.
//
// swagger:route DELETE /api/v1/sessions/{id} clearSession
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.engine.ClearSession(ctx, sessionRequest(r)); err != nil {
		handleEngineError(ctx, w, err, "Failed to clear session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
