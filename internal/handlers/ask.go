package handlers

import (
	"encoding/json"
	"net/http"

	"docqa/internal/access"
	"docqa/internal/contextutil"
	"docqa/internal/rag"
)

// AskHandler handles HTTP requests for questions.
type AskHandler struct {
	engine rag.Engine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(engine rag.Engine) *AskHandler {
	return &AskHandler{engine: engine}
}

// AskRequest represents the HTTP request payload for questions.
//
// swagger:model AskRequest
type AskRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId,omitempty"`
}

// ServeHTTP handles HTTP requests for questions.
//
// swagger:route POST /api/v1/ask askQuestion
//
// # Ask a question about the document collection
//
// Retrieves the passages the caller may see, ranks them and generates an answer.
// The caller's identity is taken from the X-User-* headers set by the gateway.
//
// responses:
//
//	'200':
//	  description: Answer with the passages behind it
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Missing question or malformed body
//	'403':
//	  description: Session belongs to another user
//	'503':
//	  description: No retrieval path available
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(ctx, w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.engine.Ask(ctx, rag.AskRequest{
		Question:  req.Question,
		SessionID: req.SessionID,
		User:      access.UserFromContext(ctx),
		ClientIP:  contextutil.ClientIPFromContext(ctx),
	})
	if err != nil {
		handleEngineError(ctx, w, err, "Failed to answer question")
		return
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}
