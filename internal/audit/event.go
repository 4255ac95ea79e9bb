package audit

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_sink.go -package=mocks docqa/internal/audit Sink

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Audited actions.
const (
	ActionDocumentQuery    = "document_query"
	ActionPermissionDenied = "permission_denied"
	ActionSessionCleared   = "session_cleared"
)

// Event is one structured audit record.
type Event struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	UserID     string         `json:"userId,omitempty"`
	SessionID  string         `json:"sessionId,omitempty"`
	Action     string         `json:"action"`
	ResourceID string         `json:"resourceId,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	IPAddress  string         `json:"ipAddress,omitempty"`
}

// NewEvent creates an event with a fresh id and the current time.
func NewEvent(action, userID, sessionID, resourceID, ip string, details map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		UserID:     userID,
		SessionID:  sessionID,
		Action:     action,
		ResourceID: resourceID,
		Details:    details,
		IPAddress:  ip,
	}
}

// Sink persists or forwards audit events.
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []Sink

// Record implements Sink.
func (m MultiSink) Record(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
