package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"docqa/internal/audit"
)

// AuditRepo persists audit events. It implements audit.Sink.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Record inserts one audit event.
func (r *AuditRepo) Record(ctx context.Context, e audit.Event) error {
	var details []byte
	if len(e.Details) > 0 {
		var err error
		details, err = json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, occurred_at, user_id, session_id, action, resource_id, details, ip_address)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp, e.UserID, e.SessionID, e.Action, e.ResourceID, string(details), e.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// CountBySession returns the number of events per action recorded for a session.
func (r *AuditRepo) CountBySession(ctx context.Context, sessionID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT action, COUNT(*) FROM audit_events WHERE session_id = ? GROUP BY action",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count audit events: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			action string
			n      int
		)
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("failed to scan audit count: %w", err)
		}
		counts[action] = n
	}
	return counts, rows.Err()
}
