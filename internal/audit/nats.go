package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSSink publishes events as JSON on a subject suffixed with the action,
// e.g. docqa.audit.document_query.
type NATSSink struct {
	nc      *nats.Conn
	subject string
}

// NewNATSSink connects to the NATS server at url.
func NewNATSSink(url, subject string) (*NATSSink, error) {
	nc, err := nats.Connect(url,
		nats.Name("docqa-audit"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSSink{nc: nc, subject: subject}, nil
}

// Record implements Sink.
func (s *NATSSink) Record(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}
	subject := s.subject + "." + e.Action
	if err := s.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish audit event to subject %s: %w", subject, err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (s *NATSSink) Close() {
	if s.nc != nil {
		_ = s.nc.Drain()
	}
}
