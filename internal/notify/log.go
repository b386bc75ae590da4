package notify

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to the structured log. It is the fallback when
// no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	attrs := []any{
		"event_id", event.ID,
		"event_type", string(event.Type),
		"occurred_at", event.OccurredAt,
	}
	if event.PartnerID != "" {
		attrs = append(attrs, "partner_id", event.PartnerID)
	}
	if event.RunID != "" {
		attrs = append(attrs, "run_id", event.RunID)
	}
	if len(event.Payload) > 0 {
		attrs = append(attrs, "payload", event.Payload)
	}
	p.logger.InfoContext(ctx, "notification", attrs...)
	return nil
}
