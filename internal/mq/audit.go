package mq

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const publishTimeout = 5 * time.Second

// Event is an audit record of a change made through the API.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	ActorID    int            `json:"actor_id"`
	Subject    map[string]any `json:"subject,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// AuditPublisher sends audit events to a channel. Delivery failures are
// logged and never returned to the caller.
type AuditPublisher struct {
	mq      *MQ
	channel string
	logger  *slog.Logger
	now     func() time.Time
}

func NewAuditPublisher(m *MQ, channel string, logger *slog.Logger) *AuditPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditPublisher{mq: m, channel: channel, logger: logger, now: time.Now}
}

// Publish emits one event. The request context's cancellation is ignored
// so a finished request does not drop its event.
func (p *AuditPublisher) Publish(ctx context.Context, eventType string, actorID int, subject map[string]any) {
	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ActorID:    actorID,
		Subject:    subject,
		OccurredAt: p.now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "encode audit event", "type", eventType, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	attrs := map[string]string{"event_type": eventType, "event_id": event.ID}
	if _, err := p.mq.Publish(ctx, p.channel, data, attrs); err != nil {
		p.logger.WarnContext(ctx, "publish audit event failed",
			"type", eventType,
			"event_id", event.ID,
			"error", err,
		)
	}
}

// DecodeEvent parses a delivered audit message.
func DecodeEvent(msg Message) (Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}
