package services

import "context"

// Audit event types emitted by the services.
const (
	EventSaleCreated          = "sale.created"
	EventSaleUpdated          = "sale.updated"
	EventSaleDeleted          = "sale.deleted"
	EventBackupCreated        = "backup.created"
	EventBackupDeleted        = "backup.deleted"
	EventUserAdminProvisioned = "user.admin_provisioned"
)

// EventPublisher receives audit events. Implementations must not block the
// caller on delivery failures.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, actorID int, subject map[string]any)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, int, map[string]any) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
