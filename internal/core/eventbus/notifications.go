package eventbus

import (
	"fmt"

	"github.com/colonyops/orchestra/internal/core/backlog"
)

// NotificationRouter maps domain events to user-facing notifications.
type NotificationRouter struct {
	bus *EventBus
}

// NewNotificationRouter constructs a router for event-to-notification mappings.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeBacklogPreviewed(func(p BacklogPreviewedPayload) {
		if n := len(p.Preview.Conflicts); n > 0 {
			r.notifyf(LevelWarning, "%s: %d conflict(s) need resolution", p.Scope.Name, n)
		}
	})

	r.bus.SubscribeBacklogSynced(func(p BacklogSyncedPayload) {
		r.notifyf(LevelInfo, "%s synced: %s", p.Scope.Name, p.Plan)
	})

	r.bus.SubscribeItemStatusChanged(func(p ItemStatusChangedPayload) {
		if p.Item.Status == backlog.StatusFailed {
			r.notifyf(LevelWarning, "item %q failed", p.Item.Content)
		}
	})

	r.bus.SubscribeScopeCreated(func(p ScopeCreatedPayload) {
		r.notifyf(LevelInfo, "scope %q registered", p.Scope.Name)
	})

	r.bus.SubscribeScopeDeleted(func(p ScopeDeletedPayload) {
		r.notifyf(LevelInfo, "scope %q removed", p.Name)
	})
}

func (r *NotificationRouter) notifyf(level NotificationLevel, format string, args ...any) {
	r.bus.PublishNotificationPublished(NotificationPublishedPayload{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}
