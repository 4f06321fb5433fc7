// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within orchestra.
package eventbus

import (
	"github.com/colonyops/orchestra/internal/core/backlog"
	"github.com/colonyops/orchestra/internal/core/reconcile"
)

// Event names a bus topic.
type Event string

// Keep list sorted A-Z
const (
	EventBacklogChanged        Event = "backlog.changed"
	EventBacklogPreviewed      Event = "backlog.previewed"
	EventBacklogSynced         Event = "backlog.synced"
	EventItemStatusChanged     Event = "item.status-changed"
	EventNotificationPublished Event = "notification.published"
	EventScopeCreated          Event = "scope.created"
	EventScopeDeleted          Event = "scope.deleted"
)

// BacklogChangedPayload is emitted when a watched backlog document changes on disk.
type BacklogChangedPayload struct {
	ScopeID string
	Path    string
}

// BacklogPreviewedPayload is emitted after a preview is computed.
type BacklogPreviewedPayload struct {
	Scope   backlog.Scope
	Hash    string
	Preview reconcile.Preview
}

// BacklogSyncedPayload is emitted after a sync commits.
type BacklogSyncedPayload struct {
	Scope backlog.Scope
	Hash  string
	Plan  reconcile.Plan
}

// ItemStatusChangedPayload is emitted when an item moves through its lifecycle.
type ItemStatusChangedPayload struct {
	Item      backlog.Item
	OldStatus backlog.Status
}

// ScopeCreatedPayload is emitted when a new scope is registered.
type ScopeCreatedPayload struct {
	Scope backlog.Scope
}

// ScopeDeletedPayload is emitted when a scope is removed.
type ScopeDeletedPayload struct {
	ScopeID string
	Name    string
}

// NotificationLevel is the severity of a user-facing notification.
type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelWarning NotificationLevel = "warning"
)

// NotificationPublishedPayload carries a user-facing message derived from a domain event.
type NotificationPublishedPayload struct {
	Level   NotificationLevel
	Message string
}
