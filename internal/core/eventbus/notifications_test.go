package eventbus_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/orchestra/internal/core/backlog"
	"github.com/colonyops/orchestra/internal/core/eventbus"
	"github.com/colonyops/orchestra/internal/core/eventbus/testbus"
	"github.com/colonyops/orchestra/internal/core/reconcile"
)

func latestNotificationPayload(tb *testbus.Bus, t *testing.T) eventbus.NotificationPublishedPayload {
	t.Helper()
	tb.AssertPublished(t, eventbus.EventNotificationPublished)

	payloads := testbus.Payloads[eventbus.NotificationPublishedPayload](tb, eventbus.EventNotificationPublished)
	require.NotEmpty(t, payloads)
	return payloads[len(payloads)-1]
}

func TestNotificationRouter_BacklogSynced(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishBacklogSynced(eventbus.BacklogSyncedPayload{
		Scope: backlog.Scope{Name: "api"},
		Plan:  reconcile.Plan{Adds: []reconcile.Add{{Content: "x"}}},
	})
	p := latestNotificationPayload(tb, t)

	assert.Equal(t, eventbus.LevelInfo, p.Level)
	assert.Contains(t, p.Message, "api synced")
	assert.Contains(t, p.Message, "adds=1")
}

func TestNotificationRouter_PreviewWithConflicts(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishBacklogPreviewed(eventbus.BacklogPreviewedPayload{
		Scope:   backlog.Scope{Name: "api"},
		Preview: reconcile.Preview{Conflicts: []reconcile.Conflict{{}, {}}},
	})
	p := latestNotificationPayload(tb, t)

	assert.Equal(t, eventbus.LevelWarning, p.Level)
	assert.Contains(t, p.Message, "2 conflict(s)")
}

func TestNotificationRouter_PreviewWithoutConflicts(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishBacklogPreviewed(eventbus.BacklogPreviewedPayload{Scope: backlog.Scope{Name: "api"}})
	tb.AssertPublished(t, eventbus.EventBacklogPreviewed)
	tb.AssertNotPublished(t, eventbus.EventNotificationPublished, 50*time.Millisecond)
}

func TestNotificationRouter_ItemFailed(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishItemStatusChanged(eventbus.ItemStatusChangedPayload{
		Item:      backlog.Item{Content: "Deploy", Status: backlog.StatusFailed},
		OldStatus: backlog.StatusInProgress,
	})
	p := latestNotificationPayload(tb, t)

	assert.Equal(t, eventbus.LevelWarning, p.Level)
	assert.Contains(t, p.Message, "Deploy")
}

func TestNotificationRouter_ScopeLifecycle(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewNotificationRouter(tb.EventBus).Register()

	tb.PublishScopeDeleted(eventbus.ScopeDeletedPayload{ScopeID: "s1", Name: "web"})
	p := latestNotificationPayload(tb, t)

	assert.Equal(t, eventbus.LevelInfo, p.Level)
	assert.Contains(t, p.Message, "web")
}

func TestNotificationRouter_NilSafe(t *testing.T) {
	var r *eventbus.NotificationRouter
	assert.NotPanics(t, r.Register)
}
