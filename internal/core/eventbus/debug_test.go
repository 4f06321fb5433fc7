package eventbus_test

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/colonyops/orchestra/internal/core/backlog"
	"github.com/colonyops/orchestra/internal/core/eventbus"
	"github.com/colonyops/orchestra/internal/core/eventbus/testbus"
)

func TestRegisterDebugLogger(t *testing.T) {
	tb := testbus.New(t)

	// Register with a nop logger to verify no panic.
	eventbus.RegisterDebugLogger(tb.EventBus, zerolog.Nop())

	tb.PublishScopeCreated(eventbus.ScopeCreatedPayload{Scope: backlog.Scope{ID: "s1", Name: "api"}})
	tb.PublishBacklogChanged(eventbus.BacklogChangedPayload{ScopeID: "s1", Path: "/tmp/backlog.md"})

	tb.AssertPublished(t, eventbus.EventBacklogChanged)
}
