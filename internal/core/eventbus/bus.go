package eventbus

import (
	"context"
	"sync"
)

type envelope struct {
	event   Event
	payload any
}

// EventBus dispatches events to subscribers on a single goroutine started
// by Start. Publishing never blocks; events are dropped when the buffer is full.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu   sync.RWMutex
	subs map[Event][]func(any)
}

// New creates a bus with the given buffer size.
func New(buffer int) *EventBus {
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: make(map[Event][]func(any)),
	}
}

// Start dispatches queued events until ctx is cancelled.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			bus.dispatch(env)
		}
	}
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(event)
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					bus.runOnPanic(env.event, env.payload, r)
				}
			}()
			fn(env.payload)
		}()
	}
}

func (bus *EventBus) PublishBacklogChanged(p BacklogChangedPayload) {
	bus.send(EventBacklogChanged, p)
}

func (bus *EventBus) SubscribeBacklogChanged(fn func(BacklogChangedPayload)) {
	bus.subscribe(EventBacklogChanged, func(p any) { fn(p.(BacklogChangedPayload)) })
}

func (bus *EventBus) PublishBacklogPreviewed(p BacklogPreviewedPayload) {
	bus.send(EventBacklogPreviewed, p)
}

func (bus *EventBus) SubscribeBacklogPreviewed(fn func(BacklogPreviewedPayload)) {
	bus.subscribe(EventBacklogPreviewed, func(p any) { fn(p.(BacklogPreviewedPayload)) })
}

func (bus *EventBus) PublishBacklogSynced(p BacklogSyncedPayload) {
	bus.send(EventBacklogSynced, p)
}

func (bus *EventBus) SubscribeBacklogSynced(fn func(BacklogSyncedPayload)) {
	bus.subscribe(EventBacklogSynced, func(p any) { fn(p.(BacklogSyncedPayload)) })
}

func (bus *EventBus) PublishItemStatusChanged(p ItemStatusChangedPayload) {
	bus.send(EventItemStatusChanged, p)
}

func (bus *EventBus) SubscribeItemStatusChanged(fn func(ItemStatusChangedPayload)) {
	bus.subscribe(EventItemStatusChanged, func(p any) { fn(p.(ItemStatusChangedPayload)) })
}

func (bus *EventBus) PublishNotificationPublished(p NotificationPublishedPayload) {
	bus.send(EventNotificationPublished, p)
}

func (bus *EventBus) SubscribeNotificationPublished(fn func(NotificationPublishedPayload)) {
	bus.subscribe(EventNotificationPublished, func(p any) { fn(p.(NotificationPublishedPayload)) })
}

func (bus *EventBus) PublishScopeCreated(p ScopeCreatedPayload) {
	bus.send(EventScopeCreated, p)
}

func (bus *EventBus) SubscribeScopeCreated(fn func(ScopeCreatedPayload)) {
	bus.subscribe(EventScopeCreated, func(p any) { fn(p.(ScopeCreatedPayload)) })
}

func (bus *EventBus) PublishScopeDeleted(p ScopeDeletedPayload) {
	bus.send(EventScopeDeleted, p)
}

func (bus *EventBus) SubscribeScopeDeleted(fn func(ScopeDeletedPayload)) {
	bus.subscribe(EventScopeDeleted, func(p any) { fn(p.(ScopeDeletedPayload)) })
}
