package orchestra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/orchestra/internal/core/backlog"
	"github.com/colonyops/orchestra/internal/core/eventbus"
	"github.com/colonyops/orchestra/internal/core/logging"
	"github.com/colonyops/orchestra/internal/core/reconcile"
)

// BacklogService reconciles scope backlog documents against persisted items.
type BacklogService struct {
	items  backlog.Store
	scopes backlog.ScopeStore
	reader DocumentReader
	bus    *eventbus.EventBus
	locks  *scopeLocks
	log    zerolog.Logger
	now    func() time.Time
}

// NewBacklogService creates a new BacklogService.
func NewBacklogService(
	items backlog.Store,
	scopes backlog.ScopeStore,
	reader DocumentReader,
	bus *eventbus.EventBus,
	log zerolog.Logger,
) *BacklogService {
	return &BacklogService{
		items:  items,
		scopes: scopes,
		reader: reader,
		bus:    bus,
		locks:  newScopeLocks(),
		log:    log.With().Str("component", "backlog-service").Logger(),
		now:    time.Now,
	}
}

// lockScope resolves an ID or name to the scope's canonical ID and takes its lock.
func (s *BacklogService) lockScope(ctx context.Context, idOrName string) (func(), error) {
	scope, err := s.scopes.GetScope(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	return s.locks.lock(scope.ID), nil
}

// snapshot is the pair of inputs one reconciliation is computed from.
type snapshot struct {
	scope   backlog.Scope
	parsed  backlog.ParseResult
	items   []backlog.Item
	preview reconcile.Preview
}

func (s *BacklogService) load(ctx context.Context, scopeID string) (snapshot, error) {
	scope, err := s.scopes.GetScope(ctx, scopeID)
	if err != nil {
		return snapshot{}, err
	}

	text, err := s.reader.ReadDocument(ctx, scope.BacklogPath())
	if err != nil {
		return snapshot{}, err
	}

	parsed := backlog.Parse(text)

	items, err := s.items.ListItems(ctx, scope.ID)
	if err != nil {
		return snapshot{}, err
	}

	return snapshot{
		scope:   scope,
		parsed:  parsed,
		items:   items,
		preview: reconcile.Reconcile(parsed.Items, items),
	}, nil
}

// Preview computes what a sync of the scope would do without changing anything.
func (s *BacklogService) Preview(ctx context.Context, scopeID string) (PreviewReport, error) {
	unlock, err := s.lockScope(ctx, scopeID)
	if err != nil {
		return PreviewReport{}, fmt.Errorf("preview backlog: %w", err)
	}
	defer unlock()

	snap, err := s.load(ctx, scopeID)
	if err != nil {
		return PreviewReport{}, fmt.Errorf("preview backlog: %w", err)
	}

	s.bus.PublishBacklogPreviewed(eventbus.BacklogPreviewedPayload{
		Scope:   snap.scope,
		Hash:    snap.parsed.Hash,
		Preview: snap.preview,
	})

	return NewPreviewReport(snap.preview, snap.parsed.Hash, snap.scope), nil
}

// SyncRequest carries the conflict decisions for one sync.
type SyncRequest struct {
	Resolutions []reconcile.Resolution `json:"resolutions"`

	// ExpectHash is the document fingerprint of the preview the resolutions
	// were chosen against. When set, Sync fails with
	// backlog.ErrSnapshotChanged if the document has changed since.
	ExpectHash string `json:"expectHash,omitempty"`
}

// UnmarshalJSON accepts either a request object or a bare array of
// resolutions.
func (r *SyncRequest) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		*r = SyncRequest{}
		return json.Unmarshal(trimmed, &r.Resolutions)
	}

	type plain SyncRequest
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*r = SyncRequest(p)
	return nil
}

// Sync reconciles the scope, merges the conflict resolutions and commits
// the result and the new sync marker in one transaction. Resolution indexes
// refer to the conflicts of the preview recomputed here, so callers that
// chose them from an earlier Preview should set req.ExpectHash. Apply
// rejects the commit if another sync landed after the snapshot was read.
func (s *BacklogService) Sync(ctx context.Context, scopeID string, req SyncRequest) (SyncResult, error) {
	unlock, err := s.lockScope(ctx, scopeID)
	if err != nil {
		return SyncResult{}, fmt.Errorf("sync backlog: %w", err)
	}
	defer unlock()

	ctx = logging.WithSyncID(logging.WithScopeID(ctx, scopeID), uuid.NewString())

	snap, err := s.load(ctx, scopeID)
	if err != nil {
		return SyncResult{}, fmt.Errorf("sync backlog: %w", err)
	}

	if req.ExpectHash != "" && req.ExpectHash != snap.parsed.Hash {
		s.log.Warn().Ctx(ctx).
			Str("expected", req.ExpectHash).
			Str("hash", snap.parsed.Hash).
			Msg("document changed since preview")
		return SyncResult{}, fmt.Errorf("sync backlog: document changed since preview: %w", backlog.ErrSnapshotChanged)
	}

	plan := reconcile.ApplyResolutions(snap.preview, req.Resolutions, backlog.MaxPosition(snap.items))
	if len(plan.Ignored) > 0 {
		s.log.Warn().Ctx(ctx).
			Ints("indexes", plan.Ignored).
			Int("conflicts", len(snap.preview.Conflicts)).
			Msg("ignoring resolutions with out-of-range conflict index")
	}

	marker := backlog.SyncMarker{
		Hash:     snap.parsed.Hash,
		At:       s.now(),
		PrevHash: snap.scope.LastSyncedHash,
		PrevAt:   snap.scope.LastSyncedAt,
	}
	if err := s.items.Apply(ctx, snap.scope.ID, plan.Changeset(), marker); err != nil {
		return SyncResult{}, fmt.Errorf("sync backlog: %w", err)
	}

	s.log.Info().Ctx(ctx).Stringer("plan", plan).Str("hash", marker.Hash).Msg("backlog synced")

	snap.scope.LastSyncedHash = marker.Hash
	snap.scope.LastSyncedAt = &marker.At
	s.bus.PublishBacklogSynced(eventbus.BacklogSyncedPayload{
		Scope: snap.scope,
		Hash:  marker.Hash,
		Plan:  plan,
	})

	return newSyncResult(plan, marker.Hash), nil
}

// Check reports whether the scope's document differs from the one last
// synced, without reconciling.
func (s *BacklogService) Check(ctx context.Context, scopeID string) (changed bool, hash string, err error) {
	scope, err := s.scopes.GetScope(ctx, scopeID)
	if err != nil {
		return false, "", fmt.Errorf("check backlog: %w", err)
	}

	text, err := s.reader.ReadDocument(ctx, scope.BacklogPath())
	if err != nil {
		return false, "", fmt.Errorf("check backlog: %w", err)
	}

	hash = backlog.Fingerprint(text)
	return hash != scope.LastSyncedHash, hash, nil
}

// ListItems returns the scope's items in position order.
func (s *BacklogService) ListItems(ctx context.Context, scopeID string) ([]backlog.Item, error) {
	scope, err := s.scopes.GetScope(ctx, scopeID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return s.items.ListItems(ctx, scope.ID)
}

// GetItem returns a single item.
func (s *BacklogService) GetItem(ctx context.Context, id string) (backlog.Item, error) {
	return s.items.GetItem(ctx, id)
}

// SetStatus moves an item to a new lifecycle status.
func (s *BacklogService) SetStatus(ctx context.Context, id string, status backlog.Status) (backlog.Item, error) {
	item, err := s.items.GetItem(ctx, id)
	if err != nil {
		return backlog.Item{}, fmt.Errorf("set status: %w", err)
	}

	if err := s.items.UpdateItemStatus(ctx, id, status); err != nil {
		return backlog.Item{}, fmt.Errorf("set status: %w", err)
	}

	old := item.Status
	item.Status = status

	s.log.Debug().
		Str("item_id", id).
		Str("from", old.String()).
		Str("to", status.String()).
		Msg("item status changed")

	s.bus.PublishItemStatusChanged(eventbus.ItemStatusChangedPayload{Item: item, OldStatus: old})

	return item, nil
}
