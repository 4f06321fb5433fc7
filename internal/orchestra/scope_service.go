package orchestra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"

	"github.com/colonyops/orchestra/internal/core/backlog"
	"github.com/colonyops/orchestra/internal/core/eventbus"
)

// ScopeService manages the registered backlog scopes.
type ScopeService struct {
	store           backlog.ScopeStore
	bus             *eventbus.EventBus
	log             zerolog.Logger
	defaultFile     string
	discoverPattern string
}

// NewScopeService creates a new ScopeService. defaultFile is used for
// scopes created without an explicit document name; discoverPattern is
// the glob Discover matches documents with.
func NewScopeService(store backlog.ScopeStore, bus *eventbus.EventBus, log zerolog.Logger, defaultFile, discoverPattern string) *ScopeService {
	return &ScopeService{
		store:           store,
		bus:             bus,
		log:             log.With().Str("component", "scope-service").Logger(),
		defaultFile:     defaultFile,
		discoverPattern: discoverPattern,
	}
}

// CreateScopeInput holds the user-supplied fields for a new scope.
type CreateScopeInput struct {
	Name           string
	RepositoryPath string
	BacklogFile    string
}

// Validate checks the input fields.
func (in CreateScopeInput) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("name", in.Name, validScopeName),
		criterio.Run("repository", in.RepositoryPath, isExistingDirectory),
	)
}

func validScopeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("is required")
	}
	if strings.ContainsAny(name, " \t\n/") {
		return errors.New("must not contain whitespace or slashes")
	}
	return nil
}

func isExistingDirectory(path string) error {
	if path == "" {
		return errors.New("is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return errors.New("is not a directory")
	}
	return nil
}

// Create registers a new scope. The repository path is stored absolute.
func (s *ScopeService) Create(ctx context.Context, in CreateScopeInput) (backlog.Scope, error) {
	if err := in.Validate(); err != nil {
		return backlog.Scope{}, err
	}

	repo, err := filepath.Abs(in.RepositoryPath)
	if err != nil {
		return backlog.Scope{}, fmt.Errorf("resolve repository path: %w", err)
	}

	file := in.BacklogFile
	if file == "" {
		file = s.defaultFile
	}

	scope := backlog.Scope{
		Name:           in.Name,
		RepositoryPath: repo,
		BacklogFile:    file,
	}
	if err := s.store.CreateScope(ctx, &scope); err != nil {
		return backlog.Scope{}, fmt.Errorf("create scope %q: %w", in.Name, err)
	}

	s.log.Info().Str("scope_id", scope.ID).Str("name", scope.Name).Msg("scope created")
	s.bus.PublishScopeCreated(eventbus.ScopeCreatedPayload{Scope: scope})

	return scope, nil
}

// List returns all scopes ordered by name.
func (s *ScopeService) List(ctx context.Context) ([]backlog.Scope, error) {
	return s.store.ListScopes(ctx)
}

// Get returns a scope by ID or name.
func (s *ScopeService) Get(ctx context.Context, idOrName string) (backlog.Scope, error) {
	return s.store.GetScope(ctx, idOrName)
}

// Delete removes a scope, addressed by ID or name, and all of its items.
func (s *ScopeService) Delete(ctx context.Context, idOrName string) error {
	scope, err := s.store.GetScope(ctx, idOrName)
	if err != nil {
		return fmt.Errorf("delete scope: %w", err)
	}

	if err := s.store.DeleteScope(ctx, scope.ID); err != nil {
		return fmt.Errorf("delete scope: %w", err)
	}

	s.log.Info().Str("scope_id", scope.ID).Str("name", scope.Name).Msg("scope deleted")
	s.bus.PublishScopeDeleted(eventbus.ScopeDeletedPayload{ScopeID: scope.ID, Name: scope.Name})

	return nil
}

// Discover finds backlog documents below root and registers a scope for
// every repository directory that does not already have one. Scope names
// are the directory's path relative to root, with separators replaced by
// dashes.
func (s *ScopeService) Discover(ctx context.Context, root string) ([]backlog.Scope, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	matches, err := doublestar.Glob(os.DirFS(root), s.discoverPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("discover backlogs: %w", err)
	}
	slices.Sort(matches)

	existing, err := s.store.ListScopes(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover backlogs: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, sc := range existing {
		known[sc.BacklogPath()] = true
	}

	var created []backlog.Scope
	for _, match := range matches {
		if skipDiscovered(match) {
			continue
		}

		rel := filepath.FromSlash(match)
		repo := filepath.Join(root, filepath.Dir(rel))
		file := filepath.Base(rel)
		if known[filepath.Join(repo, file)] {
			continue
		}

		scope, err := s.Create(ctx, CreateScopeInput{
			Name:           discoveredName(root, repo),
			RepositoryPath: repo,
			BacklogFile:    file,
		})
		if err != nil {
			if errors.Is(err, backlog.ErrScopeExists) {
				s.log.Warn().Str("path", repo).Msg("scope name taken, skipping discovered backlog")
				continue
			}
			return created, err
		}

		known[scope.BacklogPath()] = true
		created = append(created, scope)
	}

	return created, nil
}

// skipDiscovered reports whether a match lives under a hidden or vendored directory.
func skipDiscovered(match string) bool {
	for _, part := range strings.Split(match, "/") {
		if strings.HasPrefix(part, ".") || part == "node_modules" || part == "vendor" {
			return true
		}
	}
	return false
}

func discoveredName(root, repo string) string {
	rel, err := filepath.Rel(root, repo)
	if err != nil || rel == "." {
		return filepath.Base(repo)
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
}
