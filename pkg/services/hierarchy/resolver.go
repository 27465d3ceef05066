package hierarchy

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Client lists the direct children of a node in the resource hierarchy. Parents
// are resource names: organizations/<id> or folders/<id>.
type Client interface {
	ListProjects(ctx context.Context, parent string) ([]domain.ProjectRef, error)
	ListFolders(ctx context.Context, parent string) ([]domain.Folder, error)
	SearchFolders(ctx context.Context, organizationID, displayName string) ([]domain.Folder, error)
}

type Resolver interface {
	ResolveProjects(ctx context.Context, filter domain.ProjectFilter) ([]domain.ProjectRef, error)
}

type Settings struct {
	OrganizationID string
	MaxDepth       int
	Concurrency    int
}

func DefaultSettings(organizationID string) Settings {
	return Settings{
		OrganizationID: organizationID,
		MaxDepth:       32,
		Concurrency:    4,
	}
}

type DefaultResolver struct {
	client   Client
	settings Settings
}

func NewResolver(client Client, settings Settings) (*DefaultResolver, error) {
	if client == nil {
		return nil, fmt.Errorf("hierarchy client is required")
	}
	if settings.OrganizationID == "" {
		return nil, fmt.Errorf("organization id is required")
	}
	if settings.MaxDepth < 1 {
		settings.MaxDepth = DefaultSettings("").MaxDepth
	}
	if settings.Concurrency < 1 {
		settings.Concurrency = DefaultSettings("").Concurrency
	}
	return &DefaultResolver{client: client, settings: settings}, nil
}

// ResolveProjects walks the organization, or the first folder whose display name
// matches filter.FolderName, and returns every project below it exactly once.
// Any listing failure aborts the whole walk.
func (r *DefaultResolver) ResolveProjects(ctx context.Context, filter domain.ProjectFilter) ([]domain.ProjectRef, error) {
	logger := zerolog.Ctx(ctx).With().Str("organization_id", r.settings.OrganizationID).Logger()

	root := node{parent: organizationName(r.settings.OrganizationID)}
	if filter.FolderName != "" {
		folders, err := r.client.SearchFolders(ctx, r.settings.OrganizationID, filter.FolderName)
		if err != nil {
			return nil, hierarchyError(root.parent, err)
		}
		if len(folders) == 0 {
			logger.Info().Str("folder", filter.FolderName).Msg("no folder matches filter")
			return []domain.ProjectRef{}, nil
		}
		root = node{
			parent:     folders[0].Name,
			folderName: folders[0].DisplayName,
			path:       []string{folders[0].Name},
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	w := &walk{
		client:   r.client,
		sem:      semaphore.NewWeighted(int64(r.settings.Concurrency)),
		maxDepth: r.settings.MaxDepth,
		group:    g,
		visited:  make(map[string]position),
		found:    make(map[string]discovery),
	}
	if len(root.path) > 0 {
		w.visited[root.parent] = root.pos
	}
	g.Go(func() error { return w.visit(gctx, root) })
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("project resolution aborted")
		return nil, err
	}

	projects := w.result()
	logger.Info().Int("projects", len(projects)).Msg("resolved projects")
	return projects, nil
}

// position is the pre-order index path of a discovery: sibling indices from the
// root, with a node's own projects ordered before its sub-folders. Comparing
// positions lexicographically reproduces the order of a sequential depth-first walk.
type position []int

func (p position) child(kind, index int) position {
	next := make(position, len(p), len(p)+2)
	copy(next, p)
	return append(next, kind, index)
}

func (p position) less(o position) bool {
	return slices.Compare(p, o) < 0
}

const (
	projectSlot = 0
	folderSlot  = 1
)

type node struct {
	parent     string
	folderName string
	path       []string
	pos        position
}

type discovery struct {
	pos position
	ref domain.ProjectRef
}

type walk struct {
	client   Client
	sem      *semaphore.Weighted
	maxDepth int
	group    *errgroup.Group

	mu      sync.Mutex
	visited map[string]position
	found   map[string]discovery
}

func (w *walk) visit(ctx context.Context, n node) error {
	projects, err := call(ctx, w.sem, func() ([]domain.ProjectRef, error) {
		return w.client.ListProjects(ctx, n.parent)
	})
	if err != nil {
		return hierarchyError(n.parent, err)
	}
	folders, err := call(ctx, w.sem, func() ([]domain.Folder, error) {
		return w.client.ListFolders(ctx, n.parent)
	})
	if err != nil {
		return hierarchyError(n.parent, err)
	}
	zerolog.Ctx(ctx).Debug().
		Str("parent", n.parent).
		Int("projects", len(projects)).
		Int("folders", len(folders)).
		Msg("listed hierarchy node")

	w.mu.Lock()
	for i, p := range projects {
		if p.ProjectID == "" {
			continue
		}
		pos := n.pos.child(projectSlot, i)
		if prev, ok := w.found[p.ProjectID]; ok && !pos.less(prev.pos) {
			continue
		}
		p.FolderName = n.folderName
		if p.Environment == "" {
			p.Environment = domain.DefaultEnvironment
		}
		w.found[p.ProjectID] = discovery{pos: pos, ref: p}
	}
	w.mu.Unlock()

	for i, f := range folders {
		if slices.Contains(n.path, f.Name) {
			return &domain.HierarchyError{
				Kind:   domain.KindMalformedResponse,
				Parent: n.parent,
				Err:    fmt.Errorf("folder %s is its own ancestor: %w", f.Name, domain.ErrTraversalLimit),
			}
		}
		if len(n.path)+1 > w.maxDepth {
			return &domain.HierarchyError{
				Kind:   domain.KindMalformedResponse,
				Parent: n.parent,
				Err:    fmt.Errorf("folder %s is deeper than %d levels: %w", f.Name, w.maxDepth, domain.ErrTraversalLimit),
			}
		}

		child := node{
			parent:     f.Name,
			folderName: f.DisplayName,
			path:       append(slices.Clip(n.path), f.Name),
			pos:        n.pos.child(folderSlot, i),
		}
		if !w.claim(child) {
			continue
		}
		w.group.Go(func() error { return w.visit(ctx, child) })
	}
	return nil
}

// claim reports whether the folder should be walked from this position. A folder
// reachable through several parents is walked again only when a position earlier
// in depth-first order reaches it.
func (w *walk) claim(n node) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.visited[n.parent]; ok && !n.pos.less(prev) {
		return false
	}
	w.visited[n.parent] = n.pos
	return true
}

func (w *walk) result() []domain.ProjectRef {
	w.mu.Lock()
	defer w.mu.Unlock()
	found := make([]discovery, 0, len(w.found))
	for _, d := range w.found {
		found = append(found, d)
	}
	slices.SortFunc(found, func(a, b discovery) int { return slices.Compare(a.pos, b.pos) })
	projects := make([]domain.ProjectRef, 0, len(found))
	for _, d := range found {
		projects = append(projects, d.ref)
	}
	return projects
}

func call[T any](ctx context.Context, sem *semaphore.Weighted, fn func() (T, error)) (T, error) {
	if err := sem.Acquire(ctx, 1); err != nil {
		var zero T
		return zero, err
	}
	defer sem.Release(1)
	return fn()
}

func hierarchyError(parent string, err error) error {
	return &domain.HierarchyError{
		Kind:   domain.KindOf(err, domain.KindUnavailable),
		Parent: parent,
		Err:    err,
	}
}

func organizationName(id string) string {
	return "organizations/" + id
}
