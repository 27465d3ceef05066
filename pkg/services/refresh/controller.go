package refresh

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/de-tools/posture-atlas/pkg/services/controls"
	"github.com/de-tools/posture-atlas/pkg/services/hierarchy"
	"github.com/de-tools/posture-atlas/pkg/store/cache"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/errgroup"
)

type Controller interface {
	RefreshProject(ctx context.Context, projectID string) (*domain.DashboardDocument, error)
	RefreshOrganization(ctx context.Context) (domain.BatchOutcome, error)
	ResolveProjects(ctx context.Context, filter domain.ProjectFilter) ([]domain.ProjectRef, error)
	Cancel(ctx context.Context, projectID string) error
}

type Config struct {
	OrganizationID string
	Workers        int
	ProjectTimeout time.Duration
}

type DefaultController struct {
	config   Config
	resolver hierarchy.Resolver
	sources  []controls.Source
	store    cache.Store
	metrics  *Metrics
	now      func() time.Time

	mu      sync.Mutex
	running map[string]map[string]context.CancelFunc // project id -> run id -> cancel
}

func NewController(
	config Config,
	resolver hierarchy.Resolver,
	sources []controls.Source,
	store cache.Store,
	metrics *Metrics,
) (*DefaultController, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if store == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if len(sources) == 0 {
		return nil, domain.ErrNoSourcesProvided
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if metrics == nil {
		metrics, _ = NewMetrics(nil)
	}
	return &DefaultController{
		config:   config,
		resolver: resolver,
		sources:  slices.Clone(sources),
		store:    store,
		metrics:  metrics,
		now:      time.Now,
		running:  make(map[string]map[string]context.CancelFunc),
	}, nil
}

func (ctrl *DefaultController) ResolveProjects(ctx context.Context, filter domain.ProjectFilter) ([]domain.ProjectRef, error) {
	return ctrl.resolver.ResolveProjects(ctx, filter)
}

type fetchResult struct {
	raw []controls.RawRecord
	err error
}

// RefreshProject queries every source for the project, waits for all of them and
// commits the merged document. Failed sources are kept as error sections. The
// refresh fails, leaving the cached document untouched, when every source failed,
// when the context ends before the commit, or when the commit itself fails.
func (ctrl *DefaultController) RefreshProject(ctx context.Context, projectID string) (*domain.DashboardDocument, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	runID := uuid.NewString()
	logger := zerolog.Ctx(ctx).With().Str("project_id", projectID).Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx)

	ctx, cancel := ctrl.register(ctx, projectID, runID)
	defer ctrl.unregister(projectID, runID, cancel)

	start := ctrl.now()
	doc, err := ctrl.refresh(ctx, projectID, runID)
	ctrl.metrics.duration.Observe(ctrl.now().Sub(start).Seconds())
	ctrl.metrics.refreshes.WithLabelValues(result(err)).Inc()
	if err != nil {
		logger.Error().Err(err).Msg("project refresh failed")
		return nil, err
	}
	logger.Info().
		Strs("populated", doc.PopulatedSections()).
		Strs("failed", doc.FailedSections()).
		Msg("project refreshed")
	return doc, nil
}

func (ctrl *DefaultController) refresh(ctx context.Context, projectID, runID string) (*domain.DashboardDocument, error) {
	logger := zerolog.Ctx(ctx)

	results := make([]fetchResult, len(ctrl.sources))
	var g errgroup.Group
	for i, src := range ctrl.sources {
		g.Go(func() error {
			srcCtx := logger.With().Str("source", src.ID()).Logger().WithContext(ctx)
			raw, err := src.Fetch(srcCtx, projectID)
			results[i] = fetchResult{raw: raw, err: err}
			return nil
		})
	}
	_ = g.Wait()

	doc := &domain.DashboardDocument{
		ProjectID:   projectID,
		RunID:       runID,
		Sections:    make(map[string]domain.Section, len(ctrl.sources)),
		GeneratedAt: ctrl.now().UTC(),
	}
	var errs []error
	for i, src := range ctrl.sources {
		id := src.ID()
		records, skipped := controls.Normalize(id, results[i].raw)
		if skipped > 0 {
			logger.Warn().Str("source", id).Int("skipped", skipped).Msg("skipped malformed records")
			ctrl.metrics.skipped.WithLabelValues(id).Add(float64(skipped))
		}
		section := domain.Section{
			SourceID: id,
			Status:   domain.SectionStatusOK,
			Records:  records,
			Skipped:  skipped,
		}
		if err := results[i].err; err != nil {
			serr := domain.NewSourceError(id, err)
			logger.Warn().Err(serr).Str("source", id).Str("kind", string(serr.Kind)).Msg("control source failed")
			section.Status = domain.SectionStatusError
			section.Error = serr.Error()
			errs = append(errs, serr)
		}
		ctrl.metrics.sourceFetches.WithLabelValues(id, result(results[i].err)).Inc()
		doc.Sections[id] = section
	}

	if len(errs) == len(ctrl.sources) {
		return nil, fmt.Errorf("refresh %s: %w: %w", projectID, domain.ErrAllSourcesFailed, errors.Join(errs...))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("refresh %s interrupted before commit: %w", projectID, err)
	}
	if err := ctrl.store.PutDashboard(ctx, *doc); err != nil {
		return nil, fmt.Errorf("refresh %s: %w", projectID, err)
	}
	return doc, nil
}

type projectResult struct {
	projectID string
	err       error
}

// RefreshOrganization resolves every project of the organization, caches the
// list and refreshes each project with at most Workers refreshes in flight. A
// project failure is reported in the outcome and never stops the batch.
func (ctrl *DefaultController) RefreshOrganization(ctx context.Context) (domain.BatchOutcome, error) {
	logger := zerolog.Ctx(ctx).With().Str("organization_id", ctrl.config.OrganizationID).Logger()
	ctx = logger.WithContext(ctx)

	projects, err := ctrl.resolver.ResolveProjects(ctx, domain.ProjectFilter{})
	if err != nil {
		return domain.BatchOutcome{}, fmt.Errorf("resolve projects: %w", err)
	}
	list := domain.ProjectList{
		OrganizationID: ctrl.config.OrganizationID,
		Projects:       projects,
		GeneratedAt:    ctrl.now().UTC(),
	}
	if err := ctrl.store.PutProjects(ctx, list); err != nil {
		return domain.BatchOutcome{}, fmt.Errorf("cache project list: %w", err)
	}
	logger.Info().Int("projects", len(projects)).Int("workers", ctrl.config.Workers).Msg("starting organization refresh")

	p := pool.NewWithResults[projectResult]().WithMaxGoroutines(ctrl.config.Workers)
	for _, project := range projects {
		p.Go(func() projectResult {
			_, err := ctrl.RefreshProject(ctx, project.ProjectID)
			return projectResult{projectID: project.ProjectID, err: err}
		})
	}

	outcome := domain.BatchOutcome{Succeeded: []string{}, Failed: []domain.ProjectFailure{}}
	for _, r := range p.Wait() {
		ctrl.metrics.batchProjects.WithLabelValues(result(r.err)).Inc()
		if r.err != nil {
			outcome.Failed = append(outcome.Failed, domain.ProjectFailure{ProjectID: r.projectID, Err: r.err})
			continue
		}
		outcome.Succeeded = append(outcome.Succeeded, r.projectID)
	}
	sort.Strings(outcome.Succeeded)
	sort.Slice(outcome.Failed, func(i, j int) bool { return outcome.Failed[i].ProjectID < outcome.Failed[j].ProjectID })

	logger.Info().
		Int("succeeded", len(outcome.Succeeded)).
		Int("failed", len(outcome.Failed)).
		Msg("organization refresh finished")
	return outcome, nil
}

// Cancel stops every in-flight refresh of the project. Refreshes of other
// projects are not affected.
func (ctrl *DefaultController) Cancel(_ context.Context, projectID string) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	runs, ok := ctrl.running[projectID]
	if !ok || len(runs) == 0 {
		return fmt.Errorf("no refresh running for project %s: %w", projectID, domain.ErrNotFound)
	}
	for _, cancel := range runs {
		cancel()
	}
	return nil
}

func (ctrl *DefaultController) register(ctx context.Context, projectID, runID string) (context.Context, context.CancelFunc) {
	var cancel context.CancelFunc
	if ctrl.config.ProjectTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, ctrl.config.ProjectTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	runs, ok := ctrl.running[projectID]
	if !ok {
		runs = make(map[string]context.CancelFunc)
		ctrl.running[projectID] = runs
	}
	runs[runID] = cancel
	return ctx, cancel
}

func (ctrl *DefaultController) unregister(projectID, runID string, cancel context.CancelFunc) {
	cancel()

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	delete(ctrl.running[projectID], runID)
	if len(ctrl.running[projectID]) == 0 {
		delete(ctrl.running, projectID)
	}
}
