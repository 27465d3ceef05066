package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/de-tools/posture-atlas/pkg/services/config"
	"github.com/de-tools/posture-atlas/pkg/services/controls"
	"github.com/de-tools/posture-atlas/pkg/services/controls/sources"
	"github.com/de-tools/posture-atlas/pkg/services/hierarchy"
	"github.com/de-tools/posture-atlas/pkg/services/refresh"
	"github.com/de-tools/posture-atlas/pkg/store/backend"
	"github.com/de-tools/posture-atlas/pkg/store/cache"
	"github.com/de-tools/posture-atlas/pkg/store/client/gcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Session holds everything the binaries need to serve one configuration.
type Session struct {
	Config     *config.Config
	Controller *refresh.DefaultController
	Store      cache.Store
	Sources    []string
	closer     io.Closer
}

func (s *Session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Open connects the provider clients and the cache backend and builds the
// refresh controller for cfg. Metrics are registered on reg when it is not nil.
func Open(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, opts ...option.ClientOption) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	logger := zerolog.Ctx(ctx)

	clients, err := gcp.NewClients(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider clients: %w", err)
	}

	resolver, err := hierarchy.NewResolver(clients.ResourceManager, cfg.ResolverSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to create hierarchy resolver: %w", err)
	}

	registry := controls.NewRegistry()
	err = sources.Register(registry, sources.Clients{
		OrgPolicy:      clients.OrgPolicy,
		AccessContext:  clients.AccessContext,
		SecurityCenter: clients.SecurityCenter,
		Compute:        clients.Compute,
	}, cfg.SourceSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to register control sources: %w", err)
	}
	srcs, err := registry.Build(cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("failed to build control sources: %w", err)
	}

	kv, closer, err := backend.Open(ctx, cfg.BackendSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to open cache backend: %w", err)
	}
	store, err := cache.NewStore(kv)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	metrics, err := refresh.NewMetrics(reg)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	ctrl, err := refresh.NewController(cfg.ControllerConfig(), resolver, srcs, store, metrics)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to create refresh controller: %w", err)
	}

	logger.Info().
		Str("organization_id", cfg.OrganizationID).
		Strs("sources", cfg.Sources).
		Str("cache_driver", cfg.Cache.Driver).
		Msg("session ready")

	return &Session{
		Config:     cfg,
		Controller: ctrl,
		Store:      store,
		Sources:    append([]string(nil), cfg.Sources...),
		closer:     closer,
	}, nil
}
