package sha

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/de-tools/posture-atlas/pkg/services/controls"
	"golang.org/x/sync/errgroup"
)

type Client interface {
	ListEffectiveCustomModules(ctx context.Context, projectID string) ([]domain.CustomModule, error)
	ListSecurityServices(ctx context.Context, projectID string) ([]domain.SecurityService, error)
}

type Source struct {
	client Client
}

func New(client Client) (*Source, error) {
	if client == nil {
		return nil, fmt.Errorf("security center client is required")
	}
	return &Source{client: client}, nil
}

func (s *Source) ID() string { return controls.SourceSHAModules }

// Fetch returns the effective custom modules followed by the built-in modules of
// the Security Health Analytics service. When one of the two listings fails the
// records of the other are still returned along with the error.
func (s *Source) Fetch(ctx context.Context, projectID string) ([]controls.RawRecord, error) {
	var (
		custom, builtin       []controls.RawRecord
		customErr, builtinErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		custom, customErr = s.customModules(ctx, projectID)
		return nil
	})
	g.Go(func() error {
		builtin, builtinErr = s.builtinModules(ctx, projectID)
		return nil
	})
	_ = g.Wait()

	raw := append(custom, builtin...)
	return raw, errors.Join(customErr, builtinErr)
}

func (s *Source) customModules(ctx context.Context, projectID string) ([]controls.RawRecord, error) {
	modules, err := s.client.ListEffectiveCustomModules(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom modules: %w", err)
	}
	raw := make([]controls.RawRecord, 0, len(modules))
	for _, m := range modules {
		raw = append(raw, controls.ScannerModuleRaw{
			Custom:          true,
			Name:            m.Name,
			DisplayName:     m.DisplayName,
			EnablementState: m.EnablementState,
		})
	}
	return raw, nil
}

func (s *Source) builtinModules(ctx context.Context, projectID string) ([]controls.RawRecord, error) {
	services, err := s.client.ListSecurityServices(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list security center services: %w", err)
	}
	for _, svc := range services {
		if !strings.EqualFold(ServiceID(svc), controls.SecurityHealthAnalytics) {
			continue
		}
		names := make([]string, 0, len(svc.Modules))
		for name := range svc.Modules {
			names = append(names, name)
		}
		sort.Strings(names)

		raw := make([]controls.RawRecord, 0, len(names))
		for _, name := range names {
			raw = append(raw, controls.ScannerModuleRaw{
				Name:            name,
				EnablementState: svc.Modules[name],
				ServiceID:       controls.SecurityHealthAnalytics,
			})
		}
		return raw, nil
	}
	return nil, nil
}

// ServiceID returns the trailing id of a security center service resource name.
func ServiceID(svc domain.SecurityService) string {
	if i := strings.LastIndex(svc.Name, "/"); i >= 0 {
		return svc.Name[i+1:]
	}
	return svc.Name
}
