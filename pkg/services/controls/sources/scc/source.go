package scc

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/de-tools/posture-atlas/pkg/services/controls"
	"github.com/de-tools/posture-atlas/pkg/services/controls/sources/sha"
)

type Client interface {
	ListSecurityServices(ctx context.Context, projectID string) ([]domain.SecurityService, error)
}

// Source reports the managed Security Command Center services of a project.
// Security Health Analytics is left to the sha source.
type Source struct {
	client Client
}

func New(client Client) (*Source, error) {
	if client == nil {
		return nil, fmt.Errorf("security center client is required")
	}
	return &Source{client: client}, nil
}

func (s *Source) ID() string { return controls.SourceSecurityServices }

func (s *Source) Fetch(ctx context.Context, projectID string) ([]controls.RawRecord, error) {
	services, err := s.client.ListSecurityServices(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list security center services: %w", err)
	}

	raw := make([]controls.RawRecord, 0, len(services))
	for _, svc := range services {
		id := sha.ServiceID(svc)
		if strings.EqualFold(id, controls.SecurityHealthAnalytics) {
			continue
		}
		names := make([]string, 0, len(svc.Modules))
		for name := range svc.Modules {
			names = append(names, name)
		}
		sort.Strings(names)

		modules := make([]controls.ModuleRaw, 0, len(names))
		for _, name := range names {
			modules = append(modules, controls.ModuleRaw{Name: name, EffectiveState: svc.Modules[name]})
		}
		raw = append(raw, controls.ServiceRaw{
			ServiceID:      id,
			EffectiveState: svc.EffectiveState,
			Modules:        modules,
		})
	}
	return raw, nil
}
