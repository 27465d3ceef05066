package perimeter

import (
	"context"
	"fmt"
	"slices"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/de-tools/posture-atlas/pkg/services/controls"
	"github.com/rs/zerolog"
)

type Client interface {
	// ProjectNumber resolves a project id to its numeric resource id.
	ProjectNumber(ctx context.Context, projectID string) (string, error)
	ListAccessPolicies(ctx context.Context, organizationID string) ([]domain.AccessPolicy, error)
	ListServicePerimeters(ctx context.Context, accessPolicy string) ([]domain.ServicePerimeter, error)
}

type Source struct {
	client         Client
	organizationID string
}

func New(client Client, organizationID string) (*Source, error) {
	if client == nil {
		return nil, fmt.Errorf("access context client is required")
	}
	if organizationID == "" {
		return nil, fmt.Errorf("organization id is required")
	}
	return &Source{client: client, organizationID: organizationID}, nil
}

func (s *Source) ID() string { return controls.SourceVPCSCStatus }

// Fetch reports whether the project is listed in the enforced resources of any
// perimeter of the organization's access policies. The first match wins.
func (s *Source) Fetch(ctx context.Context, projectID string) ([]controls.RawRecord, error) {
	logger := zerolog.Ctx(ctx)

	number, err := s.client.ProjectNumber(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project number: %w", err)
	}
	policies, err := s.client.ListAccessPolicies(ctx, s.organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list access policies: %w", err)
	}
	if len(policies) == 0 {
		logger.Debug().Str("organization_id", s.organizationID).Msg("no access policy in organization")
		return []controls.RawRecord{controls.PerimeterRaw{}}, nil
	}

	resource := "projects/" + number
	for _, policy := range policies {
		perimeters, err := s.client.ListServicePerimeters(ctx, policy.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to list perimeters of %s: %w", policy.Name, err)
		}
		for _, p := range perimeters {
			if slices.Contains(p.Resources, resource) {
				return []controls.RawRecord{controls.PerimeterRaw{
					PolicyFound:    true,
					Protected:      true,
					PerimeterTitle: p.Title,
				}}, nil
			}
		}
	}
	return []controls.RawRecord{controls.PerimeterRaw{PolicyFound: true}}, nil
}
