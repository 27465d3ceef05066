package gcp

import (
	"context"
	"fmt"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	acm "google.golang.org/api/accesscontextmanager/v1"
	"google.golang.org/api/option"
)

// AccessContext reads VPC Service Controls policies. Project numbers are resolved
// through the resource manager.
type AccessContext struct {
	svc *acm.Service
	*ResourceManager
}

func NewAccessContext(ctx context.Context, rm *ResourceManager, opts ...option.ClientOption) (*AccessContext, error) {
	svc, err := acm.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create access context manager client: %w", err)
	}
	return &AccessContext{svc: svc, ResourceManager: rm}, nil
}

func (c *AccessContext) ListAccessPolicies(ctx context.Context, organizationID string) ([]domain.AccessPolicy, error) {
	var policies []domain.AccessPolicy
	err := c.svc.AccessPolicies.List().Parent("organizations/"+organizationID).Pages(ctx, func(resp *acm.ListAccessPoliciesResponse) error {
		for _, p := range resp.AccessPolicies {
			policies = append(policies, domain.AccessPolicy{Name: p.Name, Title: p.Title})
		}
		return nil
	})
	if err != nil {
		return nil, classify("list access policies", err)
	}
	return policies, nil
}

func (c *AccessContext) ListServicePerimeters(ctx context.Context, accessPolicy string) ([]domain.ServicePerimeter, error) {
	var perimeters []domain.ServicePerimeter
	err := c.svc.AccessPolicies.ServicePerimeters.List(accessPolicy).Pages(ctx, func(resp *acm.ListServicePerimetersResponse) error {
		for _, p := range resp.ServicePerimeters {
			sp := domain.ServicePerimeter{Name: p.Name, Title: p.Title}
			if p.Status != nil {
				sp.Resources = p.Status.Resources
			}
			perimeters = append(perimeters, sp)
		}
		return nil
	})
	if err != nil {
		return nil, classify("list service perimeters of "+accessPolicy, err)
	}
	return perimeters, nil
}
