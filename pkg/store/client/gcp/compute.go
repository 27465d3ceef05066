package gcp

import (
	"context"
	"fmt"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	compute "google.golang.org/api/compute/v1"
	"google.golang.org/api/option"
)

type Compute struct {
	svc *compute.Service
}

func NewCompute(ctx context.Context, opts ...option.ClientOption) (*Compute, error) {
	svc, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create compute client: %w", err)
	}
	return &Compute{svc: svc}, nil
}

func (c *Compute) ListFirewalls(ctx context.Context, projectID string) ([]domain.FirewallRule, error) {
	var rules []domain.FirewallRule
	err := c.svc.Firewalls.List(projectID).Pages(ctx, func(list *compute.FirewallList) error {
		for _, fw := range list.Items {
			rule := domain.FirewallRule{
				Name:         fw.Name,
				Direction:    fw.Direction,
				SourceRanges: fw.SourceRanges,
			}
			for _, d := range fw.Denied {
				if d != nil {
					rule.DeniedProtocols = append(rule.DeniedProtocols, d.IPProtocol)
				}
			}
			rules = append(rules, rule)
		}
		return nil
	})
	if err != nil {
		return nil, classify("list firewalls of "+projectID, err)
	}
	return rules, nil
}
