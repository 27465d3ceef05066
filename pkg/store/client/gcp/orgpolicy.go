package gcp

import (
	"context"
	"fmt"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"google.golang.org/api/option"
	orgpolicy "google.golang.org/api/orgpolicy/v2"
)

type OrgPolicy struct {
	svc *orgpolicy.Service
}

func NewOrgPolicy(ctx context.Context, opts ...option.ClientOption) (*OrgPolicy, error) {
	svc, err := orgpolicy.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create org policy client: %w", err)
	}
	return &OrgPolicy{svc: svc}, nil
}

func (c *OrgPolicy) GetEffectivePolicy(ctx context.Context, projectID, constraint string) (domain.EffectivePolicy, error) {
	name := fmt.Sprintf("projects/%s/policies/%s", projectID, constraint)
	policy, err := c.svc.Projects.Policies.GetEffectivePolicy(name).Context(ctx).Do()
	if err != nil {
		return domain.EffectivePolicy{}, classify("get effective policy "+constraint, err)
	}
	res := domain.EffectivePolicy{Constraint: constraint}
	if policy.Spec == nil {
		return res, nil
	}
	res.Rules = len(policy.Spec.Rules)
	for _, rule := range policy.Spec.Rules {
		if rule != nil && rule.Enforce {
			res.Enforced = true
			break
		}
	}
	return res, nil
}
