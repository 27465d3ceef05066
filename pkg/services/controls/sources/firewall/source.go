package firewall

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/de-tools/posture-atlas/pkg/services/controls"
)

const anyAddress = "0.0.0.0/0"

type Client interface {
	ListFirewalls(ctx context.Context, projectID string) ([]domain.FirewallRule, error)
}

type Source struct {
	client Client
}

func New(client Client) (*Source, error) {
	if client == nil {
		return nil, fmt.Errorf("compute client is required")
	}
	return &Source{client: client}, nil
}

func (s *Source) ID() string { return controls.SourceFirewallRules }

func (s *Source) Fetch(ctx context.Context, projectID string) ([]controls.RawRecord, error) {
	rules, err := s.client.ListFirewalls(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list firewall rules: %w", err)
	}
	raw := make([]controls.RawRecord, 0, len(rules))
	for _, r := range rules {
		raw = append(raw, controls.FirewallRaw{
			Rule:                  r.Name,
			DeniesInternetIngress: DeniesInternetIngress(r),
		})
	}
	return raw, nil
}

// DeniesInternetIngress reports whether the rule drops every protocol coming from any address.
func DeniesInternetIngress(r domain.FirewallRule) bool {
	if !strings.EqualFold(r.Direction, "INGRESS") {
		return false
	}
	deniesAll := slices.ContainsFunc(r.DeniedProtocols, func(p string) bool { return strings.EqualFold(p, "all") })
	return deniesAll && slices.Contains(r.SourceRanges, anyAddress)
}
