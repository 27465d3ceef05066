package sources

import (
	"github.com/de-tools/posture-atlas/pkg/services/controls"
	"github.com/de-tools/posture-atlas/pkg/services/controls/sources/firewall"
	"github.com/de-tools/posture-atlas/pkg/services/controls/sources/orgpolicy"
	"github.com/de-tools/posture-atlas/pkg/services/controls/sources/perimeter"
	"github.com/de-tools/posture-atlas/pkg/services/controls/sources/scc"
	"github.com/de-tools/posture-atlas/pkg/services/controls/sources/sha"
)

type SecurityCenterClient interface {
	sha.Client
	scc.Client
}

type Clients struct {
	OrgPolicy      orgpolicy.Client
	AccessContext  perimeter.Client
	SecurityCenter SecurityCenterClient
	Compute        firewall.Client
}

type Settings struct {
	OrganizationID    string
	Constraints       []string
	PolicyConcurrency int
}

// Register adds a factory for every known source to reg. Factories are lazy, so
// a source that is not configured never checks its client.
func Register(reg controls.Registry, clients Clients, settings Settings) error {
	factories := map[string]controls.Factory{
		controls.SourceOrgPolicies: func() (controls.Source, error) {
			return orgpolicy.New(clients.OrgPolicy, settings.Constraints, settings.PolicyConcurrency)
		},
		controls.SourceVPCSCStatus: func() (controls.Source, error) {
			return perimeter.New(clients.AccessContext, settings.OrganizationID)
		},
		controls.SourceSHAModules: func() (controls.Source, error) {
			return sha.New(clients.SecurityCenter)
		},
		controls.SourceSecurityServices: func() (controls.Source, error) {
			return scc.New(clients.SecurityCenter)
		},
		controls.SourceFirewallRules: func() (controls.Source, error) {
			return firewall.New(clients.Compute)
		},
	}
	for _, id := range controls.DefaultSourceIDs() {
		if err := reg.Register(id, factories[id]); err != nil {
			return err
		}
	}
	return nil
}
