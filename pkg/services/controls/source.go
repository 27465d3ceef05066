package controls

import "context"

const (
	SourceOrgPolicies      = "org_policies"
	SourceVPCSCStatus      = "vpc_sc_status"
	SourceSHAModules       = "sha_modules"
	SourceSecurityServices = "security_services"
	SourceFirewallRules    = "firewall_rules"
)

// DefaultSourceIDs is the source order used when none is configured.
func DefaultSourceIDs() []string {
	return []string{
		SourceOrgPolicies,
		SourceVPCSCStatus,
		SourceSHAModules,
		SourceSecurityServices,
		SourceFirewallRules,
	}
}

// Source fetches the raw control state of one family for a project. An empty
// result with a nil error means nothing is configured. A source may return
// records together with an error when only part of its calls failed.
type Source interface {
	ID() string
	Fetch(ctx context.Context, projectID string) ([]RawRecord, error)
}

const (
	ObjectiveOrgStandards   = "Enforce Organizational Standards"
	ObjectiveExfiltration   = "Prevent Data Exfiltration"
	ObjectiveMisconfig      = "Detect Security Misconfigurations"
	ObjectiveIngress        = "Restrict Ingress Traffic"
	SecurityHealthAnalytics = "SECURITY_HEALTH_ANALYTICS"
)
