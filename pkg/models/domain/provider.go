package domain

// Provider resources as returned by the cloud clients, reduced to the fields the
// control sources read.

type EffectivePolicy struct {
	Constraint string
	Rules      int
	Enforced   bool // at least one rule enforces the constraint
}

type AccessPolicy struct {
	Name  string // accessPolicies/123
	Title string
}

type ServicePerimeter struct {
	Name      string
	Title     string
	Resources []string // projects/<number>
}

type SecurityService struct {
	Name           string // projects/p/locations/global/securityCenterServices/<ID>
	EffectiveState string
	Modules        map[string]string // module name -> effective enablement state
}

type CustomModule struct {
	Name            string
	DisplayName     string
	EnablementState string
}

type FirewallRule struct {
	Name            string
	Direction       string
	DeniedProtocols []string
	SourceRanges    []string
}
