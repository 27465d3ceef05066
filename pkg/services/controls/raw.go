package controls

// RawRecord is the provider shape returned by a Source before normalization.
// The set of variants is closed; Normalize skips anything else.
type RawRecord interface {
	raw()
}

// PolicyRaw is the effective policy of one constraint on a project. Err is set
// when that constraint alone could not be read.
type PolicyRaw struct {
	Constraint string
	Enforced   bool
	Rules      int
	Err        error
}

// PerimeterRaw reports whether the project sits inside a service perimeter.
type PerimeterRaw struct {
	PolicyFound    bool
	Protected      bool
	PerimeterTitle string
}

// ScannerModuleRaw is one scanner detector. Custom modules are user defined and
// carry their resource name; built-in modules are keyed by module name.
type ScannerModuleRaw struct {
	Name            string
	DisplayName     string
	EnablementState string
	Custom          bool
	ServiceID       string
}

type ModuleRaw struct {
	Name           string
	EffectiveState string
}

// ServiceRaw is a managed security service and its modules, sorted by name.
type ServiceRaw struct {
	ServiceID      string
	EffectiveState string
	Modules        []ModuleRaw
}

// FirewallRaw is one firewall rule reduced to whether it blocks all internet ingress.
type FirewallRaw struct {
	Rule                  string
	DeniesInternetIngress bool
}

func (PolicyRaw) raw()        {}
func (PerimeterRaw) raw()     {}
func (ScannerModuleRaw) raw() {}
func (ServiceRaw) raw()       {}
func (FirewallRaw) raw()      {}
