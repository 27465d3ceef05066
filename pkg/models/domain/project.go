package domain

import "strings"

type LifecycleState string

const (
	LifecycleStateActive          LifecycleState = "ACTIVE"
	LifecycleStateDeleteRequested LifecycleState = "DELETE_REQUESTED"
	LifecycleStateDeleted         LifecycleState = "DELETED"
	LifecycleStateUnspecified     LifecycleState = "STATE_UNSPECIFIED"
)

// ParseLifecycleState maps the provider's project state onto the known set.
// Anything unrecognised is reported as unspecified.
func ParseLifecycleState(state string) LifecycleState {
	switch LifecycleState(strings.ToUpper(strings.TrimSpace(state))) {
	case LifecycleStateActive:
		return LifecycleStateActive
	case LifecycleStateDeleteRequested:
		return LifecycleStateDeleteRequested
	case LifecycleStateDeleted:
		return LifecycleStateDeleted
	default:
		return LifecycleStateUnspecified
	}
}

const DefaultEnvironment = "N/A"

type ProjectRef struct {
	ProjectID   string
	DisplayName string
	State       LifecycleState
	FolderName  string // empty when the project sits directly under the organization
	Environment string
}

type Folder struct {
	Name        string // folders/123
	DisplayName string
}

// ID returns the numeric part of the folder resource name.
func (f Folder) ID() string {
	if i := strings.LastIndex(f.Name, "/"); i >= 0 {
		return f.Name[i+1:]
	}
	return f.Name
}

type ProjectFilter struct {
	FolderName string
}
