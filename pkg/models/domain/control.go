package domain

type ControlStatus string

const (
	ControlStatusEnabled  ControlStatus = "Enabled"
	ControlStatusDisabled ControlStatus = "Disabled"
	ControlStatusError    ControlStatus = "Error"
	ControlStatusUnknown  ControlStatus = "Unknown"
)

func (s ControlStatus) Valid() bool {
	switch s {
	case ControlStatusEnabled, ControlStatusDisabled, ControlStatusError, ControlStatusUnknown:
		return true
	}
	return false
}

type ControlRecord struct {
	Name             string
	Status           ControlStatus
	ControlType      string
	Details          string
	ControlObjective string
}
