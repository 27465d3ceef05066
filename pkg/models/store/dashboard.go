package store

import "time"

// Persisted shapes. These are encoded as JSON and stored as one document per key,
// so field names are part of the on-disk format.

type ControlRecord struct {
	Name             string `json:"name"`
	Status           string `json:"status"`
	ControlType      string `json:"control_type"`
	Details          string `json:"details"`
	ControlObjective string `json:"control_objective,omitempty"`
}

type Section struct {
	Status  string          `json:"status"`
	Records []ControlRecord `json:"records"`
	Error   string          `json:"error,omitempty"`
	Skipped int             `json:"skipped,omitempty"`
}

type Dashboard struct {
	ProjectID   string             `json:"project_id"`
	RunID       string             `json:"run_id"`
	Sections    map[string]Section `json:"sections"`
	GeneratedAt time.Time          `json:"generated_at"`
}

type Project struct {
	ProjectID   string `json:"project_id"`
	DisplayName string `json:"display_name"`
	State       string `json:"state"`
	FolderName  string `json:"folder_name,omitempty"`
	Environment string `json:"environment"`
}

type ProjectList struct {
	OrganizationID string    `json:"organization_id"`
	Projects       []Project `json:"projects"`
	GeneratedAt    time.Time `json:"generated_at"`
}
