package api

import "time"

type ControlRecord struct {
	Name             string `json:"name"`
	Status           string `json:"status"`
	ControlType      string `json:"controlType"`
	Details          string `json:"details"`
	ControlObjective string `json:"controlObjective,omitempty"`
}

type Section struct {
	Status  string          `json:"status"`
	Records []ControlRecord `json:"records"`
	Error   string          `json:"error,omitempty"`
	Skipped int             `json:"skipped,omitempty"`
}

type Dashboard struct {
	ProjectID   string             `json:"projectId"`
	RunID       string             `json:"runId"`
	Sections    map[string]Section `json:"sections"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

type Project struct {
	ProjectID   string `json:"projectId"`
	DisplayName string `json:"displayName"`
	State       string `json:"state"`
	FolderName  string `json:"folderName,omitempty"`
	Environment string `json:"environment"`
}

type ProjectList struct {
	OrganizationID string    `json:"organizationId"`
	Projects       []Project `json:"projects"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

type ProjectFailure struct {
	ProjectID string `json:"projectId"`
	Error     string `json:"error"`
}

type BatchOutcome struct {
	Succeeded []string         `json:"succeeded"`
	Failed    []ProjectFailure `json:"failed"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
