package domain

import (
	"sort"
	"time"
)

type SectionStatus string

const (
	SectionStatusOK    SectionStatus = "ok"
	SectionStatusError SectionStatus = "error"
)

// Section holds the normalized output of one control source. A failed source
// keeps whatever records it produced before failing next to the error.
type Section struct {
	SourceID string
	Status   SectionStatus
	Records  []ControlRecord
	Error    string
	Skipped  int
}

type DashboardDocument struct {
	ProjectID   string
	RunID       string
	Sections    map[string]Section
	GeneratedAt time.Time
}

func (d *DashboardDocument) PopulatedSections() []string {
	return d.sectionsWithStatus(SectionStatusOK)
}

func (d *DashboardDocument) FailedSections() []string {
	return d.sectionsWithStatus(SectionStatusError)
}

func (d *DashboardDocument) sectionsWithStatus(status SectionStatus) []string {
	var ids []string
	for id, s := range d.Sections {
		if s.Status == status {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// ProjectList is the organization-wide inventory cached next to the dashboards.
type ProjectList struct {
	OrganizationID string
	Projects       []ProjectRef
	GeneratedAt    time.Time
}

type ProjectFailure struct {
	ProjectID string
	Err       error
}

type BatchOutcome struct {
	Succeeded []string
	Failed    []ProjectFailure
}
