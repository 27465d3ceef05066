package adapters

import (
	"github.com/de-tools/posture-atlas/pkg/models/api"
	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/de-tools/posture-atlas/pkg/models/store"
)

func MapControlRecordDomainToStore(r domain.ControlRecord) store.ControlRecord {
	return store.ControlRecord{
		Name:             r.Name,
		Status:           string(r.Status),
		ControlType:      r.ControlType,
		Details:          r.Details,
		ControlObjective: r.ControlObjective,
	}
}

// MapControlRecordStoreToDomain maps a persisted record back. Statuses written by an
// older build that are no longer known come back as Unknown.
func MapControlRecordStoreToDomain(r store.ControlRecord) domain.ControlRecord {
	status := domain.ControlStatus(r.Status)
	if !status.Valid() {
		status = domain.ControlStatusUnknown
	}
	return domain.ControlRecord{
		Name:             r.Name,
		Status:           status,
		ControlType:      r.ControlType,
		Details:          r.Details,
		ControlObjective: r.ControlObjective,
	}
}

func MapDashboardDomainToStore(d domain.DashboardDocument) store.Dashboard {
	res := store.Dashboard{
		ProjectID:   d.ProjectID,
		RunID:       d.RunID,
		Sections:    make(map[string]store.Section, len(d.Sections)),
		GeneratedAt: d.GeneratedAt.UTC(),
	}
	for id, s := range d.Sections {
		records := make([]store.ControlRecord, 0, len(s.Records))
		for _, r := range s.Records {
			records = append(records, MapControlRecordDomainToStore(r))
		}
		res.Sections[id] = store.Section{
			Status:  string(s.Status),
			Records: records,
			Error:   s.Error,
			Skipped: s.Skipped,
		}
	}
	return res
}

func MapDashboardStoreToDomain(d store.Dashboard) domain.DashboardDocument {
	res := domain.DashboardDocument{
		ProjectID:   d.ProjectID,
		RunID:       d.RunID,
		Sections:    make(map[string]domain.Section, len(d.Sections)),
		GeneratedAt: d.GeneratedAt,
	}
	for id, s := range d.Sections {
		records := make([]domain.ControlRecord, 0, len(s.Records))
		for _, r := range s.Records {
			records = append(records, MapControlRecordStoreToDomain(r))
		}
		res.Sections[id] = domain.Section{
			SourceID: id,
			Status:   domain.SectionStatus(s.Status),
			Records:  records,
			Error:    s.Error,
			Skipped:  s.Skipped,
		}
	}
	return res
}

func MapDashboardDomainToApi(d domain.DashboardDocument) api.Dashboard {
	res := api.Dashboard{
		ProjectID:   d.ProjectID,
		RunID:       d.RunID,
		Sections:    make(map[string]api.Section, len(d.Sections)),
		GeneratedAt: d.GeneratedAt,
	}
	for id, s := range d.Sections {
		records := make([]api.ControlRecord, 0, len(s.Records))
		for _, r := range s.Records {
			records = append(records, api.ControlRecord{
				Name:             r.Name,
				Status:           string(r.Status),
				ControlType:      r.ControlType,
				Details:          r.Details,
				ControlObjective: r.ControlObjective,
			})
		}
		res.Sections[id] = api.Section{
			Status:  string(s.Status),
			Records: records,
			Error:   s.Error,
			Skipped: s.Skipped,
		}
	}
	return res
}

func MapBatchOutcomeDomainToApi(o domain.BatchOutcome) api.BatchOutcome {
	res := api.BatchOutcome{
		Succeeded: append([]string{}, o.Succeeded...),
		Failed:    make([]api.ProjectFailure, 0, len(o.Failed)),
	}
	for _, f := range o.Failed {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		res.Failed = append(res.Failed, api.ProjectFailure{ProjectID: f.ProjectID, Error: msg})
	}
	return res
}
