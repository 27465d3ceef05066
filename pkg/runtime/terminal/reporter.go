package terminal

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/de-tools/posture-atlas/pkg/adapters"
	"github.com/de-tools/posture-atlas/pkg/models/api"
	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/de-tools/posture-atlas/pkg/runtime/terminal/export"
)

// Reporter writes command results to the console.
type Reporter interface {
	Projects(projects []domain.ProjectRef) error
	Dashboard(doc *domain.DashboardDocument) error
	Outcome(outcome domain.BatchOutcome) error
	Sources(ids []string) error
}

func newReporter(writer io.Writer, asJSON bool) Reporter {
	if asJSON {
		return newJSONReporter(writer)
	}
	return export.NewReporter(writer)
}

// jsonReporter emits the same shapes as the HTTP API.
type jsonReporter struct {
	enc *json.Encoder
}

func newJSONReporter(writer io.Writer) *jsonReporter {
	if writer == nil {
		writer = os.Stdout
	}
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	return &jsonReporter{enc: enc}
}

func (r *jsonReporter) Projects(projects []domain.ProjectRef) error {
	res := make([]api.Project, 0, len(projects))
	for _, p := range projects {
		res = append(res, adapters.MapProjectDomainToApi(p))
	}
	return r.enc.Encode(res)
}

func (r *jsonReporter) Dashboard(doc *domain.DashboardDocument) error {
	if doc == nil {
		return errors.New("no dashboard to report")
	}
	return r.enc.Encode(adapters.MapDashboardDomainToApi(*doc))
}

func (r *jsonReporter) Outcome(outcome domain.BatchOutcome) error {
	return r.enc.Encode(adapters.MapBatchOutcomeDomainToApi(outcome))
}

func (r *jsonReporter) Sources(ids []string) error {
	return r.enc.Encode(ids)
}
