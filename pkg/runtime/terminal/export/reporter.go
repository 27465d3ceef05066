package export

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/jedib0t/go-pretty/v6/table"
)

type TableConfig struct {
	Style          table.Style
	DetailsWidth   int
	ObjectiveWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		Style:          table.StyleLight,
		DetailsWidth:   60,
		ObjectiveWidth: 30,
	}
}

// Reporter renders projects, dashboards and batch outcomes as console tables.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(c.writer)
	tw.SetStyle(c.config.Style)
	return tw
}

func (c *Reporter) Projects(projects []domain.ProjectRef) error {
	tw := c.newTable()
	tw.AppendHeader(table.Row{"Project ID", "Name", "State", "Folder", "Environment"})
	for _, p := range projects {
		tw.AppendRow(table.Row{p.ProjectID, p.DisplayName, p.State, p.FolderName, p.Environment})
	}
	tw.AppendFooter(table.Row{"", "", "", "Total", len(projects)})
	tw.Render()
	return nil
}

func (c *Reporter) Dashboard(doc *domain.DashboardDocument) error {
	if doc == nil {
		return fmt.Errorf("no dashboard to report")
	}
	if _, err := fmt.Fprintf(c.writer, "Project: %s\nRun: %s\nGenerated: %s\n",
		doc.ProjectID, doc.RunID, doc.GeneratedAt.Format("2006-01-02 15:04:05 MST")); err != nil {
		return err
	}

	ids := make([]string, 0, len(doc.Sections))
	for id := range doc.Sections {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tw := c.newTable()
	tw.AppendHeader(table.Row{"Section", "Control", "Status", "Type", "Details", "Objective"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Details", WidthMax: c.config.DetailsWidth},
		{Name: "Objective", WidthMax: c.config.ObjectiveWidth},
	})
	for i, id := range ids {
		section := doc.Sections[id]
		if i > 0 {
			tw.AppendSeparator()
		}
		if section.Status == domain.SectionStatusError {
			tw.AppendRow(table.Row{id, "", "SOURCE ERROR", "", section.Error, ""})
		}
		for _, r := range section.Records {
			tw.AppendRow(table.Row{id, r.Name, r.Status, r.ControlType, r.Details, r.ControlObjective})
		}
		if section.Status == domain.SectionStatusOK && len(section.Records) == 0 {
			tw.AppendRow(table.Row{id, "", "", "", "no controls reported", ""})
		}
	}
	tw.Render()
	return nil
}

func (c *Reporter) Outcome(outcome domain.BatchOutcome) error {
	tw := c.newTable()
	tw.AppendHeader(table.Row{"Project ID", "Result", "Error"})
	for _, id := range outcome.Succeeded {
		tw.AppendRow(table.Row{id, "refreshed", ""})
	}
	for _, f := range outcome.Failed {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		tw.AppendRow(table.Row{f.ProjectID, "failed", msg})
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d refreshed, %d failed", len(outcome.Succeeded), len(outcome.Failed)), ""})
	tw.Render()
	return nil
}

func (c *Reporter) Sources(ids []string) error {
	tw := c.newTable()
	tw.AppendHeader(table.Row{"#", "Source"})
	for i, id := range ids {
		tw.AppendRow(table.Row{i + 1, id})
	}
	tw.Render()
	return nil
}
