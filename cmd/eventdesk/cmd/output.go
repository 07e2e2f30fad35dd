package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/sanitize"
	"github.com/olekukonko/tablewriter"
	"sigs.k8s.io/yaml"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"

	maxCellWidth = 40
)

func checkOutputFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// render writes v as JSON or YAML. Table output is handled by the caller.
func render(out io.Writer, format string, v any) error {
	switch format {
	case formatYAML:
		b, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = out.Write(b)
		return err
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func newTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	return table
}

func writeEventTable(out io.Writer, list []events.Event) {
	table := newTable(out, []string{"ID", "Name", "Date", "Location", "Seats"})
	for _, ev := range list {
		table.Append([]string{
			ev.ID,
			sanitize.Cell(ev.Name, maxCellWidth),
			sanitize.Cell(ev.Date, maxCellWidth),
			sanitize.Cell(ev.Location, maxCellWidth),
			strconv.Itoa(len(ev.Participants)) + "/" + strconv.Itoa(ev.MaxParticipants),
		})
	}
	table.Render()
}

func writeEventDetail(out io.Writer, ev events.Event) {
	fmt.Fprintf(out, "ID:           %s\n", ev.ID)
	fmt.Fprintf(out, "Name:         %s\n", sanitize.Cell(ev.Name, 0))
	fmt.Fprintf(out, "Date:         %s\n", sanitize.Cell(ev.Date, 0))
	fmt.Fprintf(out, "Location:     %s\n", sanitize.Cell(ev.Location, 0))
	fmt.Fprintf(out, "Participants: %d/%d (%d open)\n", len(ev.Participants), ev.MaxParticipants, ev.Remaining())
	if desc := sanitize.Text(ev.Description); desc != "" {
		fmt.Fprintf(out, "\n%s\n", desc)
	}
}

func writeParticipantTable(out io.Writer, list []events.Participant) {
	table := newTable(out, []string{"Name", "Email", "Phone", "Registered"})
	for _, p := range list {
		registered := ""
		if p.RegistrationDate != nil {
			registered = p.RegistrationDate.Format("2006-01-02")
		}
		table.Append([]string{
			sanitize.Cell(p.FullName, maxCellWidth),
			sanitize.Cell(p.Email, maxCellWidth),
			sanitize.Cell(p.Phone, maxCellWidth),
			registered,
		})
	}
	table.Render()
}
