// Package styled holds the console look of the roster: tables and message
// colors.
package styled

import (
	"github.com/aanand-mishra/student-roster/internal/types"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// NewTableWriter returns a new table.Writer with the roster's styles.
func NewTableWriter() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	tw.Style().Color.Header = text.Colors{text.FgCyan, text.Bold}
	tw.Style().Color.Footer = text.Colors{text.FgCyan, text.Bold}

	return tw
}

// StudentTable renders students as a table with a total footer.
func StudentTable(students ...types.Student) string {
	tw := NewTableWriter()
	tw.AppendHeader(table.Row{"Student ID", "First Name", "Last Name"})

	for _, s := range students {
		tw.AppendRow(table.Row{s.ID, s.FirstName, s.LastName})
	}
	if len(students) > 1 {
		tw.AppendFooter(table.Row{"Total", len(students), ""})
	}

	return tw.Render()
}
