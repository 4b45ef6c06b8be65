package cli

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderTable writes rows under header in the light box style.
func renderTable(w io.Writer, header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
}
