package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// listColumn describes one column of a CLI listing. Numeric columns
// (identifiers, ages, counts) are right-aligned.
type listColumn struct {
	title   string
	numeric bool
}

// renderListing lays out roster-style rows with the rounded style used by
// every mindcare listing. Short rows are padded with empty cells.
func renderListing(columns []listColumn, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, column := range columns {
		header[i] = column.title
		align := text.AlignLeft
		if column.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		cells := make(table.Row, len(columns))
		for i := range cells {
			if i < len(row) {
				cells[i] = row[i]
			} else {
				cells[i] = ""
			}
		}
		tw.AppendRow(cells)
	}

	return tw.Render()
}
