package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
)

// column describes one table column. Numeric columns align right; path
// columns are cut from the left to pathColumnWidth so file names stay visible.
type column struct {
	title   string
	numeric bool
	path    bool
}

const pathColumnWidth = 60

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if col.numeric {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i, col := range columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if col.path {
				cell = truncateLeft(cell, pathColumnWidth)
			}
			r[i] = cell
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

// truncateLeft shortens value to at most width display cells by dropping
// leading runes, so the file name at the end of a path stays visible. Wide
// (CJK) runes count as two cells.
func truncateLeft(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	const ellipsis = "..."
	budget := width - runewidth.StringWidth(ellipsis)
	runes := []rune(value)
	used := 0
	start := len(runes)
	for start > 0 {
		w := runewidth.RuneWidth(runes[start-1])
		if used+w > budget {
			break
		}
		used += w
		start--
	}
	return ellipsis + string(runes[start:])
}
