package mayaframe

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ExportHeader is the first row written by ExportCSV.
var ExportHeader = []string{"File", "Start (ast)", "End (aet)", "Playback min", "Playback max", "Path"}

// ExportCSV writes one row per scene after a header row. Missing flags are
// written as empty cells.
func ExportCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{row.File, Cell(row.Start), Cell(row.End), Cell(row.Min), Cell(row.Max), row.Path}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Cell formats an optional frame number.
func Cell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
