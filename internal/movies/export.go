package movies

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ExportHeader is the first row written by ExportCSV.
var ExportHeader = []string{"Thumbnail", "File", "Frames", "FPS", "Resolution", "Codec", "Colorspace", "Path"}

// ExportCSV writes one row per movie after a header row.
func ExportCSV(w io.Writer, movies []Movie) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, m := range movies {
		record := []string{m.Thumbnail, m.Name, strconv.Itoa(m.Frames), m.FPS, m.Resolution, m.Codec, m.Colorspace, m.Path}
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
