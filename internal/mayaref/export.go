package mayaref

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ExportHeader is the first row written by ExportCSV.
var ExportHeader = []string{"Maya file", "Reference"}

// ExportCSV writes one row per scene/reference pair after a header row.
// Scenes without references produce no rows.
func ExportCSV(w io.Writer, scenes *SceneMap) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, pair := range scenes.Pairs() {
		if err := cw.Write([]string{pair.Scene, pair.Reference}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
