package session

import (
	"time"

	"pmtm/internal/mayaref"
)

// Snapshot is the persisted state of the latest scan.
type Snapshot struct {
	ScanID    string
	Root      string
	Recurse   bool
	CreatedAt time.Time
	Scenes    *mayaref.SceneMap
	// Failures maps scene paths to the read or decode error recorded at scan time.
	Failures  map[string]string
	Remap     []mayaref.Entry
	Rewritten bool
}

// RemapTable rebuilds the editable table from the snapshot.
func (s *Snapshot) RemapTable() (*mayaref.RemapTable, error) {
	return mayaref.RestoreRemapTable(s.Remap)
}

// RewriteStatus is the terminal state of a rewrite run.
type RewriteStatus string

const (
	RewriteRunning   RewriteStatus = "running"
	RewriteCompleted RewriteStatus = "completed"
	RewriteAborted   RewriteStatus = "aborted"
)

// RewriteRun is one row of rewrite history.
type RewriteRun struct {
	ID           string                 `json:"id"`
	ScanID       string                 `json:"scan_id"`
	Root         string                 `json:"root"`
	StartedAt    time.Time              `json:"started_at"`
	FinishedAt   *time.Time             `json:"finished_at,omitempty"`
	Status       RewriteStatus          `json:"status"`
	Error        string                 `json:"error,omitempty"`
	Replacements int                    `json:"replacements"`
	Total        int                    `json:"total"`
	Rewritten    int                    `json:"rewritten"`
	Skipped      int                    `json:"skipped"`
	Failed       int                    `json:"failed"`
	Outcomes     []mayaref.SceneOutcome `json:"outcomes,omitempty"`
}
