package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pmtm/internal/mayaref"
	"pmtm/internal/services"
)

// BeginRewrite records a running rewrite for scanID and marks the scan as
// rewritten, so a crash mid-batch still forces a rescan.
func (s *Store) BeginRewrite(ctx context.Context, snap *Snapshot, replacements int) (*RewriteRun, error) {
	run := &RewriteRun{
		ID:           uuid.NewString(),
		ScanID:       snap.ScanID,
		Root:         snap.Root,
		StartedAt:    time.Now().UTC(),
		Status:       RewriteRunning,
		Replacements: replacements,
		Total:        snap.Scenes.Len(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `UPDATE scans SET rewritten = 1 WHERE id = ? AND rewritten = 0`, snap.ScanID)
	if err != nil {
		return nil, fmt.Errorf("mark scan rewritten: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, mayaref.ErrRescanRequired
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rewrites (id, scan_id, root, started_at, status, replacements, total)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ScanID, run.Root, formatTime(run.StartedAt), run.Status, run.Replacements, run.Total,
	); err != nil {
		return nil, fmt.Errorf("insert rewrite: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rewrite: %w", err)
	}
	return run, nil
}

// FinishRewrite stores the outcomes and terminal status of run.
func (s *Store) FinishRewrite(ctx context.Context, run *RewriteRun, report *mayaref.RewriteReport, runErr error) error {
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	run.Status = RewriteCompleted
	if runErr != nil {
		run.Status = RewriteAborted
		run.Error = runErr.Error()
	}
	if report != nil {
		run.Outcomes = report.Outcomes
		for _, so := range report.Outcomes {
			switch {
			case so.Outcome == mayaref.OutcomeRewritten:
				run.Rewritten++
			case so.Outcome == mayaref.OutcomeFailed:
				run.Failed++
			case so.Outcome.Skipped():
				run.Skipped++
			}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`UPDATE rewrites
            SET finished_at = ?, status = ?, error_message = ?, rewritten = ?, skipped = ?, failed = ?
          WHERE id = ?`,
		formatTime(finished), run.Status, nullableString(run.Error),
		run.Rewritten, run.Skipped, run.Failed, run.ID,
	); err != nil {
		return fmt.Errorf("update rewrite: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rewrite_outcomes (rewrite_id, position, scene, outcome, encoding, error_message) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare outcome insert: %w", err)
	}
	defer stmt.Close()
	for i, so := range run.Outcomes {
		if _, err := stmt.ExecContext(ctx, run.ID, i, so.Scene, string(so.Outcome), nullableString(so.Encoding), nullableString(so.Error)); err != nil {
			return fmt.Errorf("insert outcome %s: %w", so.Scene, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rewrite outcomes: %w", err)
	}
	return nil
}

// Rewrites returns the newest rewrite runs first. limit <= 0 returns all runs.
func (s *Store) Rewrites(ctx context.Context, limit int) ([]RewriteRun, error) {
	query := `SELECT id, scan_id, root, started_at, finished_at, status, error_message,
                     replacements, total, rewritten, skipped, failed
                FROM rewrites ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rewrites: %w", err)
	}
	defer rows.Close()

	var runs []RewriteRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Rewrite loads one run together with its per-scene outcomes. id may be a
// unique prefix of the run id, as printed by the history listing.
func (s *Store) Rewrite(ctx context.Context, id string) (*RewriteRun, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("rewrite id is required")
	}
	matches, err := s.db.QueryContext(ctx,
		`SELECT id, scan_id, root, started_at, finished_at, status, error_message,
                replacements, total, rewritten, skipped, failed
           FROM rewrites WHERE id = ? OR substr(id, 1, ?) = ? LIMIT 2`, id, len(id), id)
	if err != nil {
		return nil, fmt.Errorf("query rewrite: %w", err)
	}
	var found []*RewriteRun
	for matches.Next() {
		run, err := scanRun(matches)
		if err != nil {
			matches.Close()
			return nil, err
		}
		found = append(found, run)
	}
	if err := matches.Close(); err != nil {
		return nil, fmt.Errorf("close rewrite rows: %w", err)
	}
	switch {
	case len(found) == 0:
		return nil, fmt.Errorf("%w: rewrite %s", services.ErrNotFound, id)
	case len(found) > 1:
		return nil, fmt.Errorf("%w: rewrite id prefix %s is ambiguous", services.ErrValidation, id)
	}
	run := found[0]

	rows, err := s.db.QueryContext(ctx,
		`SELECT scene, outcome, encoding, error_message FROM rewrite_outcomes WHERE rewrite_id = ? ORDER BY position`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var so mayaref.SceneOutcome
		var outcome string
		var encoding, msg sql.NullString
		if err := rows.Scan(&so.Scene, &outcome, &encoding, &msg); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		so.Outcome = mayaref.Outcome(outcome)
		so.Encoding = encoding.String
		so.Error = msg.String
		run.Outcomes = append(run.Outcomes, so)
	}
	return run, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*RewriteRun, error) {
	var run RewriteRun
	var startedRaw, status string
	var finishedRaw, errMsg sql.NullString
	if err := scanner.Scan(
		&run.ID, &run.ScanID, &run.Root, &startedRaw, &finishedRaw, &status, &errMsg,
		&run.Replacements, &run.Total, &run.Rewritten, &run.Skipped, &run.Failed,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan rewrite: %w", err)
	}
	run.Status = RewriteStatus(status)
	run.Error = errMsg.String
	started, err := parseTimeString(startedRaw)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = started
	if finishedRaw.Valid {
		finished, err := parseTimeString(finishedRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = &finished
	}
	return &run, nil
}
