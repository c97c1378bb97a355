package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"pmtm/internal/config"
	"pmtm/internal/mayaref"
)

// ErrNoSession is returned when no scan has been saved yet.
var ErrNoSession = errors.New("no scan session; run `pmtm refs scan` first")

// Store persists scan sessions and rewrite history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the session database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.SessionDBPath())
}

// OpenPath opens the database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// foreign_keys is a per-connection setting.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	store := &Store{db: db, path: dbPath}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// SaveScan replaces the stored session with result and an identity remap table.
func (s *Store) SaveScan(ctx context.Context, result *mayaref.ScanResult) (*Snapshot, error) {
	snap := &Snapshot{
		ScanID:    uuid.NewString(),
		Root:      result.Root,
		Recurse:   result.Recurse,
		CreatedAt: time.Now().UTC(),
		Scenes:    result.Scenes,
		Failures:  failureMap(result.Failures),
		Remap:     mayaref.NewRemapTable(result.References).Entries(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scans`); err != nil {
		return nil, fmt.Errorf("clear previous scan: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO scans (id, root, recurse, created_at, rewritten) VALUES (?, ?, ?, ?, 0)`,
		snap.ScanID, snap.Root, boolToInt(snap.Recurse), formatTime(snap.CreatedAt),
	); err != nil {
		return nil, fmt.Errorf("insert scan: %w", err)
	}

	sceneStmt, err := tx.PrepareContext(ctx, `INSERT INTO scenes (scan_id, position, path, failure) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare scene insert: %w", err)
	}
	defer sceneStmt.Close()
	refStmt, err := tx.PrepareContext(ctx, `INSERT INTO scene_refs (scan_id, scene_position, position, reference) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare reference insert: %w", err)
	}
	defer refStmt.Close()

	for i, scene := range snap.Scenes.Scenes() {
		if _, err := sceneStmt.ExecContext(ctx, snap.ScanID, i, scene, nullableString(snap.Failures[scene])); err != nil {
			return nil, fmt.Errorf("insert scene %s: %w", scene, err)
		}
		for j, ref := range snap.Scenes.References(scene) {
			if _, err := refStmt.ExecContext(ctx, snap.ScanID, i, j, ref); err != nil {
				return nil, fmt.Errorf("insert reference %s: %w", ref, err)
			}
		}
	}
	if err := insertRemap(ctx, tx, snap.ScanID, snap.Remap); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit scan: %w", err)
	}
	return snap, nil
}

// Current loads the stored session.
func (s *Store) Current(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Scenes: mayaref.NewSceneMap(), Failures: map[string]string{}}
	var recurse, rewritten int
	var createdRaw string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, root, recurse, created_at, rewritten FROM scans ORDER BY created_at DESC LIMIT 1`,
	).Scan(&snap.ScanID, &snap.Root, &recurse, &createdRaw, &rewritten)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load scan: %w", err)
	}
	snap.Recurse = recurse != 0
	snap.Rewritten = rewritten != 0
	if snap.CreatedAt, err = parseTimeString(createdRaw); err != nil {
		return nil, fmt.Errorf("parse scan time: %w", err)
	}

	if err := s.loadScenes(ctx, snap); err != nil {
		return nil, err
	}
	if snap.Remap, err = s.loadRemap(ctx, snap.ScanID); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) loadScenes(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.path, s.failure, r.reference
           FROM scenes s
           LEFT JOIN scene_refs r ON r.scan_id = s.scan_id AND r.scene_position = s.position
          WHERE s.scan_id = ?
          ORDER BY s.position, r.position`, snap.ScanID)
	if err != nil {
		return fmt.Errorf("query scenes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var path string
		var failure, ref sql.NullString
		if err := rows.Scan(&path, &failure, &ref); err != nil {
			return fmt.Errorf("scan scene row: %w", err)
		}
		snap.Scenes.AddScene(path)
		if failure.Valid {
			snap.Failures[path] = failure.String
		}
		if ref.Valid {
			snap.Scenes.AddReference(path, ref.String)
		}
	}
	return rows.Err()
}

func (s *Store) loadRemap(ctx context.Context, scanID string) ([]mayaref.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT old_path, new_path FROM remaps WHERE scan_id = ? ORDER BY position`, scanID)
	if err != nil {
		return nil, fmt.Errorf("query remaps: %w", err)
	}
	defer rows.Close()

	var entries []mayaref.Entry
	for rows.Next() {
		var e mayaref.Entry
		if err := rows.Scan(&e.Old, &e.New); err != nil {
			return nil, fmt.Errorf("scan remap row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveRemap replaces the remap table of scanID.
func (s *Store) SaveRemap(ctx context.Context, scanID string, entries []mayaref.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM scans WHERE id = ?`, scanID).Scan(&exists); err != nil {
		return fmt.Errorf("check scan: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: scan %s was replaced", ErrNoSession, scanID)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM remaps WHERE scan_id = ?`, scanID); err != nil {
		return fmt.Errorf("clear remaps: %w", err)
	}
	if err := insertRemap(ctx, tx, scanID, entries); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remaps: %w", err)
	}
	return nil
}

func insertRemap(ctx context.Context, tx *sql.Tx, scanID string, entries []mayaref.Entry) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO remaps (scan_id, position, old_path, new_path) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare remap insert: %w", err)
	}
	defer stmt.Close()
	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, scanID, i, e.Old, e.New); err != nil {
			return fmt.Errorf("insert remap %s: %w", e.Old, err)
		}
	}
	return nil
}

func failureMap(failures []error) map[string]string {
	out := make(map[string]string, len(failures))
	for _, err := range failures {
		var encErr *mayaref.EncodingError
		var readErr *mayaref.ReadError
		switch {
		case errors.As(err, &encErr):
			out[encErr.Scene] = err.Error()
		case errors.As(err, &readErr):
			out[readErr.Scene] = err.Error()
		}
	}
	return out
}
