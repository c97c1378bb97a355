package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"pmtm/internal/logging"
	"pmtm/internal/mayaref"
	"pmtm/internal/services"
	"pmtm/internal/session"
	"pmtm/internal/testsupport"
)

func scanFixture(t *testing.T) *mayaref.ScanResult {
	t.Helper()
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "shot01.ma"), testsupport.SceneText("/assets/chr/hero.ma", "/assets/prp/cup.mb"))
	testsupport.WriteFile(t, filepath.Join(root, "shot02.ma"), testsupport.SceneText("/assets/chr/hero.ma"))
	testsupport.WriteFile(t, filepath.Join(root, "empty.ma"), "//Maya ASCII 2022 scene\n")

	scanner := mayaref.NewScanner(mayaref.ScanOptions{}, logging.NewNop())
	result, err := scanner.Scan(root, false, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return result
}

func TestCurrentWithoutScan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.Current(context.Background()); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestSaveScanRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	result := scanFixture(t)

	saved, err := store.SaveScan(ctx, result)
	if err != nil {
		t.Fatalf("SaveScan: %v", err)
	}
	if saved.ScanID == "" {
		t.Fatal("expected scan id")
	}

	loaded, err := store.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if loaded.ScanID != saved.ScanID || loaded.Root != result.Root || loaded.Rewritten {
		t.Fatalf("unexpected snapshot header: %+v", loaded)
	}
	wantScenes := result.Scenes.Scenes()
	gotScenes := loaded.Scenes.Scenes()
	if len(gotScenes) != len(wantScenes) {
		t.Fatalf("scenes = %v, want %v", gotScenes, wantScenes)
	}
	for i := range wantScenes {
		if gotScenes[i] != wantScenes[i] {
			t.Fatalf("scene order = %v, want %v", gotScenes, wantScenes)
		}
		want := result.Scenes.References(wantScenes[i])
		got := loaded.Scenes.References(gotScenes[i])
		if len(got) != len(want) {
			t.Fatalf("refs of %s = %v, want %v", gotScenes[i], got, want)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("refs of %s = %v, want %v", gotScenes[i], got, want)
			}
		}
	}
	if len(loaded.Remap) != 2 {
		t.Fatalf("expected 2 identity entries, got %v", loaded.Remap)
	}
	for _, e := range loaded.Remap {
		if e.Changed() {
			t.Fatalf("expected identity entry, got %+v", e)
		}
	}
}

func TestSaveScanReplacesPreviousSession(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := store.SaveScan(ctx, scanFixture(t))
	if err != nil {
		t.Fatalf("SaveScan: %v", err)
	}
	second, err := store.SaveScan(ctx, scanFixture(t))
	if err != nil {
		t.Fatalf("SaveScan: %v", err)
	}
	loaded, err := store.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if loaded.ScanID != second.ScanID {
		t.Fatalf("expected latest scan %s, got %s", second.ScanID, loaded.ScanID)
	}
	if err := store.SaveRemap(ctx, first.ScanID, nil); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("expected ErrNoSession for replaced scan, got %v", err)
	}
}

func TestSaveRemapPersistsEdits(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	saved, err := store.SaveScan(ctx, scanFixture(t))
	if err != nil {
		t.Fatalf("SaveScan: %v", err)
	}
	entries := []mayaref.Entry{
		{Old: "/assets/chr/hero.ma", New: "/library/chr/hero_v2.ma"},
		{Old: "/assets/prp/cup.mb", New: "/assets/prp/cup.mb"},
	}
	if err := store.SaveRemap(ctx, saved.ScanID, entries); err != nil {
		t.Fatalf("SaveRemap: %v", err)
	}
	loaded, err := store.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	table, err := loaded.RemapTable()
	if err != nil {
		t.Fatalf("RemapTable: %v", err)
	}
	entry, ok := table.Lookup("/assets/chr/hero.ma")
	if !ok || entry.New != "/library/chr/hero_v2.ma" {
		t.Fatalf("unexpected entry %+v (found=%v)", entry, ok)
	}
	if table.Replacements().Len() != 1 {
		t.Fatalf("expected one replacement, got %d", table.Replacements().Len())
	}
}

func TestRewriteHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	snap, err := store.SaveScan(ctx, scanFixture(t))
	if err != nil {
		t.Fatalf("SaveScan: %v", err)
	}
	run, err := store.BeginRewrite(ctx, snap, 1)
	if err != nil {
		t.Fatalf("BeginRewrite: %v", err)
	}
	if run.Status != session.RewriteRunning {
		t.Fatalf("expected running status, got %s", run.Status)
	}
	if _, err := store.BeginRewrite(ctx, snap, 1); !errors.Is(err, mayaref.ErrRescanRequired) {
		t.Fatalf("expected ErrRescanRequired on second rewrite, got %v", err)
	}

	report := &mayaref.RewriteReport{
		Total: 3,
		Outcomes: []mayaref.SceneOutcome{
			{Scene: "/s/empty.ma", Outcome: mayaref.OutcomeSkippedNoReferences},
			{Scene: "/s/shot01.ma", Outcome: mayaref.OutcomeRewritten, Encoding: "utf-8"},
			{Scene: "/s/shot02.ma", Outcome: mayaref.OutcomeFailed, Error: "rename: permission denied"},
		},
	}
	if err := store.FinishRewrite(ctx, run, report, errors.New("rewrite aborted")); err != nil {
		t.Fatalf("FinishRewrite: %v", err)
	}

	loaded, err := store.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if !loaded.Rewritten {
		t.Fatal("expected scan to be marked rewritten")
	}

	runs, err := store.Rewrites(ctx, 10)
	if err != nil {
		t.Fatalf("Rewrites: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.Status != session.RewriteAborted || got.Rewritten != 1 || got.Failed != 1 || got.Skipped != 1 {
		t.Fatalf("unexpected run summary: %+v", got)
	}
	if got.FinishedAt == nil {
		t.Fatal("expected finished_at")
	}

	detail, err := store.Rewrite(ctx, run.ID)
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if len(detail.Outcomes) != 3 || detail.Outcomes[2].Outcome != mayaref.OutcomeFailed || detail.Outcomes[1].Encoding != "utf-8" {
		t.Fatalf("unexpected outcomes: %+v", detail.Outcomes)
	}

	byPrefix, err := store.Rewrite(ctx, run.ID[:8])
	if err != nil || byPrefix.ID != run.ID {
		t.Fatalf("Rewrite by prefix: %+v, %v", byPrefix, err)
	}
	if _, err := store.Rewrite(ctx, "does-not-exist"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHistorySurvivesRescan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	snap, err := store.SaveScan(ctx, scanFixture(t))
	if err != nil {
		t.Fatalf("SaveScan: %v", err)
	}
	run, err := store.BeginRewrite(ctx, snap, 0)
	if err != nil {
		t.Fatalf("BeginRewrite: %v", err)
	}
	if err := store.FinishRewrite(ctx, run, &mayaref.RewriteReport{}, nil); err != nil {
		t.Fatalf("FinishRewrite: %v", err)
	}
	if _, err := store.SaveScan(ctx, scanFixture(t)); err != nil {
		t.Fatalf("SaveScan: %v", err)
	}
	runs, err := store.Rewrites(ctx, 0)
	if err != nil {
		t.Fatalf("Rewrites: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != session.RewriteCompleted {
		t.Fatalf("unexpected history after rescan: %+v", runs)
	}
}

func TestReopenKeepsSession(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	saved, err := store.SaveScan(ctx, scanFixture(t))
	if err != nil {
		t.Fatalf("SaveScan: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	loaded, err := reopened.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if loaded.ScanID != saved.ScanID {
		t.Fatalf("expected %s after reopen, got %s", saved.ScanID, loaded.ScanID)
	}
}
