package mayaref

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"pmtm/internal/logging"
)

func newTestSession() *Session {
	return NewSession(newTestScanner(), newTestRewriter())
}

func TestSessionEndToEnd(t *testing.T) {
	root := t.TempDir()
	assets := filepath.ToSlash(filepath.Join(root, "assets"))
	charV1 := assets + "/char_v1.ma"
	charV2 := assets + "/char_v2.ma"
	propV2 := assets + "/prop_v2.mb"
	writeFile(t, charV2, "//Maya ASCII 2022 scene\n")

	scenes := filepath.Join(root, "scenes")
	shot01 := writeFile(t, filepath.Join(scenes, "shot01.ma"), sceneText(charV1))
	shot02 := writeFile(t, filepath.Join(scenes, "shot02.ma"), sceneText(charV1, propV2))

	session := newTestSession()
	result, err := session.Scan(scenes, false, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !reflect.DeepEqual(result.References, []string{charV1, propV2}) {
		t.Fatalf("References = %v", result.References)
	}
	if got := result.Scenes.References(shot02); !reflect.DeepEqual(got, []string{charV1, propV2}) {
		t.Fatalf("shot02 refs = %v", got)
	}

	if _, err := session.Set(charV1, charV2, false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	report, err := session.Rewrite(nil)
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	for _, so := range report.Outcomes {
		if so.Outcome != OutcomeRewritten {
			t.Fatalf("%s outcome = %s", so.Scene, so.Outcome)
		}
	}
	for _, scene := range []string{shot01, shot02} {
		content := readFile(t, scene)
		if strings.Contains(content, charV1) || !strings.Contains(content, charV2) {
			t.Fatalf("%s not rewritten:\n%s", scene, content)
		}
	}
	if !strings.Contains(readFile(t, shot02), `-typ "mayaBinary" "`+propV2+`";`) {
		t.Fatal("prop reference must be untouched")
	}
}

func TestSessionRequiresRescanAfterRewrite(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shot.ma"), sceneText("/p/a.ma"))

	session := newTestSession()
	if _, err := session.Rewrite(nil); !errors.Is(err, ErrNoScan) {
		t.Fatalf("expected ErrNoScan before scanning, got %v", err)
	}
	if _, err := session.Scan(root, false, nil); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if _, err := session.Rewrite(nil); err != nil {
		t.Fatalf("first Rewrite: %v", err)
	}
	if _, err := session.Rewrite(nil); !errors.Is(err, ErrRescanRequired) {
		t.Fatalf("expected ErrRescanRequired, got %v", err)
	}
	if _, err := session.Scan(root, false, nil); err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if session.Rewritten() {
		t.Fatal("rescan must clear rewritten state")
	}
	if _, err := session.Rewrite(nil); err != nil {
		t.Fatalf("rewrite after rescan: %v", err)
	}
}

func TestSessionEditsNeedScan(t *testing.T) {
	session := newTestSession()
	if _, err := session.Set("/a.ma", "/b.ma", false); !errors.Is(err, ErrNoScan) {
		t.Fatalf("Set err = %v", err)
	}
	if err := session.ResetAll(); !errors.Is(err, ErrNoScan) {
		t.Fatalf("ResetAll err = %v", err)
	}
}

func TestSessionFailedScanKeepsState(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shot.ma"), sceneText("/p/a.ma"))
	session := newTestSession()
	if _, err := session.Scan(root, false, nil); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if _, err := session.Scan(filepath.Join(root, "missing"), false, nil); !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}
	if session.Scenes() == nil || session.Scenes().Len() != 1 {
		t.Fatal("previous scan results were discarded")
	}
}

func TestTasksStreamEvents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shot01.ma"), sceneText("/p/a.ma"))
	writeFile(t, filepath.Join(root, "shot02.ma"), sceneText("/p/a.ma", "/p/b.mb"))

	session := NewSession(NewScanner(ScanOptions{}, logging.NewNop()), newTestRewriter())
	scan := StartScan(session, root, false)
	var kinds []EventKind
	for ev := range scan.Events() {
		kinds = append(kinds, ev.Kind)
	}
	result, err := scan.Wait()
	if err != nil {
		t.Fatalf("scan Wait: %v", err)
	}
	want := []EventKind{EventScene, EventReference, EventScene, EventReference, EventScanSummary}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("event kinds = %v, want %v", kinds, want)
	}
	if result.Scenes.Len() != 2 {
		t.Fatalf("scenes = %d", result.Scenes.Len())
	}

	rewrite := StartRewrite(session)
	report, err := rewrite.Wait()
	if err != nil {
		t.Fatalf("rewrite Wait: %v", err)
	}
	if report.Count(OutcomeSkippedNoMatchingRemap) != 2 {
		t.Fatalf("unexpected report: %s", report)
	}
}
