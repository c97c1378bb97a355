package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"pmtm/internal/mayaref"
	"pmtm/internal/testsupport"
)

type refsFixture struct {
	root   string
	shot01 string
	shot02 string
	target string
}

func writeRefsFixture(t *testing.T, env *cliTestEnv) refsFixture {
	t.Helper()
	root := filepath.Join(env.baseDir, "scenes")
	f := refsFixture{
		root:   root,
		shot01: filepath.Join(root, "shot01.ma"),
		shot02: filepath.Join(root, "shot02.ma"),
		target: filepath.Join(env.baseDir, "library", "hero_v2.ma"),
	}
	testsupport.WriteFile(t, f.shot01, testsupport.SceneText("/assets/chr/hero.ma", "/assets/prp/cup.mb"))
	testsupport.WriteFile(t, f.shot02, testsupport.SceneText("/assets/prp/cup.mb"))
	testsupport.WriteFile(t, filepath.Join(root, "notes.txt"), "not a scene")
	testsupport.WriteFile(t, f.target, "//Maya ASCII 2020 scene\n")
	return f
}

func TestRefsScanRemapRewrite(t *testing.T) {
	env := setupCLITestEnv(t)
	f := writeRefsFixture(t, env)

	out := env.mustRun(t, "refs", "scan", f.root)
	requireContains(t, out, "Scenes: 2")
	requireContains(t, out, "References: 2")

	out = env.mustRun(t, "refs", "list")
	requireContains(t, out, "/assets/chr/hero.ma")
	requireContains(t, out, "2 references, 0 remapped")

	out = env.mustRun(t, "refs", "remap", "1", f.target)
	requireContains(t, out, "1 references remapped")

	out = env.mustRun(t, "refs", "list")
	requireContains(t, out, mayaref.ChangeMarker+f.target)
	out = env.mustRun(t, "refs", "list", "--original")
	requireContains(t, out, "/assets/chr/hero.ma")

	out = env.mustRun(t, "refs", "rewrite", "--yes")
	requireContains(t, out, "1 rewritten")
	requireContains(t, out, string(mayaref.OutcomeSkippedNoMatchingRemap))

	rewritten := testsupport.ReadFile(t, f.shot01)
	if !strings.Contains(rewritten, f.target) || strings.Contains(rewritten, "/assets/chr/hero.ma") {
		t.Fatalf("scene not rewritten:\n%s", rewritten)
	}
	if got := testsupport.ReadFile(t, f.shot02); got != testsupport.SceneText("/assets/prp/cup.mb") {
		t.Fatalf("untouched scene changed:\n%s", got)
	}

	if _, _, err := env.run(t, "", "refs", "rewrite", "--yes"); !errors.Is(err, mayaref.ErrRescanRequired) {
		t.Fatalf("expected ErrRescanRequired on second rewrite, got %v", err)
	}

	out = env.mustRun(t, "refs", "history")
	requireContains(t, out, "completed")

	out = env.mustRun(t, "--json", "refs", "history")
	var runs []struct {
		ID        string `json:"id"`
		Rewritten int    `json:"rewritten"`
	}
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].Rewritten != 1 {
		t.Fatalf("unexpected history: %+v", runs)
	}

	out = env.mustRun(t, "refs", "history", runs[0].ID[:8])
	requireContains(t, out, "shot01.ma")
	requireContains(t, out, string(mayaref.OutcomeRewritten))
}

func TestRefsRewriteNeedsConfirmation(t *testing.T) {
	env := setupCLITestEnv(t)
	f := writeRefsFixture(t, env)
	env.mustRun(t, "refs", "scan", f.root)
	env.mustRun(t, "refs", "remap", "/assets/chr/hero.ma", f.target)

	_, _, err := env.run(t, "n\n", "refs", "rewrite")
	if !errors.Is(err, errNotConfirmed) {
		t.Fatalf("expected errNotConfirmed, got %v", err)
	}
	if strings.Contains(testsupport.ReadFile(t, f.shot01), f.target) {
		t.Fatal("declined rewrite modified the scene")
	}

	out, _, err := env.run(t, "yes\n", "refs", "rewrite")
	if err != nil {
		t.Fatalf("confirmed rewrite: %v", err)
	}
	requireContains(t, out, "1 rewritten")
}

func TestRefsRemapFileAndReset(t *testing.T) {
	env := setupCLITestEnv(t)
	f := writeRefsFixture(t, env)
	env.mustRun(t, "refs", "scan", f.root)

	cup := filepath.Join(env.baseDir, "library", "cup_v2.mb")
	testsupport.WriteFile(t, cup, "binary")
	doc := filepath.Join(env.baseDir, "remap.yaml")
	testsupport.WriteFile(t, doc, "remaps:\n  - old: /assets/chr/hero.ma\n    new: "+f.target+"\n  - old: /assets/prp/cup.mb\n    new: "+cup+"\n")

	out := env.mustRun(t, "refs", "remap", "--file", doc)
	requireContains(t, out, "2 references remapped")

	out = env.mustRun(t, "--json", "refs", "list", "--changed")
	var listed struct {
		Entries []struct {
			Old     string `json:"old"`
			New     string `json:"new"`
			Changed bool   `json:"changed"`
		} `json:"entries"`
	}
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Entries) != 2 || listed.Entries[1].New != cup {
		t.Fatalf("unexpected entries: %+v", listed.Entries)
	}

	out = env.mustRun(t, "refs", "reset")
	requireContains(t, out, "Reset 2 references")
	out = env.mustRun(t, "refs", "list")
	requireContains(t, out, "0 remapped")
}

func TestRefsRemapFileKeepsEditsAroundIdentityEntry(t *testing.T) {
	env := setupCLITestEnv(t)
	f := writeRefsFixture(t, env)
	testsupport.WriteFile(t, filepath.Join(f.root, "shot03.ma"), testsupport.SceneText(f.target))
	env.mustRun(t, "refs", "scan", f.root)

	doc := filepath.Join(env.baseDir, "remap.yaml")
	testsupport.WriteFile(t, doc, "remaps:\n  - old: /assets/chr/hero.ma\n    new: "+f.target+"\n  - old: "+f.target+"\n    new: "+f.target+"\n")

	out := env.mustRun(t, "refs", "remap", "--file", doc)
	requireContains(t, out, "1 references remapped")
	requireContains(t, out, "unchanged "+f.target)

	out = env.mustRun(t, "refs", "list")
	requireContains(t, out, "3 references, 1 remapped")

	out = env.mustRun(t, "--json", "refs", "remap", f.target, f.target)
	var result struct {
		Changed   []string `json:"changed"`
		Unchanged []string `json:"unchanged"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode remap: %v", err)
	}
	if len(result.Changed) != 0 || len(result.Unchanged) != 1 || result.Unchanged[0] != f.target {
		t.Fatalf("unexpected remap result: %+v", result)
	}
}

func TestRefsRemapRejectsMissingTarget(t *testing.T) {
	env := setupCLITestEnv(t)
	f := writeRefsFixture(t, env)
	env.mustRun(t, "refs", "scan", f.root)

	_, _, err := env.run(t, "", "refs", "remap", "/assets/chr/hero.ma", filepath.Join(env.baseDir, "missing.ma"))
	if !errors.Is(err, mayaref.ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound, got %v", err)
	}
}

func TestRefsTreeAndExport(t *testing.T) {
	env := setupCLITestEnv(t)
	f := writeRefsFixture(t, env)
	env.mustRun(t, "refs", "scan", f.root)

	out := env.mustRun(t, "refs", "tree", "--filter", "shot02")
	requireContains(t, out, f.shot02)
	if strings.Contains(out, f.shot01) {
		t.Fatalf("filter leaked shot01:\n%s", out)
	}

	out = env.mustRun(t, "refs", "export", "-")
	requireContains(t, out, "Maya file,Reference")
	requireContains(t, out, f.shot01+",/assets/chr/hero.ma")

	target := filepath.Join(env.baseDir, "refs.csv")
	env.mustRun(t, "refs", "export", target)
	requireContains(t, testsupport.ReadFile(t, target), f.shot02+",/assets/prp/cup.mb")
}

func TestRefsCommandsWithoutScan(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "", "refs", "list"); err == nil || !strings.Contains(err.Error(), "refs scan") {
		t.Fatalf("expected no-session error, got %v", err)
	}
}

func TestRefsScanMissingRoot(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := env.run(t, "", "refs", "scan", filepath.Join(env.baseDir, "nope"))
	if !errors.Is(err, mayaref.ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}
}

func TestRefsScanReportsUndecodableScene(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithEncodings("utf-8"))
	f := writeRefsFixture(t, env)
	testsupport.WriteFile(t, filepath.Join(f.root, "legacy.ma"), "file -r -typ \"mayaAscii\" \"/p/\xff.ma\";\n")

	out, stderr, err := env.run(t, "", "refs", "scan", f.root)
	if err != nil {
		t.Fatalf("refs scan: %v", err)
	}
	requireContains(t, out, "Unreadable scenes: 1")
	requireContains(t, stderr, "legacy.ma")

	out = env.mustRun(t, "--json", "refs", "scan", f.root)
	var payload struct {
		References []string `json:"references"`
		Failures   []struct {
			Kind string `json:"kind"`
		} `json:"failures"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode scan json: %v\n%s", err, out)
	}
	if len(payload.Failures) != 1 || payload.Failures[0].Kind != "encoding" {
		t.Fatalf("unexpected failures %+v", payload.Failures)
	}
	if len(payload.References) != 2 {
		t.Fatalf("undecodable scene must not add references: %v", payload.References)
	}
}
