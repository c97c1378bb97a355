package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pmtm/internal/logging"
	"pmtm/internal/testsupport"
)

func TestArgs(t *testing.T) {
	tests := []struct {
		job  Job
		want string
	}{
		{
			job:  Job{Mode: SequenceToVideo, Input: "sh.%04d.png", Output: "sh.mp4", InputStart: 1001, FPS: 24},
			want: "-y -start_number 1001 -r 24 -i sh.%04d.png -vcodec h264 sh.mp4",
		},
		{
			job:  Job{Mode: SequenceToVideo, Input: "sh.%04d.png", Output: "sh.mp4", InputStart: 1},
			want: "-y -start_number 1 -r 25 -i sh.%04d.png -vcodec h264 sh.mp4",
		},
		{
			job:  Job{Mode: VideoToSequence, Input: "sh.mov", Output: "sh.%04d.jpg", OutputStart: 1001},
			want: "-i sh.mov -start_number 1001 sh.%04d.jpg",
		},
		{
			job:  Job{Mode: SequenceToSequence, Input: "a.%04d.exr", Output: "b.%04d.png", InputStart: 1001, OutputStart: 1},
			want: "-start_number 1001 -i a.%04d.exr -qscale:v 2 -start_number 1 b.%04d.png",
		},
		{
			job:  Job{Mode: VideoToVideo, Input: "a.mov", Output: "a.mp4"},
			want: "-i a.mov -qscale:v 2 a.mp4",
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.job.Mode), func(t *testing.T) {
			args, err := Args(tt.job)
			if err != nil {
				t.Fatalf("Args: %v", err)
			}
			if got := strings.Join(args, " "); got != tt.want {
				t.Fatalf("args = %q, want %q", got, tt.want)
			}
		})
	}
	if _, err := Args(Job{Mode: "bogus"}); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(" seq-to-video "); err != nil || m != SequenceToVideo {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if _, err := ParseMode("gif"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestGroupSequences(t *testing.T) {
	files := []string{
		"/p/sh010.1003.exr", "/p/sh010.1001.exr", "/p/sh010.1002.exr",
		"/p/sh020_v2.0001.exr",
		"/p/notes.exr",
		"/p/sh010.101.exr",
	}
	seqs, rest := GroupSequences(files)
	if len(rest) != 1 || rest[0] != "/p/notes.exr" {
		t.Fatalf("unexpected rest %v", rest)
	}
	if len(seqs) != 3 {
		t.Fatalf("expected 3 sequences, got %+v", seqs)
	}
	var main Sequence
	for _, s := range seqs {
		if s.Prefix == "sh010." && s.Padding == 4 {
			main = s
		}
	}
	if main.First != 1001 || main.Last != 1003 || main.Count != 3 {
		t.Fatalf("unexpected sequence %+v", main)
	}
	if main.Pattern() != filepath.Join("/p", "sh010.%04d.exr") || main.Name() != "sh010" {
		t.Fatalf("unexpected pattern/name %s %s", main.Pattern(), main.Name())
	}
}

func TestDiscoverKeywordFilter(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"sh010_comp.MOV", "sh010_anim.mov", "sh020_comp.mov", "sh030.mp4"} {
		testsupport.WriteFile(t, filepath.Join(root, name), "x")
	}

	got, err := Discover(root, Filter{Format: "mov", Keyword: "comp"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 comp movies, got %v", got)
	}
	got, err = Discover(root, Filter{Format: ".mov", Keyword: "comp", ExcludeKeyword: true})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "sh010_anim.mov" {
		t.Fatalf("unexpected exclusion result %v", got)
	}
}

func TestPlan(t *testing.T) {
	out := "/out"
	jobs, err := Plan(SequenceToVideo, []string{"/p/sh010.1001.png", "/p/sh010.1002.png"}, PlanOptions{OutputDir: out, OutputFormat: "MP4", FPS: 24})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(jobs) != 1 || jobs[0].InputStart != 1001 || jobs[0].Output != filepath.Join(out, "sh010.mp4") {
		t.Fatalf("unexpected seq job %+v", jobs)
	}

	jobs, err = Plan(VideoToSequence, []string{"/m/sh020.mov"}, PlanOptions{OutputDir: out, OutputFormat: "png", OutputStart: 1001})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if jobs[0].Output != filepath.Join(out, "sh020", "sh020.%04d.png") || jobs[0].OutputStart != 1001 {
		t.Fatalf("unexpected video job %+v", jobs[0])
	}

	if _, err := Plan(VideoToVideo, nil, PlanOptions{OutputDir: out}); err == nil {
		t.Fatal("expected error for missing output format")
	}
}

func TestRunnerCreatesOutputDirsAndStopsOnFailure(t *testing.T) {
	out := t.TempDir()
	calls := 0
	exec := &testsupport.RecordingExecutor{Respond: func(string, []string) ([]byte, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("encoder missing")
		}
		return nil, nil
	}}
	runner := NewRunner("/usr/bin/ffmpeg", exec, logging.NewNop())
	jobs := []Job{
		{Mode: VideoToSequence, Input: "a.mov", Output: filepath.Join(out, "a", "a.%04d.png")},
		{Mode: VideoToVideo, Input: "b.mov", Output: filepath.Join(out, "b.mp4")},
		{Mode: VideoToVideo, Input: "c.mov", Output: filepath.Join(out, "c.mp4")},
	}
	done, err := runner.Run(context.Background(), jobs, nil)
	if err == nil || done != 1 {
		t.Fatalf("expected failure after one job, got done=%d err=%v", done, err)
	}
	if info, statErr := os.Stat(filepath.Join(out, "a")); statErr != nil || !info.IsDir() {
		t.Fatalf("expected sequence output dir created: %v", statErr)
	}
	if got := exec.Calls(); len(got) != 2 || got[0].Binary != "/usr/bin/ffmpeg" {
		t.Fatalf("unexpected calls %+v", got)
	}
}
