package movies

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"pmtm/internal/logging"
	"pmtm/internal/testsupport"
)

func probeResponder(frames map[string]int) func(string, []string) ([]byte, error) {
	return func(binary string, args []string) ([]byte, error) {
		if binary != "ffprobe" {
			return nil, nil
		}
		path := args[len(args)-1]
		n, ok := frames[filepath.Base(path)]
		if !ok {
			return nil, errors.New("Invalid data found when processing input")
		}
		payload := fmt.Sprintf(`{"streams":[{"codec_type":"video","codec_name":"prores","width":2048,"height":858,"nb_frames":"%d","avg_frame_rate":"24/1"}],"format":{"tags":{"uk.co.thefoundry.Colorspace":"Output - Rec.709"}}}`, n)
		return []byte(payload), nil
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.mov", "b.MP4", "c.Mov", "d.txt", ".hidden.mov"} {
		testsupport.WriteFile(t, filepath.Join(root, name), "x")
	}
	testsupport.WriteFile(t, filepath.Join(root, "sub", "e.mp4"), "x")

	flat, err := Discover(root, false, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(flat) != 2 || filepath.Base(flat[0]) != "a.mov" || filepath.Base(flat[1]) != "b.MP4" {
		t.Fatalf("unexpected flat discovery %v", flat)
	}
	deep, err := Discover(root, true, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(deep) != 3 {
		t.Fatalf("unexpected recursive discovery %v", deep)
	}
	if _, err := Discover(filepath.Join(root, "missing"), false, nil); !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}
}

func TestScanKeepsInputOrderAndTotals(t *testing.T) {
	exec := &testsupport.RecordingExecutor{Respond: probeResponder(map[string]int{
		"sh010.mov": 48, "sh020.mov": 96, "sh030.mp4": 12,
	})}
	scanner := NewScanner(Options{Concurrency: 3}, exec, logging.NewNop())

	var mu sync.Mutex
	seen := 0
	paths := []string{"/show/sh010.mov", "/show/broken.mov", "/show/sh020.mov", "/show/sh030.mp4"}
	result, err := scanner.Scan(context.Background(), paths, func(Movie) {
		mu.Lock()
		seen++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if seen != 4 {
		t.Fatalf("observer saw %d movies", seen)
	}
	names := make([]string, 0, len(result.Movies))
	for _, m := range result.Movies {
		names = append(names, m.Name)
	}
	if strings.Join(names, ",") != "sh010,broken,sh020,sh030" {
		t.Fatalf("unexpected order %v", names)
	}
	if result.Videos != 3 || result.TotalFrames != 156 {
		t.Fatalf("unexpected totals videos=%d frames=%d", result.Videos, result.TotalFrames)
	}
	first := result.Movies[0]
	if first.FPS != "24" || first.Resolution != "2048x858" || first.Codec != "prores" || first.Colorspace != "Output - Rec.709" {
		t.Fatalf("unexpected row %+v", first)
	}
	if result.Movies[1].Error == "" {
		t.Fatal("expected probe error recorded on broken movie")
	}
	if result.Thumbnails != "" {
		t.Fatal("expected no thumbnail dir when disabled")
	}
}

func TestScanExtractsThumbnails(t *testing.T) {
	exec := &testsupport.RecordingExecutor{Respond: probeResponder(map[string]int{"a.mov": 1})}
	stagingDir := t.TempDir()
	scanner := NewScanner(Options{Thumbnails: true, StagingDir: stagingDir, FFmpeg: "/opt/ffmpeg"}, exec, logging.NewNop())

	result, err := scanner.Scan(context.Background(), []string{"/show/a.mov"}, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	movie := result.Movies[0]
	if !strings.HasPrefix(movie.Thumbnail, result.Thumbnails) || !strings.HasSuffix(movie.Thumbnail, "0001-a.jpg") {
		t.Fatalf("unexpected thumbnail %q in %q", movie.Thumbnail, result.Thumbnails)
	}
	var ffmpegCall *testsupport.Call
	for _, call := range exec.Calls() {
		if call.Binary == "/opt/ffmpeg" {
			ffmpegCall = &call
		}
	}
	if ffmpegCall == nil || strings.Join(ffmpegCall.Args, " ") != "-y -i /show/a.mov -frames:v 1 "+movie.Thumbnail {
		t.Fatalf("unexpected ffmpeg call %+v", ffmpegCall)
	}
}

func TestScanStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	scanner := NewScanner(Options{}, &testsupport.RecordingExecutor{Respond: probeResponder(nil)}, logging.NewNop())
	if _, err := scanner.Scan(ctx, []string{"/a.mov"}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExtractAudio(t *testing.T) {
	exec := &testsupport.RecordingExecutor{}
	scanner := NewScanner(Options{}, exec, logging.NewNop())
	out := t.TempDir()

	var progress []string
	written, err := scanner.ExtractAudio(context.Background(), []Movie{
		{Name: "sh010", Path: "/show/sh010.mov"},
		{Name: "sh020", Path: "/show/sh020.mov"},
	}, out, func(p AudioProgress) { progress = append(progress, fmt.Sprintf("%s %d/%d", p.Name, p.Current, p.Total)) })
	if err != nil {
		t.Fatalf("ExtractAudio: %v", err)
	}
	if len(written) != 2 || written[1] != filepath.Join(out, "sh020.wav") {
		t.Fatalf("unexpected outputs %v", written)
	}
	if strings.Join(progress, ";") != "sh010 1/2;sh020 2/2" {
		t.Fatalf("unexpected progress %v", progress)
	}
	want := "-y -i /show/sh010.mov -vn -acodec pcm_s16le -ar 44100 -ac 2 " + filepath.Join(out, "sh010.wav")
	if got := strings.Join(exec.Calls()[0].Args, " "); got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestExtractAudioStopsOnFailure(t *testing.T) {
	exec := &testsupport.RecordingExecutor{Respond: func(string, []string) ([]byte, error) {
		return nil, errors.New("boom")
	}}
	scanner := NewScanner(Options{}, exec, logging.NewNop())
	written, err := scanner.ExtractAudio(context.Background(), []Movie{{Name: "a", Path: "a.mov"}, {Name: "b", Path: "b.mov"}}, t.TempDir(), nil)
	if err == nil || len(written) != 0 || len(exec.Calls()) != 1 {
		t.Fatalf("expected stop after first failure, got written=%v err=%v calls=%d", written, err, len(exec.Calls()))
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	err := ExportCSV(&buf, []Movie{{Name: "sh010", Path: "/s/sh010.mov", Frames: 48, FPS: "24", Resolution: "1920x1080", Codec: "h264"}})
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	want := "Thumbnail,File,Frames,FPS,Resolution,Codec,Colorspace,Path\n,sh010,48,24,1920x1080,h264,,/s/sh010.mov\n"
	if buf.String() != want {
		t.Fatalf("csv = %q", buf.String())
	}
}
