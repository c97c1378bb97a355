package ffprobe

import (
	"context"
	"testing"

	"pmtm/internal/testsupport"
)

func TestMovieColumns(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", CodecName: "pcm_s16le"},
			{CodecType: "video", CodecName: "prores", Width: 1920, Height: 1080, NBFrames: "120", AvgFrameRate: "24000/1001"},
		},
		Format: Format{Tags: map[string]string{ColorspaceTag: " ACES - ACEScg "}},
	}
	if stream, _ := result.VideoStream(); stream.CodecName != "prores" {
		t.Fatalf("VideoStream picked %+v", stream)
	}
	frames, ok := result.FrameCount()
	if !ok || frames != 120 {
		t.Fatalf("FrameCount = %d, %v", frames, ok)
	}
	if result.FrameRate() != "24000" {
		t.Fatalf("unexpected frame rate %q", result.FrameRate())
	}
	if result.Resolution() != "1920x1080" {
		t.Fatalf("unexpected resolution %q", result.Resolution())
	}
	if result.VideoCodec() != "prores" {
		t.Fatalf("unexpected codec %q", result.VideoCodec())
	}
	if result.Colorspace() != "ACES - ACEScg" {
		t.Fatalf("unexpected colorspace %q", result.Colorspace())
	}
}

func TestMovieColumnsWithoutVideo(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio", NBFrames: "N/A"}}}
	if _, ok := result.FrameCount(); ok {
		t.Fatal("expected no frame count without video stream")
	}
	if result.FrameRate() != "" || result.Resolution() != "" || result.Colorspace() != "" {
		t.Fatal("expected empty columns without video stream")
	}
}

func TestInspectParsesOutput(t *testing.T) {
	payload := `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264","width":1280,"height":720,"nb_frames":"48","avg_frame_rate":"25/1"}],"format":{"filename":"a.mov","tags":{"uk.co.thefoundry.Colorspace":"sRGB"}}}`
	exec := &testsupport.RecordingExecutor{Respond: func(string, []string) ([]byte, error) {
		return []byte(payload), nil
	}}

	result, err := Inspect(context.Background(), exec, "", " /show/a.mov ")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if frames, _ := result.FrameCount(); frames != 48 || result.Colorspace() != "sRGB" {
		t.Fatalf("unexpected result %+v", result)
	}
	calls := exec.Calls()
	if len(calls) != 1 || calls[0].Binary != "ffprobe" || calls[0].Args[len(calls[0].Args)-1] != "/show/a.mov" {
		t.Fatalf("unexpected calls %+v", calls)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), &testsupport.RecordingExecutor{}, "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
