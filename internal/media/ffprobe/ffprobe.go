package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pmtm/internal/toolexec"
)

// ColorspaceTag is the format tag Nuke writes into QuickTime movies.
const ColorspaceTag = "uk.co.thefoundry.Colorspace"

// Result is the subset of `ffprobe -show_format -show_streams -of json`
// the movie scan reads.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream is one stream of the container.
type Stream struct {
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	NBFrames     string `json:"nb_frames"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

// Format is the container metadata.
type Format struct {
	Filename string            `json:"filename"`
	Duration string            `json:"duration"`
	Tags     map[string]string `json:"tags"`
}

// Inspect runs binary (default "ffprobe") on path through exec.
func Inspect(ctx context.Context, exec toolexec.Executor, binary, path string) (Result, error) {
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = "ffprobe"
	}
	if path = strings.TrimSpace(path); path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	output, err := exec.Run(ctx, binary, []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path})
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect %s: %w", path, err)
	}
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse %s: %w", path, err)
	}
	return result, nil
}

// VideoStream returns the first video stream.
func (r Result) VideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// FrameCount returns nb_frames of the first video stream. ok is false when
// the container does not report one.
func (r Result) FrameCount() (int, bool) {
	stream, found := r.VideoStream()
	if !found {
		return 0, false
	}
	count, err := strconv.Atoi(strings.TrimSpace(stream.NBFrames))
	if err != nil || count < 0 {
		return 0, false
	}
	return count, true
}

// FrameRate returns the numerator of avg_frame_rate: "25" for "25/1" and
// "24000" for "24000/1001".
func (r Result) FrameRate() string {
	stream, found := r.VideoStream()
	if !found {
		return ""
	}
	numerator, _, _ := strings.Cut(strings.TrimSpace(stream.AvgFrameRate), "/")
	return numerator
}

// Resolution returns WIDTHxHEIGHT of the first video stream.
func (r Result) Resolution() string {
	stream, found := r.VideoStream()
	if !found || stream.Width <= 0 || stream.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", stream.Width, stream.Height)
}

func (r Result) VideoCodec() string {
	stream, _ := r.VideoStream()
	return stream.CodecName
}

func (r Result) Colorspace() string {
	return strings.TrimSpace(r.Format.Tags[ColorspaceTag])
}
