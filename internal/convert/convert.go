package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pmtm/internal/logging"
	"pmtm/internal/toolexec"
	"pmtm/internal/walk"
)

// Mode selects the conversion direction.
type Mode string

const (
	SequenceToVideo    Mode = "seq-to-video"
	VideoToSequence    Mode = "video-to-seq"
	SequenceToSequence Mode = "seq-to-seq"
	VideoToVideo       Mode = "video-to-video"
)

// Modes lists every Mode.
var Modes = []Mode{SequenceToVideo, VideoToSequence, SequenceToSequence, VideoToVideo}

// Supported source and output formats.
var (
	FrameFormats = []string{"png", "jpg", "jpeg", "tiff", "exr"}
	VideoFormats = []string{"mov", "mp4"}
)

// DefaultFPS and DefaultPadding apply when a job leaves them unset.
const (
	DefaultFPS     = 25
	DefaultPadding = 4
)

// ErrInvalidMode is returned for an unknown Mode.
var ErrInvalidMode = errors.New("invalid conversion mode")

// ParseMode validates a mode name.
func ParseMode(value string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == strings.TrimSpace(value) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q (want one of %s)", ErrInvalidMode, value, joinModes())
}

func joinModes() string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func (m Mode) sourceIsSequence() bool { return m == SequenceToVideo || m == SequenceToSequence }

func (m Mode) outputIsSequence() bool { return m == VideoToSequence || m == SequenceToSequence }

// Job is one ffmpeg invocation.
type Job struct {
	Mode   Mode   `json:"mode"`
	Input  string `json:"input"`
	Output string `json:"output"`
	// InputStart is the first frame number of a sequence input.
	InputStart int `json:"input_start,omitempty"`
	// OutputStart is the first frame number of a sequence output.
	OutputStart int `json:"output_start,omitempty"`
	FPS         int `json:"fps,omitempty"`
}

// Args builds the ffmpeg argument vector for job.
func Args(job Job) ([]string, error) {
	switch job.Mode {
	case SequenceToVideo:
		fps := job.FPS
		if fps <= 0 {
			fps = DefaultFPS
		}
		return []string{"-y", "-start_number", strconv.Itoa(job.InputStart), "-r", strconv.Itoa(fps), "-i", job.Input, "-vcodec", "h264", job.Output}, nil
	case VideoToSequence:
		return []string{"-i", job.Input, "-start_number", strconv.Itoa(job.OutputStart), job.Output}, nil
	case SequenceToSequence:
		return []string{"-start_number", strconv.Itoa(job.InputStart), "-i", job.Input, "-qscale:v", "2", "-start_number", strconv.Itoa(job.OutputStart), job.Output}, nil
	case VideoToVideo:
		return []string{"-i", job.Input, "-qscale:v", "2", job.Output}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrInvalidMode, job.Mode)
	}
}

// Filter selects conversion sources.
type Filter struct {
	Recurse bool
	Exclude []string
	// Format is the source extension without the dot; comparison ignores case.
	Format string
	// Keyword, when set, must appear in the file name, or must not when
	// ExcludeKeyword is true.
	Keyword        string
	ExcludeKeyword bool
}

// Discover lists the files under root that pass filter.
func Discover(root string, filter Filter) ([]string, error) {
	format := "." + strings.ToLower(strings.TrimPrefix(strings.TrimSpace(filter.Format), "."))
	keyword := strings.TrimSpace(filter.Keyword)
	files, err := walk.Files(root, walk.Options{
		Recurse: filter.Recurse,
		Exclude: filter.Exclude,
		Match: func(name string) bool {
			if strings.ToLower(filepath.Ext(name)) != format {
				return false
			}
			if keyword == "" {
				return true
			}
			return strings.Contains(name, keyword) != filter.ExcludeKeyword
		},
	})
	if err != nil {
		return nil, err
	}
	return files.Files, nil
}

// PlanOptions configures Plan.
type PlanOptions struct {
	OutputDir    string
	OutputFormat string
	// OutputStart is the first frame number written for sequence outputs.
	OutputStart int
	FPS         int
}

// Plan turns discovered source files into jobs. Sequence sources are grouped
// first; numbered files that do not form part of a sequence are ignored.
func Plan(mode Mode, sources []string, opts PlanOptions) ([]Job, error) {
	if _, err := Args(Job{Mode: mode}); err != nil {
		return nil, err
	}
	format := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(opts.OutputFormat)), ".")
	if format == "" {
		return nil, errors.New("output format not set")
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return nil, errors.New("output directory not set")
	}

	var jobs []Job
	if mode.sourceIsSequence() {
		seqs, _ := GroupSequences(sources)
		for _, seq := range seqs {
			jobs = append(jobs, Job{
				Mode:        mode,
				Input:       seq.Pattern(),
				Output:      outputPath(mode, opts.OutputDir, seq.Name(), format, seq.Padding),
				InputStart:  seq.First,
				OutputStart: opts.OutputStart,
				FPS:         opts.FPS,
			})
		}
		return jobs, nil
	}
	for _, src := range sources {
		name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		jobs = append(jobs, Job{
			Mode:        mode,
			Input:       src,
			Output:      outputPath(mode, opts.OutputDir, name, format, DefaultPadding),
			OutputStart: opts.OutputStart,
			FPS:         opts.FPS,
		})
	}
	return jobs, nil
}

// outputPath places sequence outputs in a directory named after the source.
func outputPath(mode Mode, dir, name, format string, padding int) string {
	if mode.outputIsSequence() {
		return filepath.Join(dir, name, fmt.Sprintf("%s.%%0%dd.%s", name, padding, format))
	}
	return filepath.Join(dir, name+"."+format)
}

// Progress reports a job about to run.
type Progress struct {
	Job     Job
	Current int
	Total   int
}

// Runner executes jobs with ffmpeg.
type Runner struct {
	ffmpeg string
	exec   toolexec.Executor
	logger *slog.Logger
}

// NewRunner returns a runner for the ffmpeg binary. A nil exec runs real commands.
func NewRunner(ffmpeg string, exec toolexec.Executor, logger *slog.Logger) *Runner {
	if strings.TrimSpace(ffmpeg) == "" {
		ffmpeg = "ffmpeg"
	}
	if exec == nil {
		exec = toolexec.CommandExecutor{}
	}
	return &Runner{ffmpeg: ffmpeg, exec: exec, logger: logging.NewComponentLogger(logger, "convert")}
}

// Run executes jobs in order and stops at the first failure, returning the
// number of jobs completed.
func (r *Runner) Run(ctx context.Context, jobs []Job, progress func(Progress)) (int, error) {
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if progress != nil {
			progress(Progress{Job: job, Current: i + 1, Total: len(jobs)})
		}
		args, err := Args(job)
		if err != nil {
			return i, err
		}
		if err := os.MkdirAll(filepath.Dir(job.Output), 0o755); err != nil {
			return i, fmt.Errorf("create output dir: %w", err)
		}
		r.logger.Info("converting",
			logging.String("mode", string(job.Mode)),
			logging.String("input", job.Input),
			logging.String("output", job.Output),
		)
		r.logger.Debug("ffmpeg command", logging.String("command", toolexec.CommandLine(r.ffmpeg, args)))
		if _, err := r.exec.Run(ctx, r.ffmpeg, args); err != nil {
			return i, fmt.Errorf("convert %s: %w", job.Input, err)
		}
	}
	return len(jobs), nil
}
