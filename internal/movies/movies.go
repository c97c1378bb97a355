package movies

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pmtm/internal/logging"
	"pmtm/internal/media/ffprobe"
	"pmtm/internal/staging"
	"pmtm/internal/toolexec"
	"pmtm/internal/walk"
)

// Extensions are the movie file extensions scanned. Matching is case-sensitive
// and covers the all-lower and all-upper spellings only.
var Extensions = []string{".mov", ".MOV", ".mp4", ".MP4"}

// ErrPathNotFound is returned when the scan root is not an existing directory.
var ErrPathNotFound = errors.New("scan path not found")

// Movie is one row of a movie scan.
type Movie struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Frames     int    `json:"frames"`
	FPS        string `json:"fps"`
	Resolution string `json:"resolution"`
	Codec      string `json:"codec"`
	Colorspace string `json:"colorspace"`
	Thumbnail  string `json:"thumbnail,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Result is the outcome of a scan.
type Result struct {
	Movies []Movie `json:"movies"`
	// Videos counts movies probed without error.
	Videos      int           `json:"videos"`
	TotalFrames int           `json:"total_frames"`
	Thumbnails  string        `json:"thumbnails,omitempty"`
	Duration    time.Duration `json:"-"`
}

// Options configures a Scanner.
type Options struct {
	FFprobe     string
	FFmpeg      string
	Concurrency int
	Thumbnails  bool
	StagingDir  string
}

// Scanner probes movies with ffprobe and extracts thumbnails with ffmpeg.
type Scanner struct {
	opts   Options
	exec   toolexec.Executor
	logger *slog.Logger
}

// NewScanner builds a scanner. A nil exec runs real commands.
func NewScanner(opts Options, exec toolexec.Executor, logger *slog.Logger) *Scanner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if strings.TrimSpace(opts.FFprobe) == "" {
		opts.FFprobe = "ffprobe"
	}
	if strings.TrimSpace(opts.FFmpeg) == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if exec == nil {
		exec = toolexec.CommandExecutor{}
	}
	return &Scanner{opts: opts, exec: exec, logger: logging.NewComponentLogger(logger, "movies")}
}

// Discover lists the movies under root.
func Discover(root string, recurse bool, exclude []string) ([]string, error) {
	files, err := walk.Files(root, walk.Options{
		Recurse: recurse,
		Exclude: exclude,
		Match:   walk.Extensions(Extensions...),
	})
	if err != nil {
		if errors.Is(err, walk.ErrInvalidRoot) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, root)
		}
		return nil, err
	}
	return files.Files, nil
}

// Supported reports whether path has one of Extensions.
func Supported(path string) bool {
	return walk.Extensions(Extensions...)(filepath.Base(path))
}

// Scan probes every path. Per-movie failures are recorded on the row and do
// not stop the scan; only context cancellation does. observer, when non-nil,
// is called once per finished movie, serialised, in completion order.
func (s *Scanner) Scan(ctx context.Context, paths []string, observer func(Movie)) (*Result, error) {
	started := time.Now()
	result := &Result{Movies: make([]Movie, len(paths))}

	var thumbs *staging.WorkDir
	if s.opts.Thumbnails && len(paths) > 0 {
		var err error
		if thumbs, err = staging.NewWorkDir(s.opts.StagingDir, staging.KindThumbnails); err != nil {
			return nil, err
		}
		result.Thumbnails = thumbs.Path
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			movie := s.probe(gctx, i, path, thumbs)
			if err := gctx.Err(); err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			result.Movies[i] = movie
			if observer != nil {
				observer(movie)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, movie := range result.Movies {
		if movie.Error != "" {
			continue
		}
		result.Videos++
		result.TotalFrames += movie.Frames
	}
	result.Duration = time.Since(started)
	s.logger.Info("movie scan complete",
		logging.Int("movies", len(paths)),
		logging.Int("videos", result.Videos),
		logging.Int("total_frames", result.TotalFrames),
		logging.Duration("scan_duration", result.Duration),
	)
	return result, nil
}

// NewMovie returns an unprobed row for path, named after the file without
// its extension.
func NewMovie(path string) Movie {
	base := filepath.Base(path)
	return Movie{Name: strings.TrimSuffix(base, filepath.Ext(base)), Path: path}
}

func (s *Scanner) probe(ctx context.Context, index int, path string, thumbs *staging.WorkDir) Movie {
	movie := NewMovie(path)

	info, err := ffprobe.Inspect(ctx, s.exec, s.opts.FFprobe, path)
	if err != nil {
		movie.Error = err.Error()
		logging.WarnWithContext(s.logger, "movie probe failed", "movie_probe_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the file is a readable movie and ffprobe is configured"),
			logging.String(logging.FieldImpact, "movie metadata left empty"),
		)
		return movie
	}
	if frames, ok := info.FrameCount(); ok {
		movie.Frames = frames
	}
	movie.FPS = info.FrameRate()
	movie.Resolution = info.Resolution()
	movie.Codec = info.VideoCodec()
	movie.Colorspace = info.Colorspace()

	if thumbs != nil {
		output := thumbs.File(fmt.Sprintf("%04d-%s.jpg", index+1, movie.Name))
		if _, err := s.exec.Run(ctx, s.opts.FFmpeg, ThumbnailArgs(path, output)); err != nil {
			logging.WarnWithContext(s.logger, "thumbnail extraction failed", "movie_thumbnail_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "row has no thumbnail"),
			)
		} else {
			movie.Thumbnail = output
		}
	}
	return movie
}

// ThumbnailArgs builds the ffmpeg arguments that write the first frame of
// movie to output.
func ThumbnailArgs(movie, output string) []string {
	return []string{"-y", "-i", movie, "-frames:v", "1", output}
}
