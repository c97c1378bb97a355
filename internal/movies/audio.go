package movies

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"pmtm/internal/logging"
)

// AudioProgress reports the movie about to be exported.
type AudioProgress struct {
	Name    string
	Current int
	Total   int
}

// AudioArgs builds the ffmpeg arguments that export the audio of movie as
// 44.1 kHz 16-bit stereo WAV.
func AudioArgs(movie, output string) []string {
	return []string{"-y", "-i", movie, "-vn", "-acodec", "pcm_s16le", "-ar", "44100", "-ac", "2", output}
}

// ExtractAudio writes <outDir>/<name>.wav for each movie, one at a time. It
// stops at the first failure and returns the files written so far.
func (s *Scanner) ExtractAudio(ctx context.Context, movies []Movie, outDir string, progress func(AudioProgress)) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio output dir: %w", err)
	}
	written := make([]string, 0, len(movies))
	for i, movie := range movies {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if progress != nil {
			progress(AudioProgress{Name: movie.Name, Current: i + 1, Total: len(movies)})
		}
		output := filepath.Join(outDir, movie.Name+".wav")
		if _, err := s.exec.Run(ctx, s.opts.FFmpeg, AudioArgs(movie.Path, output)); err != nil {
			return written, fmt.Errorf("export audio of %s: %w", movie.Path, err)
		}
		s.logger.Info("audio exported",
			logging.String("movie", movie.Path),
			logging.String("output", output),
		)
		written = append(written, output)
	}
	return written, nil
}
