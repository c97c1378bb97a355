package mayaframe

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"pmtm/internal/logging"
	"pmtm/internal/textdecode"
	"pmtm/internal/walk"
)

// ErrPathNotFound is returned when the scan root is not an existing directory.
var ErrPathNotFound = errors.New("scan path not found")

const playbackCommand = "playbackOptions"

var playbackFlag = regexp.MustCompile(`-(min|max|ast|aet)\s(\d+)`)

// Range holds the frame flags read from one scene. Nil fields were absent.
type Range struct {
	Start *int `json:"start,omitempty"` // -ast
	End   *int `json:"end,omitempty"`   // -aet
	Min   *int `json:"min,omitempty"`
	Max   *int `json:"max,omitempty"`
}

// Row is the result for one scene.
type Row struct {
	File string `json:"file"`
	Path string `json:"path"`
	Range
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a frame range scan.
type Result struct {
	Root     string        `json:"root"`
	Rows     []Row         `json:"rows"`
	Errors   int           `json:"errors"`
	Duration time.Duration `json:"-"`
}

// Options configures Scan.
type Options struct {
	Recurse   bool
	Encodings []string
	Exclude   []string
}

// ParseLine reads playback flags from line. ok is false when line is not a
// playbackOptions command. When a flag repeats, the last value wins.
func ParseLine(line string) (Range, bool) {
	if !strings.Contains(line, playbackCommand) {
		return Range{}, false
	}
	var r Range
	for _, m := range playbackFlag.FindAllStringSubmatch(line, -1) {
		value, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		switch m[1] {
		case "ast":
			r.Start = &value
		case "aet":
			r.End = &value
		case "min":
			r.Min = &value
		case "max":
			r.Max = &value
		}
	}
	return r, true
}

// ParseText returns the range of the first playbackOptions line in text.
func ParseText(text string) Range {
	for line := range strings.Lines(text) {
		if r, ok := ParseLine(line); ok {
			return r
		}
	}
	return Range{}
}

// Scan reads the frame range of every .ma scene under opts' root. Scenes that
// cannot be read or decoded produce a row with empty fields and count toward
// Result.Errors. observer, when non-nil, receives each row as it is produced.
func Scan(root string, opts Options, logger *slog.Logger, observer func(Row)) (*Result, error) {
	logger = logging.NewComponentLogger(logger, "mayaframe")
	started := time.Now()
	files, err := walk.Files(root, walk.Options{
		Recurse: opts.Recurse,
		Exclude: opts.Exclude,
		Match:   walk.Extensions(".ma"),
	})
	if err != nil {
		if errors.Is(err, walk.ErrInvalidRoot) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, root)
		}
		return nil, err
	}
	encodings := opts.Encodings
	if len(encodings) == 0 {
		encodings = textdecode.Names()
	}

	result := &Result{Root: root, Rows: make([]Row, 0, len(files.Files))}
	for _, path := range files.Files {
		row := Row{File: filepath.Base(path), Path: path}
		text, err := readScene(path, encodings)
		if err != nil {
			row.Error = err.Error()
			result.Errors++
			logging.WarnWithContext(logger, "scene frame range unavailable", "frame_scan_unreadable",
				logging.String("scene", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the file encoding or permissions"),
				logging.String(logging.FieldImpact, "frame range left empty for this scene"),
			)
		} else {
			row.Range = ParseText(text)
		}
		result.Rows = append(result.Rows, row)
		if observer != nil {
			observer(row)
		}
	}
	result.Duration = time.Since(started)
	logger.Info("frame scan complete",
		logging.String("root", root),
		logging.Int("scenes", len(result.Rows)),
		logging.Int("errors", result.Errors),
		logging.Duration("scan_duration", result.Duration),
	)
	return result, nil
}

func readScene(path string, encodings []string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read scene: %w", err)
	}
	text, _, err := textdecode.Decode(data, encodings)
	if err != nil {
		return "", err
	}
	return text, nil
}
