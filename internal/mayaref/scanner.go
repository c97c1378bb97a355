package mayaref

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"pmtm/internal/logging"
	"pmtm/internal/textdecode"
	"pmtm/internal/walk"
)

// SceneExt is the only scene extension scanned.
const SceneExt = ".ma"

// ScanOptions configures a Scanner.
type ScanOptions struct {
	// Encodings are tried in order when decoding scene text.
	Encodings []string
	// Exclude holds doublestar globs relative to the scan root.
	Exclude []string
}

// Scanner extracts references from every scene under a root.
type Scanner struct {
	opts   ScanOptions
	logger *slog.Logger
}

// ScanResult is the outcome of one scan.
type ScanResult struct {
	Root    string
	Recurse bool
	Scenes  *SceneMap
	// References lists each distinct reference once, in discovery order.
	References []string
	// Failures holds *EncodingError and *ReadError values for scenes that
	// contributed no references because they could not be read.
	Failures    []error
	SkippedDirs []walk.Skipped
	Duration    time.Duration
}

// NewScanner builds a scanner. Empty encodings fall back to utf-8, latin1, cp1252.
func NewScanner(opts ScanOptions, logger *slog.Logger) *Scanner {
	if len(opts.Encodings) == 0 {
		opts.Encodings = textdecode.Names()
	}
	return &Scanner{opts: opts, logger: logging.NewComponentLogger(logger, "mayaref")}
}

// Scan walks root for scenes and extracts their references. A missing root
// fails with ErrPathNotFound before any event is emitted. Per-scene read and
// decode failures are reported through observer and Failures; the scan
// continues.
func (s *Scanner) Scan(root string, recurse bool, observer Observer) (*ScanResult, error) {
	started := time.Now()
	files, err := walk.Files(root, walk.Options{
		Recurse: recurse,
		Exclude: s.opts.Exclude,
		Match:   walk.Extensions(SceneExt),
	})
	if err != nil {
		if errors.Is(err, walk.ErrInvalidRoot) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, root)
		}
		return nil, err
	}
	for _, skipped := range files.Skipped {
		logging.WarnWithContext(s.logger, "directory skipped during scan", "scan_dir_skipped",
			logging.String("path", skipped.Path),
			logging.Error(skipped.Err),
			logging.String(logging.FieldImpact, "scenes in this directory were not scanned"),
		)
	}

	result := &ScanResult{
		Root:        root,
		Recurse:     recurse,
		Scenes:      NewSceneMap(),
		SkippedDirs: files.Skipped,
	}
	global := make(map[string]struct{})
	total := len(files.Files)

	for i, scene := range files.Files {
		result.Scenes.AddScene(scene)
		observer.emit(Event{Kind: EventScene, Scene: scene, Index: i + 1, Total: total})

		refs, err := s.sceneReferences(scene)
		if err != nil {
			result.Failures = append(result.Failures, err)
			kind := EventReadError
			var encErr *EncodingError
			if errors.As(err, &encErr) {
				kind = EventEncodingError
			}
			logging.WarnWithContext(s.logger, "scene unreadable; treated as having no references", "scene_unreadable",
				logging.String("scene", scene),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the file encoding or permissions"),
				logging.String(logging.FieldImpact, "references in this scene cannot be remapped"),
			)
			observer.emit(Event{Kind: kind, Scene: scene, Err: err})
			continue
		}

		for _, ref := range refs {
			result.Scenes.AddReference(scene, ref)
			if _, ok := global[ref]; ok {
				continue
			}
			global[ref] = struct{}{}
			result.References = append(result.References, ref)
			observer.emit(Event{Kind: EventReference, Scene: scene, Reference: ref})
		}
		s.logger.Debug("scene scanned",
			logging.String("scene", scene),
			logging.Int("references", len(refs)),
		)
	}

	result.Duration = time.Since(started)
	observer.emit(Event{Kind: EventScanSummary, Scenes: result.Scenes.Len(), References: len(result.References)})
	s.logger.Info("scan complete",
		logging.String("root", root),
		logging.Bool("recurse", recurse),
		logging.Int("scenes", result.Scenes.Len()),
		logging.Int("references", len(result.References)),
		logging.Int("failures", len(result.Failures)),
		logging.Duration("scan_duration", result.Duration),
	)
	return result, nil
}

func (s *Scanner) sceneReferences(scene string) ([]string, error) {
	data, err := os.ReadFile(scene)
	if err != nil {
		return nil, &ReadError{Scene: scene, Err: err}
	}
	text, _, err := textdecode.Decode(data, s.opts.Encodings)
	if err != nil {
		return nil, &EncodingError{Scene: scene, Encodings: s.opts.Encodings, Err: err}
	}
	return ExtractReferences(text), nil
}
