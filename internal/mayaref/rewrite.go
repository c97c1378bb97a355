package mayaref

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"pmtm/internal/fileutil"
	"pmtm/internal/logging"
	"pmtm/internal/textdecode"
)

// Outcome is the per-scene result of a rewrite.
type Outcome string

const (
	OutcomeSkippedReadOnly        Outcome = "skipped-readonly"
	OutcomeSkippedNoReferences    Outcome = "skipped-no-references"
	OutcomeSkippedNoMatchingRemap Outcome = "skipped-no-matching-remap"
	OutcomeRewritten              Outcome = "rewritten"
	OutcomeFailed                 Outcome = "failed"
)

// Skipped reports whether the outcome is one of the policy skips.
func (o Outcome) Skipped() bool {
	switch o {
	case OutcomeSkippedReadOnly, OutcomeSkippedNoReferences, OutcomeSkippedNoMatchingRemap:
		return true
	default:
		return false
	}
}

// SceneOutcome records what happened to one scene.
type SceneOutcome struct {
	Scene    string  `json:"scene"`
	Outcome  Outcome `json:"outcome"`
	Encoding string  `json:"encoding,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// RewriteReport collects the outcomes of one rewrite batch in processing order.
type RewriteReport struct {
	Outcomes []SceneOutcome
	Total    int
	Duration time.Duration
}

// Count returns how many scenes ended with outcome o.
func (r *RewriteReport) Count(o Outcome) int {
	n := 0
	for _, so := range r.Outcomes {
		if so.Outcome == o {
			n++
		}
	}
	return n
}

// BackupPath returns the sibling file a scene is written to before it
// replaces the original: the last three characters become "_bak.ma".
func BackupPath(scene string) string {
	if len(scene) < 3 {
		return scene + "_bak.ma"
	}
	return scene[:len(scene)-3] + "_bak.ma"
}

// RewriteOptions configures a Rewriter.
type RewriteOptions struct {
	// Encodings are tried in order when decoding a scene; the one that succeeds
	// is used to write it back.
	Encodings []string
}

// Rewriter applies a ReplacementTable to scene files.
type Rewriter struct {
	opts     RewriteOptions
	logger   *slog.Logger
	writable func(string) bool
}

// NewRewriter builds a rewriter. Empty encodings fall back to utf-8, latin1, cp1252.
func NewRewriter(opts RewriteOptions, logger *slog.Logger) *Rewriter {
	if len(opts.Encodings) == 0 {
		opts.Encodings = textdecode.Names()
	}
	return &Rewriter{
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "mayaref"),
		writable: fileutil.IsWritable,
	}
}

// Rewrite visits every scene in insertion order. For each scene it checks, in
// order: references present, file writable, at least one reference remapped.
// Scenes passing all three are rewritten. Policy skips never stop the batch.
//
// A scene whose remapped text cannot be encoded back is recorded as failed and
// the batch continues. An I/O failure stops the batch: the failing scene is recorded as failed,
// outcomes gathered so far are returned with the report, and the error wraps
// ErrRewriteAborted.
func (w *Rewriter) Rewrite(scenes *SceneMap, replacements *ReplacementTable, observer Observer) (*RewriteReport, error) {
	started := time.Now()
	order := scenes.Scenes()
	report := &RewriteReport{Total: len(order)}

	for i, scene := range order {
		observer.emit(Event{Kind: EventProgress, Scene: scene, Index: i + 1, Total: len(order)})

		outcome, encoding, err := w.rewriteScene(scene, scenes.References(scene), replacements)
		so := SceneOutcome{Scene: scene, Outcome: outcome, Encoding: encoding}
		if err != nil {
			so.Outcome = OutcomeFailed
			so.Error = err.Error()
		}
		report.Outcomes = append(report.Outcomes, so)
		observer.emit(Event{Kind: EventOutcome, Scene: scene, Index: i + 1, Total: len(order), Outcome: so.Outcome, Err: err})

		var encErr *TargetEncodingError
		if errors.As(err, &encErr) {
			logging.WarnWithContext(w.logger, "scene not rewritten", "rewrite_encoding",
				logging.String("scene", scene),
				logging.String("encoding", encErr.Encoding),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remap to a path the scene encoding can hold"),
			)
			continue
		}
		if err != nil {
			report.Duration = time.Since(started)
			logging.ErrorWithContext(w.logger, "rewrite aborted", "rewrite_aborted",
				logging.String("scene", scene),
				logging.Error(err),
				logging.Int("processed", i+1),
				logging.Int("total", len(order)),
				logging.String(logging.FieldErrorHint, "check disk space and permissions, then rescan"),
			)
			return report, err
		}
		w.logOutcome(so)
	}

	report.Duration = time.Since(started)
	w.logger.Info("rewrite complete",
		logging.Int("scenes", report.Total),
		logging.Int("rewritten", report.Count(OutcomeRewritten)),
		logging.Int("replacements", replacements.Len()),
		logging.Duration("rewrite_duration", report.Duration),
	)
	return report, nil
}

func (w *Rewriter) rewriteScene(scene string, refs []string, replacements *ReplacementTable) (Outcome, string, error) {
	if len(refs) == 0 {
		return OutcomeSkippedNoReferences, "", nil
	}
	info, err := os.Stat(scene)
	if err != nil {
		return OutcomeFailed, "", &RewriteIOError{Scene: scene, Op: "stat", Err: err}
	}
	if !w.writable(scene) {
		return OutcomeSkippedReadOnly, "", nil
	}
	if !replacements.MatchesAny(refs) {
		return OutcomeSkippedNoMatchingRemap, "", nil
	}

	data, err := os.ReadFile(scene)
	if err != nil {
		return OutcomeFailed, "", &RewriteIOError{Scene: scene, Op: "read", Err: err}
	}
	text, encoding, err := textdecode.Decode(data, w.opts.Encodings)
	if err != nil {
		return OutcomeFailed, "", &RewriteIOError{Scene: scene, Op: "decode", Err: err}
	}
	out, err := textdecode.Encode(RewriteText(text, replacements), encoding)
	if err != nil {
		return OutcomeFailed, encoding, &TargetEncodingError{Scene: scene, Encoding: encoding, Err: err}
	}

	backup := BackupPath(scene)
	if err := os.WriteFile(backup, out, info.Mode().Perm()); err != nil {
		_ = os.Remove(backup)
		return OutcomeFailed, encoding, &RewriteIOError{Scene: scene, Op: "write backup", Err: err}
	}
	if err := fileutil.ReplaceFile(backup, scene); err != nil {
		return OutcomeFailed, encoding, &RewriteIOError{Scene: scene, Op: "replace", Err: err}
	}
	return OutcomeRewritten, encoding, nil
}

// RewriteText applies replacements to every line of text. Line terminators are
// left exactly as they were.
func RewriteText(text string, replacements *ReplacementTable) string {
	var b strings.Builder
	b.Grow(len(text))
	for line := range strings.Lines(text) {
		b.WriteString(RewriteLine(line, replacements))
	}
	return b.String()
}

// RewriteLine substitutes every replacement key found in line. When a key and
// its target have different extensions, the file-type token on the line is
// switched to match the target: "mayaAscii" for .ma, "mayaBinary" for .mb.
func RewriteLine(line string, replacements *ReplacementTable) string {
	for _, old := range replacements.keys {
		if !strings.Contains(line, old) {
			continue
		}
		target := replacements.targets[old]
		line = strings.ReplaceAll(line, old, target)
		oldExt, newExt := extension(old), extension(target)
		if oldExt == newExt {
			continue
		}
		switch newExt {
		case ".ma":
			line = strings.ReplaceAll(line, binaryTypeToken, asciiTypeToken)
		case ".mb":
			line = strings.ReplaceAll(line, asciiTypeToken, binaryTypeToken)
		}
	}
	return line
}

func (w *Rewriter) logOutcome(so SceneOutcome) {
	switch so.Outcome {
	case OutcomeSkippedReadOnly:
		logging.WarnWithContext(w.logger, "read-only scene skipped", "scene_readonly",
			logging.String("scene", so.Scene),
			logging.String(logging.FieldErrorHint, "make the file writable and rescan"),
			logging.String(logging.FieldImpact, "scene keeps its old references"),
		)
	case OutcomeRewritten:
		w.logger.Info("scene rewritten",
			logging.String("scene", so.Scene),
			logging.String("encoding", so.Encoding),
		)
	default:
		w.logger.Debug("scene skipped",
			logging.String("scene", so.Scene),
			logging.String("outcome", string(so.Outcome)),
		)
	}
}

func (r *RewriteReport) String() string {
	return fmt.Sprintf("%d scenes: %d rewritten, %d read-only, %d without references, %d without remaps, %d failed",
		r.Total,
		r.Count(OutcomeRewritten),
		r.Count(OutcomeSkippedReadOnly),
		r.Count(OutcomeSkippedNoReferences),
		r.Count(OutcomeSkippedNoMatchingRemap),
		r.Count(OutcomeFailed),
	)
}
