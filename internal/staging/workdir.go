package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Kinds of work directories. The kind is the directory name prefix, which
// CleanStale uses to recognise directories it owns.
const (
	KindThumbnails = "thumbs"
	KindAnnotate   = "annotate"
)

// WorkDir is a scratch directory owned by one run.
type WorkDir struct {
	Path string
}

// NewWorkDir creates <stagingDir>/<kind>-<uuid>.
func NewWorkDir(stagingDir, kind string) (*WorkDir, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, fmt.Errorf("staging dir not configured")
	}
	if !knownKind(kind) {
		return nil, fmt.Errorf("unknown staging kind %q", kind)
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	path := filepath.Join(stagingDir, kind+"-"+uuid.NewString())
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	return &WorkDir{Path: path}, nil
}

// File returns the path of name inside the work directory.
func (w *WorkDir) File(name string) string {
	return filepath.Join(w.Path, name)
}

// Remove deletes the work directory and everything in it.
func (w *WorkDir) Remove() error {
	if w == nil || w.Path == "" {
		return nil
	}
	return os.RemoveAll(w.Path)
}

func knownKind(kind string) bool {
	return kind == KindThumbnails || kind == KindAnnotate
}

func ownedName(name string) bool {
	prefix, _, ok := strings.Cut(name, "-")
	return ok && knownKind(prefix)
}
