// Package preflight checks that the directories pmtm writes to are usable
// and that the external tools it runs can be found. `pmtm status` renders
// both.
package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"pmtm/internal/config"
	"pmtm/internal/deps"
)

// Result reports one directory check.
type Result struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Directories checks the state, staging and log directories of cfg.
func Directories(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		Directory("State directory", cfg.Paths.StateDir),
		Directory("Staging directory", cfg.Paths.StagingDir),
		Directory("Log directory", cfg.Paths.LogDir),
	}
}

// Directory checks that path exists, is a directory, and can be listed and
// written to.
func Directory(name, path string) Result {
	result := Result{Name: name, Path: path}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		result.Detail = "does not exist"
	case err != nil:
		result.Detail = fmt.Sprintf("stat: %v", err)
	case !info.IsDir():
		result.Detail = "is not a directory"
	default:
		if err := accessReadWrite(path); err != nil {
			result.Detail = fmt.Sprintf("insufficient permissions: %v", err)
		} else {
			result.Passed = true
			result.Detail = "read/write ok"
		}
	}
	return result
}

// Tools resolves the ffmpeg, ffprobe and ImageMagick commands of cfg.
func Tools(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}
