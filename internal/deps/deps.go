// Package deps reports whether the external tools pmtm shells out to
// (ffmpeg, ffprobe, ImageMagick) can be found.
package deps

import (
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"pmtm/internal/config"
)

// Requirement names a tool and the command configured for it.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of resolving one Requirement. Path is the resolved
// executable when Available.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Path        string `json:"path,omitempty"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// Requirements lists the external tools configured in cfg. Only the
// commands that need ImageMagick fail without it.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "Required for thumbnails, audio export, and conversion"},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "Required for movie scans"},
		{Name: "ImageMagick", Command: cfg.MagickBinary(), Description: "Required for image collage and annotation", Optional: true},
	}
}

// CheckBinaries resolves every requirement on PATH (or as a path).
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		st := Status{
			Name:        req.Name,
			Command:     strings.TrimSpace(req.Command),
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch path, err := exec.LookPath(st.Command); {
		case st.Command == "":
			st.Detail = "command not configured"
		case err != nil:
			st.Detail = fmt.Sprintf("binary %q not found", st.Command)
		default:
			st.Available = true
			st.Path = path
		}
		results[i] = st
	}
	return results
}

// Missing returns the unavailable statuses, limited to names when given.
func Missing(statuses []Status, names ...string) []Status {
	var out []Status
	for _, st := range statuses {
		if st.Available {
			continue
		}
		if len(names) > 0 && !slices.Contains(names, st.Name) {
			continue
		}
		out = append(out, st)
	}
	return out
}
