// Package toolexec runs the external command-line tools pmtm wraps
// (ffmpeg, ffprobe, ImageMagick) behind a small interface so callers can
// substitute a recorder in tests.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"pmtm/internal/services"
)

// Executor abstracts command execution.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// CommandExecutor executes commands using os/exec. Stdout is returned; stderr
// is folded into the error on failure.
type CommandExecutor struct {
	// Timeout bounds each command when positive.
	Timeout time.Duration
}

// Run implements Executor.
func (e CommandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	output, err := cmd.Output()
	if err == nil {
		return output, nil
	}

	component := filepath.Base(binary)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return output, services.Wrap(services.ErrTimeout, component, "run", "command timed out", err)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return output, services.Wrap(services.ErrConfiguration, component, "run", "binary not found; check the [tools] config", err)
	}
	return output, services.Wrap(services.ErrExternalTool, component, "run", lastLine(stderr.String()), err)
}

// CommandLine renders binary and args as a shell-like string for logs and
// dry runs.
func CommandLine(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(binary))
	for _, arg := range args {
		parts = append(parts, quote(arg))
	}
	return strings.Join(parts, " ")
}

func quote(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsAny(value, " \t\"'") {
		return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
	}
	return value
}

func lastLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.LastIndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[idx+1:])
	}
	return text
}
