package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusLevel int

const (
	levelInfo statusLevel = iota
	levelOK
	levelWarn
	levelError
)

const ansiReset = "\x1b[0m"

var statusLevels = map[statusLevel]struct {
	label string
	color string
}{
	levelInfo:  {"INFO", "\x1b[34m"},
	levelOK:    {"OK", "\x1b[32m"},
	levelWarn:  {"WARN", "\x1b[33m"},
	levelError: {"ERROR", "\x1b[31m"},
}

const statusLabelWidth = 20

// statusWriter collects the sectioned `pmtm status` report.
type statusWriter struct {
	colorize bool
	lines    []string
}

func (w *statusWriter) paint(level statusLevel, text string) string {
	if !w.colorize {
		return text
	}
	return statusLevels[level].color + text + ansiReset
}

func (w *statusWriter) section(title string) {
	if len(w.lines) > 0 {
		w.lines = append(w.lines, "")
	}
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	w.lines = append(w.lines,
		w.paint(levelInfo, heading),
		w.paint(levelInfo, strings.Repeat("-", len(heading))))
}

func (w *statusWriter) line(label string, level statusLevel, message string) {
	badge := "[" + statusLevels[level].label + "]"
	if message != "" {
		badge += " " + message
	}
	w.lines = append(w.lines, w.paint(level, fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", badge)))
}

func (w *statusWriter) String() string {
	return strings.Join(w.lines, "\n")
}

// shouldColorize reports whether writer is an interactive terminal. It also
// gates progress bars.
func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
