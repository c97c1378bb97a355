package main

import (
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// progressDescriptionWidth bounds the per-item label shown beside the bar.
const progressDescriptionWidth = 40

// progress wraps a progress bar that is only drawn when stderr is a terminal
// and JSON output is off. A nil *progress is a no-op.
type progress struct {
	bar *progressbar.ProgressBar
}

func (c *commandContext) newProgress(cmd *cobra.Command, total int, description string) *progress {
	writer := cmd.ErrOrStderr()
	if c.JSONMode() || total <= 0 || !shouldColorize(writer) {
		return nil
	}
	return &progress{bar: newProgressBar(writer, total, description)}
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

// step advances the bar by one and labels it with item.
func (p *progress) step(item string) {
	if p == nil {
		return
	}
	p.bar.Describe(truncateLeft(item, progressDescriptionWidth))
	_ = p.bar.Add(1)
}

func (p *progress) finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}
