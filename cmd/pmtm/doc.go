// Package main hosts the pmtm CLI entrypoint and command graph.
//
// The Cobra command tree covers the Maya reference workflow (scan, remap,
// rewrite, history) plus the supporting production tools: frame range scans,
// movie probing and audio export, ffmpeg conversion, ImageMagick collage and
// annotation, and shot numbering. Configuration resolution, logging setup,
// the session store, and the mutation lock are centralized in commandContext
// so subcommands stay declarative.
package main
