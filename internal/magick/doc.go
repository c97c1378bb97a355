// Package magick wraps the ImageMagick command line for the image tools:
// size queries, thumbnails, text annotation, and contact-sheet collages.
//
// All commands go through a toolexec.Executor, so the exact argument
// vectors are testable without ImageMagick installed.
package magick
