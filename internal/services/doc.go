// Package services defines shared utilities consumed by the pmtm tool
// packages and their external-binary integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, operation names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures from ffmpeg,
//     ImageMagick, or the filesystem classify consistently.
//
// Use these helpers when wiring new tool logic so error handling and
// observability stay uniform across commands.
package services
