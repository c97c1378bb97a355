// Package movies collects review metadata for QuickTime and MP4 movies:
// frame count, frame rate, resolution, codec, and the Nuke colorspace tag,
// with an optional first-frame thumbnail. It also exports the audio track
// of each movie as 16-bit stereo WAV.
//
// Probing runs in parallel up to Options.Concurrency ffprobe processes;
// results keep the input order.
package movies
