// Package ffprobe runs ffprobe on a movie and extracts the columns of the
// movie scan: frame count, frame rate, resolution, codec and the Nuke
// colorspace tag.
package ffprobe
