// Package convert builds and runs ffmpeg commands that convert between
// image sequences and movies.
//
// Sources are discovered by format and an optional keyword filter, image
// files are grouped into numbered sequences, and each sequence or movie
// becomes one Job. The package only assembles and runs commands; output
// quality is whatever ffmpeg produces for the given arguments.
package convert
