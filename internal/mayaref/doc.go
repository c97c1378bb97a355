// Package mayaref finds, remaps, and rewrites external file references in
// Maya ASCII scenes.
//
// The workflow has three steps:
//   - Scanner walks a directory for .ma files and extracts reference paths
//     into a SceneMap.
//   - RemapTable holds one old -> new entry per distinct reference. Callers
//     edit it with Set (optionally for every entry sharing a file name) and
//     derive the ReplacementTable work list from it.
//   - Rewriter substitutes remapped paths in every scene that uses one, via a
//     sibling backup file renamed over the original.
//
// Extraction is a line-pattern heuristic, not a parser of the scene format:
// references written in other shapes are missed, and binary (.mb) scenes are
// never read. Lines are only accepted when they end in a quoted path with a
// .ma or .mb extension followed by the statement terminator, which keeps
// arbitrary quoted strings out of the results.
//
// Session layers the interactive state machine on top (scan, edit, rewrite,
// rescan before rewriting again), and StartScan / StartRewrite run the two
// long operations on a goroutine that streams Events over a channel. Running
// operations cannot be cancelled.
package mayaref
