// Package logs reads the pmtm log file for `pmtm logs`: the last N lines,
// then optionally every line appended afterwards until the context ends.
// Memory use is bounded by N unless every line is requested.
package logs
