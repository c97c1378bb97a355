// Package logging builds the slog loggers pmtm commands write to stderr and
// to pmtm.log.
//
// Console output is one line per record: timestamp, level, component and
// operation, then the message and key=value pairs, so `pmtm logs --grep
// run_id=...` can pick out a single run. The JSON format is slog's own with
// short key names.
package logging
