package mayaref

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPathNotFound reports a scan root that is missing or not a directory.
	ErrPathNotFound = errors.New("scan root not found")
	// ErrTargetNotFound reports a remap target that is not an existing file.
	ErrTargetNotFound = errors.New("target not found")
	// ErrNoChange reports a remap whose target equals the original path.
	ErrNoChange = errors.New("old and new path are identical")
	// ErrUnknownReference reports a remap for a path the scan never found.
	ErrUnknownReference = errors.New("reference not in remap table")
	// ErrRescanRequired is returned when a rewrite is attempted twice on one scan.
	ErrRescanRequired = errors.New("rescan required before rewriting again")
	// ErrNoScan is returned when an operation needs scan results that do not exist.
	ErrNoScan = errors.New("no scan results")
	// ErrBusy is returned when a scan or rewrite is already running.
	ErrBusy = errors.New("another scan or rewrite is in progress")
	// ErrRewriteAborted marks a rewrite batch stopped by an I/O failure.
	ErrRewriteAborted = errors.New("rewrite aborted")
)

// EncodingError reports a scene none of the candidate encodings could decode.
type EncodingError struct {
	Scene     string
	Encodings []string
	Err       error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("decode %s (tried %s): %v", e.Scene, strings.Join(e.Encodings, ", "), e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// ReadError reports a scene that could not be read during a scan.
type ReadError struct {
	Scene string
	Err   error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Scene, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// TargetEncodingError reports a scene whose rewritten text cannot be written
// back in the encoding it was read with, typically a remap target holding
// characters outside latin1 or cp1252. Only that scene fails; the batch goes on.
type TargetEncodingError struct {
	Scene    string
	Encoding string
	Err      error
}

func (e *TargetEncodingError) Error() string {
	return fmt.Sprintf("remapped path in %s does not fit %s: %v", e.Scene, e.Encoding, e.Err)
}

func (e *TargetEncodingError) Unwrap() error { return e.Err }

// RewriteIOError reports the I/O failure that aborted a rewrite batch.
type RewriteIOError struct {
	Scene string
	Op    string
	Err   error
}

func (e *RewriteIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Scene, e.Err)
}

func (e *RewriteIOError) Unwrap() []error { return []error{ErrRewriteAborted, e.Err} }
