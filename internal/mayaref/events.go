package mayaref

// EventKind tags an Event.
type EventKind string

const (
	// EventScene is emitted when a scan starts reading a scene.
	EventScene EventKind = "scene"
	// EventReference is emitted the first time a reference is seen in the scan.
	EventReference EventKind = "reference"
	// EventEncodingError is emitted when no candidate encoding decodes a scene.
	EventEncodingError EventKind = "encoding-error"
	// EventReadError is emitted when a scene cannot be read at all.
	EventReadError EventKind = "read-error"
	// EventScanSummary closes a scan with scene and reference counts.
	EventScanSummary EventKind = "scan-summary"
	// EventProgress is emitted before each scene a rewrite visits.
	EventProgress EventKind = "progress"
	// EventOutcome reports the outcome for one scene of a rewrite.
	EventOutcome EventKind = "outcome"
)

// Event is a message streamed by scans and rewrites. Fields not relevant to
// Kind are zero.
type Event struct {
	Kind      EventKind
	Scene     string
	Reference string
	// Index is 1-based; Total is the number of scenes in the operation.
	Index      int
	Total      int
	Outcome    Outcome
	Err        error
	Scenes     int
	References int
}

// Observer receives events synchronously on the goroutine running the operation.
type Observer func(Event)

func (o Observer) emit(ev Event) {
	if o != nil {
		o(ev)
	}
}
