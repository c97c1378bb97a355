package mayaref

import (
	"sync"
)

// Session coordinates scan, remap edits, and rewrite for one working set.
//
// A successful rewrite leaves the session in a rewritten state; further
// rewrites fail with ErrRescanRequired until the next Scan, since applying the
// same table twice would substitute into already rewritten paths. Only one
// scan or rewrite may run at a time (ErrBusy), and edits are refused while
// one is running.
type Session struct {
	scanner  *Scanner
	rewriter *Rewriter

	mu        sync.Mutex
	busy      bool
	scenes    *SceneMap
	table     *RemapTable
	rewritten bool
}

// NewSession returns an empty session.
func NewSession(scanner *Scanner, rewriter *Rewriter) *Session {
	return &Session{scanner: scanner, rewriter: rewriter}
}

// Restore loads previously persisted state.
func (s *Session) Restore(scenes *SceneMap, table *RemapTable, rewritten bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.scenes, s.table, s.rewritten = scenes, table, rewritten
	return nil
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// Scan replaces the session state with a fresh scan and an identity remap
// table. On error the previous state is kept.
func (s *Session) Scan(root string, recurse bool, observer Observer) (*ScanResult, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	result, err := s.scanner.Scan(root, recurse, observer)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.scenes = result.Scenes
	s.table = NewRemapTable(result.References)
	s.rewritten = false
	s.mu.Unlock()
	return result, nil
}

// Set edits the remap table; see RemapTable.Set.
func (s *Session) Set(old, newPath string, matchByFilename bool) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return nil, ErrBusy
	}
	if s.table == nil {
		return nil, ErrNoScan
	}
	return s.table.Set(old, newPath, matchByFilename)
}

// ResetAll restores the remap table to identity.
func (s *Session) ResetAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	if s.table == nil {
		return ErrNoScan
	}
	s.table.ResetAll()
	return nil
}

// Rewrite applies the current replacements. The session is marked rewritten
// once the batch starts, so an aborted batch also requires a rescan.
func (s *Session) Rewrite(observer Observer) (*RewriteReport, error) {
	s.mu.Lock()
	switch {
	case s.busy:
		s.mu.Unlock()
		return nil, ErrBusy
	case s.scenes == nil || s.table == nil:
		s.mu.Unlock()
		return nil, ErrNoScan
	case s.rewritten:
		s.mu.Unlock()
		return nil, ErrRescanRequired
	}
	s.busy = true
	s.rewritten = true
	scenes, replacements := s.scenes, s.table.Replacements()
	s.mu.Unlock()
	defer s.end()

	return s.rewriter.Rewrite(scenes, replacements, observer)
}

// Scenes returns the current scene map, or nil before the first scan.
func (s *Session) Scenes() *SceneMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scenes
}

// Table returns a copy of the remap entries.
func (s *Session) Table() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return nil
	}
	return s.table.Entries()
}

// Display renders the remap table; see RemapTable.Display.
func (s *Session) Display(showOriginal bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return nil
	}
	return s.table.Display(showOriginal)
}

// Rewritten reports whether a rewrite ran since the last scan.
func (s *Session) Rewritten() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewritten
}
