package mayaref

import (
	"fmt"
	"strings"

	"pmtm/internal/fileutil"
)

// ChangeMarker prefixes remapped entries in Display output.
const ChangeMarker = "*"

// Entry is one reference and the path it will be rewritten to.
type Entry struct {
	Old string `json:"old" yaml:"old"`
	New string `json:"new" yaml:"new"`
}

// Changed reports whether the entry remaps anything.
func (e Entry) Changed() bool { return e.Old != e.New }

// RemapTable holds one Entry per distinct reference, in discovery order.
type RemapTable struct {
	entries []Entry
	index   map[string]int
	// exists decides whether a remap target is an existing regular file.
	exists func(string) bool
}

// NewRemapTable creates an identity table for refs. Duplicate refs are ignored.
func NewRemapTable(refs []string) *RemapTable {
	t := &RemapTable{index: make(map[string]int, len(refs)), exists: fileutil.IsRegularFile}
	for _, ref := range refs {
		if _, dup := t.index[ref]; dup {
			continue
		}
		t.index[ref] = len(t.entries)
		t.entries = append(t.entries, Entry{Old: ref, New: ref})
	}
	return t
}

// RestoreRemapTable rebuilds a table from persisted entries.
func RestoreRemapTable(entries []Entry) (*RemapTable, error) {
	t := &RemapTable{index: make(map[string]int, len(entries)), exists: fileutil.IsRegularFile}
	for _, e := range entries {
		if _, dup := t.index[e.Old]; dup {
			return nil, fmt.Errorf("duplicate remap entry %q", e.Old)
		}
		t.index[e.Old] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t, nil
}

// Len returns the number of entries.
func (t *RemapTable) Len() int { return len(t.entries) }

// Entries returns a copy of the table.
func (t *RemapTable) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Lookup returns the entry for old.
func (t *RemapTable) Lookup(old string) (Entry, bool) {
	idx, ok := t.index[old]
	if !ok {
		return Entry{}, false
	}
	return t.entries[idx], true
}

// NormalizeTarget converts backslashes to forward slashes.
func NormalizeTarget(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// Set remaps old to newPath and returns the old paths that changed.
//
// newPath is normalised to forward slashes and must name an existing regular
// file (ErrTargetNotFound). Setting an entry to its own path is ErrNoChange.
// With matchByFilename every entry whose old path has the same base name as
// old receives newPath. A failed Set leaves the table untouched.
func (t *RemapTable) Set(old, newPath string, matchByFilename bool) ([]string, error) {
	idx, ok := t.index[old]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReference, old)
	}
	newPath = NormalizeTarget(newPath)
	if !t.exists(newPath) {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, newPath)
	}
	if old == newPath {
		return nil, ErrNoChange
	}

	if !matchByFilename {
		t.entries[idx].New = newPath
		return []string{old}, nil
	}
	name := baseName(old)
	var changed []string
	for i := range t.entries {
		if baseName(t.entries[i].Old) != name {
			continue
		}
		t.entries[i].New = newPath
		changed = append(changed, t.entries[i].Old)
	}
	return changed, nil
}

// ResetAll restores every entry to identity.
func (t *RemapTable) ResetAll() {
	for i := range t.entries {
		t.entries[i].New = t.entries[i].Old
	}
}

// Display renders one line per entry. Unchanged entries show their path;
// changed entries show the original path when showOriginal is set, or the new
// path prefixed with ChangeMarker.
func (t *RemapTable) Display(showOriginal bool) []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		switch {
		case !e.Changed(), showOriginal:
			out[i] = e.Old
		default:
			out[i] = ChangeMarker + e.New
		}
	}
	return out
}

// Replacements derives the work list of changed entries.
func (t *RemapTable) Replacements() *ReplacementTable {
	r := &ReplacementTable{targets: make(map[string]string)}
	for _, e := range t.entries {
		if !e.Changed() {
			continue
		}
		r.keys = append(r.keys, e.Old)
		r.targets[e.Old] = e.New
	}
	return r
}

// ReplacementTable maps old paths to new paths for entries that differ. Keys
// are unique and keep table order.
type ReplacementTable struct {
	keys    []string
	targets map[string]string
}

// NewReplacementTable builds a table from entries, dropping identity entries.
// A later entry for the same old path replaces an earlier one.
func NewReplacementTable(entries []Entry) *ReplacementTable {
	r := &ReplacementTable{targets: make(map[string]string)}
	for _, e := range entries {
		if !e.Changed() {
			continue
		}
		if _, dup := r.targets[e.Old]; !dup {
			r.keys = append(r.keys, e.Old)
		}
		r.targets[e.Old] = e.New
	}
	return r
}

// Len returns the number of replacements.
func (r *ReplacementTable) Len() int { return len(r.keys) }

// Lookup returns the target for old.
func (r *ReplacementTable) Lookup(old string) (string, bool) {
	target, ok := r.targets[old]
	return target, ok
}

// Entries returns the replacements in order.
func (r *ReplacementTable) Entries() []Entry {
	out := make([]Entry, len(r.keys))
	for i, k := range r.keys {
		out[i] = Entry{Old: k, New: r.targets[k]}
	}
	return out
}

// MatchesAny reports whether any of refs is a key.
func (r *ReplacementTable) MatchesAny(refs []string) bool {
	for _, ref := range refs {
		if _, ok := r.targets[ref]; ok {
			return true
		}
	}
	return false
}
