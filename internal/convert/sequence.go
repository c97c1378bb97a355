package convert

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var frameFile = regexp.MustCompile(`^(.*?)(\d+)(\.[^.]+)$`)

// Sequence is a run of numbered image files sharing a directory, prefix,
// extension, and frame-number width.
type Sequence struct {
	Dir     string `json:"dir"`
	Prefix  string `json:"prefix"`
	Ext     string `json:"ext"`
	Padding int    `json:"padding"`
	First   int    `json:"first"`
	Last    int    `json:"last"`
	Count   int    `json:"count"`
}

// Pattern returns the printf-style ffmpeg input pattern, e.g.
// /plates/sh010.%04d.exr.
func (s Sequence) Pattern() string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s%%0%dd%s", s.Prefix, s.Padding, s.Ext))
}

// Name is the prefix without trailing separators, or the directory name when
// the prefix is empty.
func (s Sequence) Name() string {
	if name := strings.TrimRight(s.Prefix, "._- "); name != "" {
		return name
	}
	return filepath.Base(s.Dir)
}

type seqKey struct {
	dir, prefix, ext string
	padding          int
}

// GroupSequences groups numbered files into sequences ordered by pattern.
// Files without a trailing frame number are returned in rest.
func GroupSequences(files []string) (seqs []Sequence, rest []string) {
	index := make(map[seqKey]int)
	for _, file := range files {
		m := frameFile.FindStringSubmatch(filepath.Base(file))
		if m == nil {
			rest = append(rest, file)
			continue
		}
		frame, err := strconv.Atoi(m[2])
		if err != nil {
			rest = append(rest, file)
			continue
		}
		key := seqKey{dir: filepath.Dir(file), prefix: m[1], ext: m[3], padding: len(m[2])}
		i, ok := index[key]
		if !ok {
			index[key] = len(seqs)
			seqs = append(seqs, Sequence{Dir: key.dir, Prefix: key.prefix, Ext: key.ext, Padding: key.padding, First: frame, Last: frame})
			i = len(seqs) - 1
		}
		seq := &seqs[i]
		seq.Count++
		seq.First = min(seq.First, frame)
		seq.Last = max(seq.Last, frame)
	}
	sort.SliceStable(seqs, func(a, b int) bool { return seqs[a].Pattern() < seqs[b].Pattern() })
	return seqs, rest
}
