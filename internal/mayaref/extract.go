package mayaref

import (
	"strings"
	"unicode/utf8"
)

const (
	referenceNodeFlag = "-rfn"
	asciiTypeToken    = `"mayaAscii"`
	binaryTypeToken   = `"mayaBinary"`
)

// ExtractReference returns the reference path declared on line, if any.
//
// A line qualifies only when, once trimmed, the three characters before its
// final two are ".ma" or ".mb" (a quoted path followed by `";`). Reference
// node lines (-rfn) are reduced to their last field, file-type tokens cut the
// line down to what follows them, and the remainder must be a quoted,
// semicolon-terminated string.
func ExtractReference(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || !hasSceneSuffix(line) {
		return "", false
	}
	if strings.Contains(line, referenceNodeFlag) {
		fields := strings.Fields(line)
		line = fields[len(fields)-1]
	}
	if idx := strings.LastIndex(line, asciiTypeToken); idx >= 0 {
		line = strings.TrimSpace(line[idx+len(asciiTypeToken):])
	}
	if idx := strings.LastIndex(line, binaryTypeToken); idx >= 0 {
		line = strings.TrimSpace(line[idx+len(binaryTypeToken):])
	}
	if !strings.HasPrefix(line, `"`) || !strings.HasSuffix(line, ";") {
		return "", false
	}
	ref := strings.ReplaceAll(line, `"`, "")
	ref = strings.ReplaceAll(ref, ";", "")
	return ref, true
}

// hasSceneSuffix checks the window of three runes that ends two runes before
// the end of line.
func hasSceneSuffix(line string) bool {
	end := line
	for range 2 {
		_, size := utf8.DecodeLastRuneInString(end)
		end = end[:len(end)-size]
	}
	start := end
	for range 3 {
		if start == "" {
			return false
		}
		_, size := utf8.DecodeLastRuneInString(start)
		start = start[:len(start)-size]
	}
	window := end[len(start):]
	return window == ".ma" || window == ".mb"
}

// ExtractReferences scans text line by line and returns the distinct
// references in first-seen order.
func ExtractReferences(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for line := range strings.Lines(text) {
		ref, ok := ExtractReference(line)
		if !ok {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}
