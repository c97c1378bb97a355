// Package textdecode decodes scene text with an ordered list of candidate
// encodings and re-encodes edited text with whichever encoding succeeded.
package textdecode

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrUndecodable is returned when none of the candidate encodings accept the input.
var ErrUndecodable = errors.New("no candidate encoding could decode input")

const (
	UTF8   = "utf-8"
	Latin1 = "latin1"
	CP1252 = "cp1252"
)

var aliases = map[string]string{
	"utf-8":        UTF8,
	"utf8":         UTF8,
	"latin1":       Latin1,
	"latin-1":      Latin1,
	"iso-8859-1":   Latin1,
	"cp1252":       CP1252,
	"windows-1252": CP1252,
}

// containsUndefined reports bytes Windows-1252 leaves unassigned. x/text maps
// them to C1 controls; they are treated as decode failures instead.
func containsUndefined(data []byte) bool {
	for _, b := range []byte{0x81, 0x8d, 0x8f, 0x90, 0x9d} {
		if bytes.IndexByte(data, b) >= 0 {
			return true
		}
	}
	return false
}

var charmaps = map[string]*charmap.Charmap{
	Latin1: charmap.ISO8859_1,
	CP1252: charmap.Windows1252,
}

// Canonical maps an encoding name or alias to its canonical form.
func Canonical(name string) (string, bool) {
	canonical, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

// Known reports whether name is a supported encoding or alias.
func Known(name string) bool {
	_, ok := Canonical(name)
	return ok
}

// Names lists the canonical supported encodings.
func Names() []string {
	return []string{UTF8, Latin1, CP1252}
}

// Decode tries each encoding in order and returns the text together with the
// canonical name of the encoding that accepted it.
func Decode(data []byte, encodings []string) (string, string, error) {
	var tried []string
	for _, name := range encodings {
		canonical, ok := Canonical(name)
		if !ok {
			continue
		}
		tried = append(tried, canonical)
		if text, ok := decodeWith(data, canonical); ok {
			return text, canonical, nil
		}
	}
	return "", "", fmt.Errorf("%w (tried %s)", ErrUndecodable, strings.Join(tried, ", "))
}

func decodeWith(data []byte, canonical string) (string, bool) {
	if canonical == UTF8 {
		if !utf8.Valid(data) {
			return "", false
		}
		return string(data), true
	}
	if canonical == CP1252 && containsUndefined(data) {
		return "", false
	}
	cm := charmaps[canonical]
	out, err := cm.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	// Bytes a code page leaves undefined decode to U+FFFD.
	if utf8.Valid(out) && strings.ContainsRune(string(out), utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// Encode converts text back into the named encoding. Characters the target
// encoding cannot represent produce an error rather than a silent substitution.
func Encode(text, name string) ([]byte, error) {
	canonical, ok := Canonical(name)
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	if canonical == UTF8 {
		return []byte(text), nil
	}
	out, err := charmaps[canonical].NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", canonical, err)
	}
	return out, nil
}
