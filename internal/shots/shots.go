// Package shots generates editorial shot numbers.
package shots

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidStart is returned when the start number is not a non-negative integer.
var ErrInvalidStart = errors.New("shot start must be a non-negative integer")

// Names returns count shot numbers beginning at start and advancing by step.
// Each name is zero-padded to the width of start; wider values are not
// truncated.
func Names(start string, step, count int) ([]string, error) {
	start = strings.TrimSpace(start)
	first, err := strconv.Atoi(start)
	if err != nil || first < 0 || strings.HasPrefix(start, "+") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStart, start)
	}
	if step <= 0 {
		return nil, fmt.Errorf("shot step must be positive, got %d", step)
	}
	if count < 0 {
		return nil, fmt.Errorf("shot count must not be negative, got %d", count)
	}
	width := len(start)
	names := make([]string, count)
	for i := range names {
		names[i] = fmt.Sprintf("%0*d", width, first+i*step)
	}
	return names, nil
}

// Prefixed joins prefix and each shot number with sep, as in sh_0010.
func Prefixed(prefix, sep string, numbers []string) []string {
	if prefix == "" {
		return numbers
	}
	out := make([]string, len(numbers))
	for i, n := range numbers {
		out[i] = prefix + sep + n
	}
	return out
}
