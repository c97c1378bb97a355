package shots

import (
	"errors"
	"slices"
	"testing"
)

func TestNames(t *testing.T) {
	tests := []struct {
		name  string
		start string
		step  int
		count int
		want  []string
	}{
		{name: "padded", start: "0010", step: 10, count: 3, want: []string{"0010", "0020", "0030"}},
		{name: "unpadded", start: "5", step: 5, count: 3, want: []string{"5", "10", "15"}},
		{name: "overflow width", start: "90", step: 10, count: 2, want: []string{"90", "100"}},
		{name: "empty", start: "010", step: 10, count: 0, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Names(tt.start, tt.step, tt.count)
			if err != nil {
				t.Fatalf("Names: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Names = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNamesRejectsInvalidInput(t *testing.T) {
	for _, start := range []string{"", "sh010", "-10", "+10", "1.5"} {
		if _, err := Names(start, 10, 1); !errors.Is(err, ErrInvalidStart) {
			t.Fatalf("start %q: expected ErrInvalidStart, got %v", start, err)
		}
	}
	if _, err := Names("0010", 0, 1); err == nil {
		t.Fatal("expected error for zero step")
	}
	if _, err := Names("0010", 10, -1); err == nil {
		t.Fatal("expected error for negative count")
	}
}

func TestPrefixed(t *testing.T) {
	got := Prefixed("sh", "_", []string{"0010", "0020"})
	if !slices.Equal(got, []string{"sh_0010", "sh_0020"}) {
		t.Fatalf("Prefixed = %v", got)
	}
	if got := Prefixed("", "_", []string{"1"}); !slices.Equal(got, []string{"1"}) {
		t.Fatalf("Prefixed without prefix = %v", got)
	}
}
