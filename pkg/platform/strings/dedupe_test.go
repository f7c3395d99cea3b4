package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "nil", input: nil, want: nil},
		{name: "trims and drops empties", input: []string{" a ", "", "  ", "b"}, want: []string{"a", "b"}},
		{name: "dedupes preserving order", input: []string{"b", "a", "b", "a"}, want: []string{"b", "a"}},
		{name: "duplicate after trim", input: []string{"a", " a"}, want: []string{"a"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DedupeAndTrim(tc.input))
		})
	}
}
