package sanitize_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marvinjameserosa/email-automation/pkg/sanitize"
)

func TestFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain name",
			input:    "Alice Smith",
			expected: "Alice Smith",
		},
		{
			name:     "forbidden characters removed",
			input:    `Report<2024>:"Q1"/final\draft|v2?*`,
			expected: "Report2024Q1finaldraftv2",
		},
		{
			name:     "whitespace runs collapse",
			input:    "Too    many\t\twhitespace\n\nruns",
			expected: "Too many whitespace runs",
		},
		{
			name:     "leading and trailing whitespace trimmed",
			input:    "  Alice Smith  ",
			expected: "Alice Smith",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "only forbidden characters",
			input:    `<>:"/\|?*`,
			expected: "",
		},
		{
			name:     "unicode preserved",
			input:    "José García",
			expected: "José García",
		},
		{
			name:     "slash inside name",
			input:    "Smith/Jones",
			expected: "SmithJones",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, sanitize.Filename(tt.input))
		})
	}
}

func TestFilename_Truncation(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 250)
	got := sanitize.Filename(long)
	assert.Len(t, []rune(got), 100)

	// Rune-based, not byte-based: multibyte input must not be cut mid-rune.
	longUnicode := strings.Repeat("é", 250)
	got = sanitize.Filename(longUnicode)
	assert.Len(t, []rune(got), 100)
	assert.Equal(t, strings.Repeat("é", 100), got)
}

func TestFilename_Deterministic(t *testing.T) {
	t.Parallel()

	inputs := []string{"Alice", `we/ird:na*me`, "  spaced  out  ", "José"}
	for _, in := range inputs {
		first := sanitize.Filename(in)
		for range 10 {
			assert.Equal(t, first, sanitize.Filename(in))
		}
		assert.NotContains(t, first, "/")
		for _, c := range `<>:"/\|?*` {
			assert.NotContains(t, first, string(c))
		}
	}
}
