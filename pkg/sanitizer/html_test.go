package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marvinjameserosa/email-automation/pkg/sanitizer"
)

func TestPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text untouched",
			input:    "Acme Corp, Billing Dept",
			expected: "Acme Corp, Billing Dept",
		},
		{
			name:     "script stripped",
			input:    `hello <script>alert("x")</script>world`,
			expected: "helloworld",
		},
		{
			name:     "formatting tags stripped but text kept",
			input:    "<b>Bold</b> and <i>italic</i>",
			expected: "Bold and italic",
		},
		{
			name:     "event handler stripped",
			input:    `<img src=x onerror="steal()">amount due`,
			expected: "amount due",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, sanitizer.PlainText(tt.input))
		})
	}
}
