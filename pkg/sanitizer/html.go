// Package sanitizer strips markup from untrusted text before it reaches an
// email template. Extra spreadsheet columns flow into the render context
// verbatim, and markdown templates execute through text/template with no
// escaping, so field values are reduced to plain text first.
package sanitizer

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicy() {
	initOnce.Do(func() {
		// StrictPolicy strips ALL HTML, returns plain text
		strictPolicy = bluemonday.StrictPolicy()
	})
}

// PlainText removes every HTML element and attribute from s, including
// scripts, event handlers and javascript: URLs. Text content is preserved.
func PlainText(s string) string {
	initPolicy()
	return strictPolicy.Sanitize(s)
}
