// Package resolver locates a recipient's split document by name.
//
// The resolver never owns the documents: every lookup is a fresh directory
// scan keyed by the sanitized display name, so re-running the splitter
// between dispatches can never leave a stale reference behind.
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/marvinjameserosa/email-automation/internal/splitter"
	"github.com/marvinjameserosa/email-automation/pkg/sanitize"
)

// Find returns the path of the split document whose sanitized stem matches
// displayName, case-insensitively. The second return is false when the
// directory does not exist or holds no match; both are soft conditions the
// caller handles by sending without an attachment.
func Find(dir, displayName string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	want := sanitize.Filename(displayName)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !strings.EqualFold(ext, splitter.OutputExt) {
			continue
		}
		stem := strings.TrimSuffix(name, ext)
		if strings.EqualFold(stem, want) {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}
