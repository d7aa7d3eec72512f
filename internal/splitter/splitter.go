// Package splitter turns a multi-page source document into one single-page
// file per recipient, named positionally from an ordered name list.
//
// The mapping is strictly ordinal: page i gets names[i], regardless of page
// content. Pages beyond the end of the name list get a synthetic fallback
// name so every page is still written out.
package splitter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/marvinjameserosa/email-automation/pkg/logger"
	"github.com/marvinjameserosa/email-automation/pkg/sanitize"
)

// OutputExt is the extension of every split document. The resolver matches
// on it when looking up attachments.
const OutputExt = ".pdf"

// Document provides page-level access to a multi-page source file.
// Pages are 1-based.
type Document interface {
	PageCount() int
	ExtractPage(pageNum int, outPath string) error
}

// PageResult describes one written split document.
type PageResult struct {
	Page     int    // 1-based source page number
	Name     string // raw name assigned to the page
	Filename string // sanitized output filename
}

// Split writes one single-page document per source page into outDir.
//
// A count mismatch between pages and names is a warning, not a failure:
// splitting proceeds for all pages, using fallback names for any unmatched
// tail. Existing files with colliding sanitized names are overwritten.
func Split(ctx context.Context, doc Document, names []string, outDir string, log *slog.Logger) ([]PageResult, error) {
	if log == nil {
		log = logger.NewNope()
	}

	total := doc.PageCount()
	if len(names) < total {
		log.WarnContext(ctx, "name list shorter than document, unmatched pages get fallback names",
			slog.Int("names", len(names)), slog.Int("pages", total))
	} else if len(names) > total {
		log.WarnContext(ctx, "name list longer than document, trailing names unused",
			slog.Int("names", len(names)), slog.Int("pages", total))
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	results := make([]PageResult, 0, total)
	for page := 1; page <= total; page++ {
		name := fmt.Sprintf("Page_%d_No_Recipient", page)
		if page <= len(names) {
			name = names[page-1]
		}

		filename := sanitize.Filename(name) + OutputExt
		outPath := filepath.Join(outDir, filename)
		if err := doc.ExtractPage(page, outPath); err != nil {
			return results, fmt.Errorf("extracting page %d: %w", page, err)
		}

		log.InfoContext(ctx, "page written",
			slog.Int("page", page), slog.String("name", name), slog.String("file", filename))
		results = append(results, PageResult{Page: page, Name: name, Filename: filename})
	}

	return results, nil
}
