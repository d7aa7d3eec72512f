package splitter

import (
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFDocument implements Document over a PDF file on disk.
type PDFDocument struct {
	path  string
	pages int
}

// OpenPDF validates the source file and reads its page count.
func OpenPDF(path string) (*PDFDocument, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &PDFDocument{path: path, pages: count}, nil
}

// PageCount implements Document.
func (d *PDFDocument) PageCount() int {
	return d.pages
}

// ExtractPage implements Document. The source file is re-read per page; the
// splitter is a one-shot offline step, so simplicity wins over caching.
func (d *PDFDocument) ExtractPage(pageNum int, outPath string) error {
	if err := api.TrimFile(d.path, outPath, []string{strconv.Itoa(pageNum)}, nil); err != nil {
		return fmt.Errorf("extracting page %d of %s: %w", pageNum, d.path, err)
	}
	return nil
}
