// Package recipients reads the tabular sources feeding the merge pipeline:
// the recipient list for dispatch and the name list for document splitting.
//
// Both readers require a header row. Spreadsheet exports commonly carry a
// UTF-8 BOM, so input is decoded through a BOM-stripping transformer before
// CSV parsing.
package recipients

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrMissingEmailColumn indicates the recipient source has no "email" column.
	ErrMissingEmailColumn = errors.New(`recipient source is missing the "email" column`)

	// ErrMissingRecipientColumn indicates the name list has no "recipient" column.
	ErrMissingRecipientColumn = errors.New(`name list is missing the "recipient" column`)

	// ErrEmptySource indicates the file has no header row.
	ErrEmptySource = errors.New("tabular source is empty")
)

// defaultName substitutes for blank cells in the splitting name list.
const defaultName = "Unknown_Recipient"

// Field is one extra spreadsheet column; order follows the header row.
type Field struct {
	Key   string
	Value string
}

// Recipient is one row of the recipient source, immutable for the run.
// Email may be empty; the dispatcher skips such rows without a ledger entry.
type Recipient struct {
	DisplayName string
	Email       string
	Extra       []Field
}

// ReadRecipients loads all rows of the recipient source in order.
// The "email" column is required; "recipient" defaults to the email address
// when absent or blank. Every other column becomes an Extra field.
func ReadRecipients(path string) ([]Recipient, error) {
	header, rows, err := readTable(path)
	if err != nil {
		return nil, err
	}

	emailIdx := columnIndex(header, "email")
	if emailIdx < 0 {
		return nil, fmt.Errorf("%w: available columns: %v", ErrMissingEmailColumn, header)
	}
	nameIdx := columnIndex(header, "recipient")

	result := make([]Recipient, 0, len(rows))
	for _, row := range rows {
		email := strings.TrimSpace(row[emailIdx])

		name := ""
		if nameIdx >= 0 {
			name = strings.TrimSpace(row[nameIdx])
		}
		if name == "" {
			name = email
		}

		r := Recipient{DisplayName: name, Email: email}
		for i, col := range header {
			if i == emailIdx || i == nameIdx {
				continue
			}
			r.Extra = append(r.Extra, Field{Key: col, Value: strings.TrimSpace(row[i])})
		}
		result = append(result, r)
	}
	return result, nil
}

// ReadNames loads the ordered name list used for splitting. Blank cells
// default to "Unknown_Recipient" so every page still gets a name.
func ReadNames(path string) ([]string, error) {
	header, rows, err := readTable(path)
	if err != nil {
		return nil, err
	}

	idx := columnIndex(header, "recipient")
	if idx < 0 {
		return nil, fmt.Errorf("%w: available columns: %v", ErrMissingRecipientColumn, header)
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row[idx])
		if name == "" {
			name = defaultName
		}
		names = append(names, name)
	}
	return names, nil
}

// readTable parses a header-row CSV file, tolerating a UTF-8 BOM.
func readTable(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	decoded := transform.NewReader(f, unicode.UTF8BOM.NewDecoder())
	reader := csv.NewReader(decoded)

	header, err = reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: %s", ErrEmptySource, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	rows, err = reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return header, rows, nil
}

// columnIndex finds a header column by case-insensitive name, -1 if absent.
func columnIndex(header []string, name string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i
		}
	}
	return -1
}
