// Package ledger is the append-only record of delivery attempts and the
// single source of truth for resuming a batch.
//
// The store is a header-row CSV file. Entries are only ever appended, never
// rewritten, so the set of succeeded emails can only grow. A crash between a
// delivery and its append re-sends that recipient on the next run; this
// at-least-once behavior is accepted and must not be papered over by
// buffering appends.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/marvinjameserosa/email-automation/pkg/logger"
)

// AttachmentNone is recorded when a message went out without an attachment.
const AttachmentNone = "None"

const timeLayout = "2006-01-02 15:04:05"

var header = []string{"timestamp", "recipient", "email", "cc", "attachment", "status", "error_message"}

// Status is the terminal outcome of one delivery attempt.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
)

// Entry is one delivery attempt outcome. Written once, never mutated.
type Entry struct {
	Timestamp    time.Time
	Recipient    string
	Email        string
	CC           []string
	Attachment   string
	Status       Status
	ErrorMessage string
}

// Ledger reads and appends delivery outcomes at a fixed path.
type Ledger struct {
	path string
	log  *slog.Logger
}

// New creates a ledger over the CSV store at path.
func New(path string, log *slog.Logger) *Ledger {
	if log == nil {
		log = logger.NewNope()
	}
	return &Ledger{path: path, log: log}
}

// EnsureInitialized creates the store with its header row if it does not
// exist yet. Safe to call on every run.
func (l *Ledger) EnsureInitialized() error {
	if _, err := os.Stat(l.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking ledger %s: %w", l.path, err)
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("creating ledger %s: %w", l.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing ledger header: %w", err)
	}
	w.Flush()
	return w.Error()
}

// SucceededEmails returns the set of emails with a Success entry.
//
// A missing or empty store yields an empty set. A malformed store is logged
// and also yields an empty set: the degraded fallback risks duplicate sends,
// never a blocked batch.
func (l *Ledger) SucceededEmails() map[string]struct{} {
	succeeded := make(map[string]struct{})

	f, err := os.Open(l.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.log.Warn("ledger unreadable, treating all recipients as unsent",
				slog.String("path", l.path), slog.String("error", err.Error()))
		}
		return succeeded
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate short rows from interrupted writes

	head, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return succeeded
	}
	if err != nil {
		l.log.Warn("ledger header malformed, treating all recipients as unsent",
			slog.String("path", l.path), slog.String("error", err.Error()))
		return succeeded
	}

	emailIdx, statusIdx := -1, -1
	for i, col := range head {
		switch strings.TrimSpace(col) {
		case "email":
			emailIdx = i
		case "status":
			statusIdx = i
		}
	}
	if emailIdx < 0 || statusIdx < 0 {
		l.log.Warn("ledger header missing email/status columns, treating all recipients as unsent",
			slog.String("path", l.path))
		return succeeded
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return succeeded
		}
		if err != nil {
			l.log.Warn("ledger row malformed, remaining rows ignored",
				slog.String("path", l.path), slog.String("error", err.Error()))
			return succeeded
		}
		if len(row) <= emailIdx || len(row) <= statusIdx {
			continue
		}
		if Status(row[statusIdx]) == StatusSuccess {
			succeeded[row[emailIdx]] = struct{}{}
		}
	}
}

// Append records one terminal outcome. Call strictly after the delivery
// attempt finished, exactly once per attempt.
func (l *Ledger) Append(e Entry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening ledger %s: %w", l.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	record := []string{
		ts.Format(timeLayout),
		e.Recipient,
		e.Email,
		strings.Join(e.CC, ", "),
		e.Attachment,
		string(e.Status),
		e.ErrorMessage,
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("appending ledger entry: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing ledger entry: %w", err)
	}
	return nil
}
