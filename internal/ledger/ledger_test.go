package ledger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marvinjameserosa/email-automation/internal/ledger"
)

func newLedger(t *testing.T) (*ledger.Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "email_log.csv")
	return ledger.New(path, nil), path
}

func TestEnsureInitialized(t *testing.T) {
	t.Parallel()

	l, path := newLedger(t)
	require.NoError(t, l.EnsureInitialized())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "timestamp,recipient,email,cc,attachment,status,error_message\n", string(data))
}

func TestEnsureInitialized_Idempotent(t *testing.T) {
	t.Parallel()

	l, path := newLedger(t)
	require.NoError(t, l.EnsureInitialized())

	require.NoError(t, l.Append(ledger.Entry{
		Recipient:  "Alice",
		Email:      "a@x.com",
		Attachment: ledger.AttachmentNone,
		Status:     ledger.StatusSuccess,
	}))

	// A second init must not truncate existing entries.
	require.NoError(t, l.EnsureInitialized())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "a@x.com")
}

func TestAppendAndSucceededEmails(t *testing.T) {
	t.Parallel()

	l, _ := newLedger(t)
	require.NoError(t, l.EnsureInitialized())

	require.NoError(t, l.Append(ledger.Entry{
		Recipient:  "Alice",
		Email:      "a@x.com",
		CC:         []string{"audit@x.com", "boss@x.com"},
		Attachment: "Alice.pdf",
		Status:     ledger.StatusSuccess,
	}))
	require.NoError(t, l.Append(ledger.Entry{
		Recipient:    "Bob",
		Email:        "b@x.com",
		Attachment:   ledger.AttachmentNone,
		Status:       ledger.StatusFailed,
		ErrorMessage: "smtp: connection refused",
	}))

	succeeded := l.SucceededEmails()
	assert.Contains(t, succeeded, "a@x.com")
	assert.NotContains(t, succeeded, "b@x.com")
}

func TestSucceededEmails_MonotonicAcrossRuns(t *testing.T) {
	t.Parallel()

	l, path := newLedger(t)
	require.NoError(t, l.EnsureInitialized())
	require.NoError(t, l.Append(ledger.Entry{
		Email: "a@x.com", Recipient: "Alice",
		Attachment: ledger.AttachmentNone, Status: ledger.StatusSuccess,
	}))

	// A second ledger over the same path sees the first run's successes.
	resumed := ledger.New(path, nil)
	require.NoError(t, resumed.EnsureInitialized())
	assert.Contains(t, resumed.SucceededEmails(), "a@x.com")

	require.NoError(t, resumed.Append(ledger.Entry{
		Email: "b@x.com", Recipient: "Bob",
		Attachment: ledger.AttachmentNone, Status: ledger.StatusSuccess,
	}))
	succeeded := resumed.SucceededEmails()
	assert.Len(t, succeeded, 2)
}

func TestSucceededEmails_MissingStore(t *testing.T) {
	t.Parallel()

	l, _ := newLedger(t)
	assert.Empty(t, l.SucceededEmails())
}

func TestSucceededEmails_CorruptStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "email_log.csv")
	require.NoError(t, os.WriteFile(path, []byte("\"unterminated\nnot,a,ledger"), 0o644))

	l := ledger.New(path, nil)
	// Degraded fallback: corrupt store means no known successes, not a crash.
	assert.Empty(t, l.SucceededEmails())
}

func TestSucceededEmails_ShortRowsTolerated(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "email_log.csv")
	content := strings.Join([]string{
		"timestamp,recipient,email,cc,attachment,status,error_message",
		"2026-01-02 10:00:00,Alice,a@x.com,,None,Success,",
		"2026-01-02 10:00:01,Bob", // interrupted write
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	l := ledger.New(path, nil)
	succeeded := l.SucceededEmails()
	assert.Contains(t, succeeded, "a@x.com")
	assert.Len(t, succeeded, 1)
}

func TestAppend_CreatesStoreIfAbsent(t *testing.T) {
	t.Parallel()

	l, path := newLedger(t)
	require.NoError(t, l.Append(ledger.Entry{
		Email: "a@x.com", Recipient: "Alice",
		Attachment: ledger.AttachmentNone, Status: ledger.StatusFailed,
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Failed")
}

func TestAppend_TimestampFormat(t *testing.T) {
	t.Parallel()

	l, path := newLedger(t)
	require.NoError(t, l.EnsureInitialized())
	require.NoError(t, l.Append(ledger.Entry{
		Email: "a@x.com", Recipient: "Alice",
		Attachment: ledger.AttachmentNone, Status: ledger.StatusSuccess,
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},`, lines[1])
}
