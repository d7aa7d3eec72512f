// Package dispatch orchestrates one batch run: render, resolve attachment,
// compose, deliver and record, per recipient, in source order.
//
// Failures are isolated per recipient. Only precondition failures (missing
// recipient source, unreadable ledger schema) abort the batch; once the loop
// starts, every recipient reaches a terminal outcome independently and
// nothing is ever rolled back.
package dispatch

import (
	"context"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/marvinjameserosa/email-automation/internal/config"
	"github.com/marvinjameserosa/email-automation/internal/ledger"
	"github.com/marvinjameserosa/email-automation/internal/recipients"
	"github.com/marvinjameserosa/email-automation/internal/resolver"
	"github.com/marvinjameserosa/email-automation/pkg/logger"
	"github.com/marvinjameserosa/email-automation/pkg/mailer"
	"github.com/marvinjameserosa/email-automation/pkg/sanitizer"
)

// Renderer produces the message body (and optional subject override) for one
// recipient context.
type Renderer interface {
	Render(data map[string]any) (*mailer.RenderResult, error)
}

// Summary reports the batch outcome.
type Summary struct {
	Attempted int // recipients that reached a delivery attempt or render failure
	Sent      int
	Failed    int
	Skipped   int // already succeeded in a prior run
}

// Dispatcher runs the per-recipient merge pipeline.
type Dispatcher struct {
	cfg      *config.Config
	ledger   *ledger.Ledger
	renderer Renderer
	sender   mailer.Sender
	log      *slog.Logger
	now      func() time.Time
}

// New wires a dispatcher. A nil log discards output.
func New(cfg *config.Config, led *ledger.Ledger, renderer Renderer, sender mailer.Sender, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewNope()
	}
	return &Dispatcher{
		cfg:      cfg,
		ledger:   led,
		renderer: renderer,
		sender:   sender,
		log:      log,
		now:      time.Now,
	}
}

// Run processes every recipient of the configured source once, skipping those
// the ledger already records as succeeded. The ledger is the only skip
// mechanism: there is no other "already processed" marker.
func (d *Dispatcher) Run(ctx context.Context) (*Summary, error) {
	mode := "no attachments"
	if d.cfg.Attachments {
		mode = "attachments"
	}
	d.log.InfoContext(ctx, "starting batch",
		slog.String("mode", mode), slog.String("provider", d.cfg.Provider))

	rows, err := recipients.ReadRecipients(d.cfg.Paths.Recipients)
	if err != nil {
		return nil, err
	}

	if err := d.ledger.EnsureInitialized(); err != nil {
		return nil, err
	}

	// Computed once at batch start, not re-queried per recipient.
	succeeded := d.ledger.SucceededEmails()
	if len(succeeded) > 0 {
		d.log.InfoContext(ctx, "prior successes found in ledger, those recipients will be skipped",
			slog.Int("count", len(succeeded)))
	}

	summary := &Summary{}
	for _, r := range rows {
		if r.Email == "" {
			d.log.WarnContext(ctx, "row without email skipped", slog.String("recipient", r.DisplayName))
			continue
		}
		if _, ok := succeeded[r.Email]; ok {
			summary.Skipped++
			continue
		}

		summary.Attempted++
		d.dispatchOne(ctx, r, summary)
	}

	d.log.InfoContext(ctx, "batch completed",
		slog.Int("attempted", summary.Attempted),
		slog.Int("sent", summary.Sent),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped),
		slog.String("ledger", d.cfg.Paths.Ledger))
	return summary, nil
}

// dispatchOne takes one recipient to a terminal outcome and appends exactly
// one ledger entry for it.
func (d *Dispatcher) dispatchOne(ctx context.Context, r recipients.Recipient, summary *Summary) {
	result, err := d.renderer.Render(d.buildContext(r))
	if err != nil {
		d.log.ErrorContext(ctx, "template render failed",
			slog.String("recipient", r.DisplayName), slog.String("error", err.Error()))
		d.append(ctx, ledger.Entry{
			Recipient:    r.DisplayName,
			Email:        r.Email,
			CC:           d.cfg.CC,
			Attachment:   ledger.AttachmentNone,
			Status:       ledger.StatusFailed,
			ErrorMessage: "template render failed",
		})
		summary.Failed++
		return
	}

	attachmentName := ledger.AttachmentNone
	var attachments []mailer.Attachment
	if d.cfg.Attachments {
		if att, ok := d.resolveAttachment(ctx, r.DisplayName); ok {
			attachments = append(attachments, att)
			attachmentName = att.Filename
		}
	}

	subject := result.Subject
	if subject == "" {
		subject = d.cfg.Subject
	}

	email := &mailer.Email{
		From:        mailer.Recipient(d.cfg.Sender.Name, d.cfg.Sender.Email),
		To:          []string{mailer.Recipient(r.DisplayName, r.Email)},
		CC:          d.cfg.CC,
		Subject:     subject,
		HTML:        result.HTML,
		Attachments: attachments,
	}

	entry := ledger.Entry{
		Recipient:  r.DisplayName,
		Email:      r.Email,
		CC:         d.cfg.CC,
		Attachment: attachmentName,
	}

	if err := d.sender.Send(ctx, email); err != nil {
		d.log.ErrorContext(ctx, "delivery failed",
			slog.String("recipient", r.DisplayName), slog.String("error", err.Error()))
		entry.Status = ledger.StatusFailed
		entry.ErrorMessage = err.Error()
		summary.Failed++
	} else {
		d.log.InfoContext(ctx, "email sent",
			slog.String("recipient", r.DisplayName), slog.String("email", r.Email))
		entry.Status = ledger.StatusSuccess
		summary.Sent++
	}

	// Appended strictly after the attempt reached a terminal outcome. A
	// crash before this line re-sends on the next run (at-least-once).
	d.append(ctx, entry)
}

// resolveAttachment looks up and reads the recipient's split document.
// Every miss is a soft condition: the message goes out without attachment.
func (d *Dispatcher) resolveAttachment(ctx context.Context, displayName string) (mailer.Attachment, bool) {
	path, ok := resolver.Find(d.cfg.Paths.SplitDir, displayName)
	if !ok {
		d.log.WarnContext(ctx, "no document found for recipient, sending without attachment",
			slog.String("recipient", displayName))
		return mailer.Attachment{}, false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		d.log.WarnContext(ctx, "document unreadable, sending without attachment",
			slog.String("recipient", displayName), slog.String("error", err.Error()))
		return mailer.Attachment{}, false
	}

	return mailer.Attachment{
		Filename:    filepath.Base(path),
		ContentType: "application/pdf",
		Content:     content,
	}, true
}

// buildContext assembles the render context: base variables overridden and
// extended by the recipient's extra columns (row-specific values win).
// Extra values are untrusted spreadsheet content and get stripped to plain
// text before templating.
func (d *Dispatcher) buildContext(r recipients.Recipient) map[string]any {
	now := d.now()
	data := map[string]any{
		"recipient":    r.DisplayName,
		"sender_name":  d.cfg.Sender.Name,
		"current_date": now.Format("2006-01-02"),
		"current_year": now.Year(),
	}
	for _, f := range r.Extra {
		// Unescape after stripping: bluemonday entity-escapes text content,
		// and the HTML template path escapes again on output.
		data[f.Key] = html.UnescapeString(sanitizer.PlainText(f.Value))
	}
	return data
}

func (d *Dispatcher) append(ctx context.Context, e ledger.Entry) {
	e.Timestamp = d.now()
	if err := d.ledger.Append(e); err != nil {
		d.log.ErrorContext(ctx, "ledger append failed",
			slog.String("email", e.Email), slog.String("error", err.Error()))
	}
}
