// Package mailer provides the message model, provider interface and template
// renderer for personalized bulk email.
//
// The package separates delivery (via providers) from template rendering, so
// the transport can be swapped without touching the merge pipeline:
//
//   - Sender: interface that delivery providers implement
//   - Renderer: renders a single HTML or markdown template per recipient
//   - Email / Attachment: fully-prepared message ready for sending
//
// Providers live in sub-packages: smtp (fresh STARTTLS connection per send,
// matching the one-connection-per-recipient batch model) and resend (Resend
// HTTP API).
package mailer
