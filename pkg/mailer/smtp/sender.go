// Package smtp implements mailer.Sender over plain SMTP with STARTTLS.
//
// Each Send call dials a fresh connection, authenticates, delivers and quits.
// Connections are never pooled or reused across messages; the batch pipeline
// sends one message per recipient, so the connection lifetime matches one
// delivery attempt exactly.
package smtp

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	netsmtp "net/smtp"
	"net/textproto"
	"strconv"

	"github.com/marvinjameserosa/email-automation/pkg/mailer"
)

// Sender implements mailer.Sender using net/smtp.
type Sender struct {
	config Config
}

// New creates a new SMTP sender.
func New(cfg Config) *Sender {
	return &Sender{config: cfg}
}

// Send implements mailer.Sender. net/smtp has no context support; the
// context is checked before dialing and the connection is scoped to this
// call (smtp.SendMail quits on every exit path).
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := email.From
	if from == "" {
		from = mailer.Recipient(s.config.SenderName, s.config.SenderEmail)
	}

	msg, err := buildMessage(from, email)
	if err != nil {
		return fmt.Errorf("smtp: failed to build message: %w", err)
	}

	envelopeFrom := bareAddress(from)
	envelopeTo := make([]string, 0, len(email.To)+len(email.CC))
	for _, addr := range email.To {
		envelopeTo = append(envelopeTo, bareAddress(addr))
	}
	for _, addr := range email.CC {
		envelopeTo = append(envelopeTo, bareAddress(addr))
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	auth := netsmtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)

	if err := netsmtp.SendMail(addr, auth, envelopeFrom, envelopeTo, msg); err != nil {
		return fmt.Errorf("smtp: failed to send email: %w", err)
	}
	return nil
}

// bareAddress extracts the address part of an RFC 5322 address
// ("Name <a@x.com>" becomes "a@x.com"). Unparseable input passes through
// unchanged so the server reports the actual rejection.
func bareAddress(s string) string {
	parsed, err := mail.ParseAddress(s)
	if err != nil {
		return s
	}
	return parsed.Address
}

// buildMessage assembles the wire-format MIME message: a bare text/html body
// when there are no attachments, multipart/mixed otherwise.
func buildMessage(from string, email *mailer.Email) ([]byte, error) {
	var buf bytes.Buffer

	writeHeader := func(key, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", key, value)
	}

	writeHeader("From", from)
	writeHeader("To", joinAddresses(email.To))
	if len(email.CC) > 0 {
		writeHeader("Cc", joinAddresses(email.CC))
	}
	if email.ReplyTo != "" {
		writeHeader("Reply-To", email.ReplyTo)
	}
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", email.Subject))
	for key, value := range email.Headers {
		writeHeader(key, value)
	}
	writeHeader("MIME-Version", "1.0")

	if len(email.Attachments) == 0 {
		writeHeader("Content-Type", `text/html; charset="utf-8"`)
		writeHeader("Content-Transfer-Encoding", "base64")
		buf.WriteString("\r\n")
		writeBase64(&buf, []byte(email.HTML))
		return buf.Bytes(), nil
	}

	mixed := multipart.NewWriter(&buf)
	writeHeader("Content-Type", fmt.Sprintf(`multipart/mixed; boundary=%q`, mixed.Boundary()))
	buf.WriteString("\r\n")

	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", `text/html; charset="utf-8"`)
	bodyHeader.Set("Content-Transfer-Encoding", "base64")
	part, err := mixed.CreatePart(bodyHeader)
	if err != nil {
		return nil, err
	}
	if err := encodeBase64(part, []byte(email.HTML)); err != nil {
		return nil, err
	}

	for _, att := range email.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", contentType)
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))
		part, err := mixed.CreatePart(header)
		if err != nil {
			return nil, err
		}
		if err := encodeBase64(part, att.Content); err != nil {
			return nil, err
		}
	}

	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func joinAddresses(addrs []string) string {
	var buf bytes.Buffer
	for i, a := range addrs {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(a)
	}
	return buf.String()
}

// base64 content is wrapped at 76 columns per RFC 2045.
const base64LineLength = 76

func writeBase64(buf *bytes.Buffer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := min(base64LineLength, len(encoded))
		buf.WriteString(encoded[:n])
		buf.WriteString("\r\n")
		encoded = encoded[n:]
	}
}

func encodeBase64(w io.Writer, data []byte) error {
	var buf bytes.Buffer
	writeBase64(&buf, data)
	_, err := w.Write(buf.Bytes())
	return err
}
