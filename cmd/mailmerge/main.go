// mailmerge delivers one personalized email per row of a tabular recipient
// list, with optional per-recipient PDF attachments produced by splitting a
// multi-page source document. An append-only delivery ledger makes re-running
// a batch safe: recipients already confirmed delivered are never re-sent.
//
// Usage:
//
//	mailmerge send  [-config config.yaml]   Run the delivery batch
//	mailmerge split [-config config.yaml]   Split the source PDF into per-recipient pages
//
// Credentials are read from the environment (a .env file in the working
// directory is loaded if present): SENDER_EMAIL, SENDER_PASSWORD (smtp) or
// RESEND_API_KEY (resend), and optionally SENDER_NAME and SENTRY_DSN.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/marvinjameserosa/email-automation/internal/config"
	"github.com/marvinjameserosa/email-automation/internal/dispatch"
	"github.com/marvinjameserosa/email-automation/internal/ledger"
	"github.com/marvinjameserosa/email-automation/internal/recipients"
	"github.com/marvinjameserosa/email-automation/internal/splitter"
	"github.com/marvinjameserosa/email-automation/pkg/logger"
	"github.com/marvinjameserosa/email-automation/pkg/mailer"
	"github.com/marvinjameserosa/email-automation/pkg/mailer/resend"
	"github.com/marvinjameserosa/email-automation/pkg/mailer/smtp"
)

const defaultConfigPath = "config.yaml"

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		usage()
		return 2
	}

	cmd := os.Args[1]
	switch cmd {
	case "send", "split":
	case "help", "--help", "-h":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		return 2
	}

	flags := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := flags.String("config", defaultConfigPath, "path to the YAML config file")
	_ = flags.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log := logger.NewWithSentry(logger.SentryConfig{
		DSN:         cfg.SentryDSN,
		Environment: "production",
		MinLevel:    slog.LevelWarn,
	}, logger.RunIDExtractor)
	ctx := logger.WithRunID(context.Background())

	switch cmd {
	case "send":
		return runSend(ctx, cfg, log)
	default:
		return runSplit(ctx, cfg, log)
	}
}

func runSend(ctx context.Context, cfg *config.Config, log *slog.Logger) int {
	if err := cfg.ValidateSend(); err != nil {
		log.ErrorContext(ctx, "batch aborted before processing any recipient",
			slog.String("error", err.Error()))
		return 1
	}

	var sender mailer.Sender
	switch cfg.Provider {
	case config.ProviderResend:
		sender = resend.New(resend.Config{
			APIKey:      cfg.Sender.ResendAPIKey,
			SenderEmail: cfg.Sender.Email,
			SenderName:  cfg.Sender.Name,
		})
	default:
		sender = smtp.New(smtp.Config{
			Host:        cfg.SMTP.Host,
			Port:        cfg.SMTP.Port,
			Username:    cfg.Sender.Email,
			Password:    cfg.Sender.Password,
			SenderEmail: cfg.Sender.Email,
			SenderName:  cfg.Sender.Name,
		})
	}

	templateDir := filepath.Dir(cfg.Paths.Template)
	renderer := mailer.NewRenderer(os.DirFS(templateDir), filepath.Base(cfg.Paths.Template))
	led := ledger.New(cfg.Paths.Ledger, log)

	d := dispatch.New(cfg, led, renderer, sender, log)
	if _, err := d.Run(ctx); err != nil {
		log.ErrorContext(ctx, "batch failed", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

func runSplit(ctx context.Context, cfg *config.Config, log *slog.Logger) int {
	pdfPath := cfg.Split.SourcePDF
	namesPath := cfg.Split.Names
	outDir := cfg.Split.OutputDir

	// Fall back to line-mode prompts when the configured files are absent,
	// so the splitting pass can be driven interactively.
	if !fileExists(pdfPath) || !fileExists(namesPath) {
		fmt.Println("Configured input files not found. Please provide file paths.")
		pdfPath = prompt("Enter PDF file path: ")
		namesPath = prompt("Enter CSV file path: ")
		if !fileExists(pdfPath) || !fileExists(namesPath) {
			fmt.Fprintln(os.Stderr, "one or both files could not be found")
			return 1
		}
		if dir := prompt(fmt.Sprintf("Enter output directory (default: %q): ", outDir)); dir != "" {
			outDir = dir
		}
	}

	names, err := recipients.ReadNames(namesPath)
	if err != nil {
		log.ErrorContext(ctx, "failed to read name list", slog.String("error", err.Error()))
		return 1
	}

	doc, err := splitter.OpenPDF(pdfPath)
	if err != nil {
		log.ErrorContext(ctx, "failed to open source document", slog.String("error", err.Error()))
		return 1
	}

	log.InfoContext(ctx, "splitting document",
		slog.Int("pages", doc.PageCount()), slog.Int("names", len(names)))

	results, err := splitter.Split(ctx, doc, names, outDir, log)
	if err != nil {
		log.ErrorContext(ctx, "splitting failed", slog.String("error", err.Error()))
		return 1
	}

	for _, r := range results {
		fmt.Printf("Page %d: %q -> %q\n", r.Page, r.Name, r.Filename)
	}
	fmt.Printf("Completed! All pages saved to %q.\n", outDir)
	return 0
}

func prompt(label string) string {
	fmt.Print(label)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return ""
	}
	return strings.Trim(strings.TrimSpace(scanner.Text()), `"`)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func usage() {
	fmt.Fprint(os.Stderr, `mailmerge - personalized bulk email with resumable delivery

Usage:
  mailmerge send  [-config config.yaml]   Run the delivery batch
  mailmerge split [-config config.yaml]   Split the source PDF into per-recipient pages

Environment:
  SENDER_EMAIL     sender address (required)
  SENDER_PASSWORD  smtp password (smtp provider)
  RESEND_API_KEY   API key (resend provider)
  SENDER_NAME      sender display name
  SENTRY_DSN       optional error reporting
`)
}
