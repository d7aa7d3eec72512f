// Package config loads and validates the mail-merge configuration.
//
// Non-secret settings live in a YAML file; credentials come from the
// environment, with .env support for local runs. Validation happens once at
// startup so every failure here is a precondition failure: the batch aborts
// before any recipient is touched and the counters stay at zero.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingCredentials indicates sender credentials are not set.
	ErrMissingCredentials = errors.New("sender credentials not set")

	// ErrMissingRecipientSource indicates the recipient CSV does not exist.
	ErrMissingRecipientSource = errors.New("recipient source not found")

	// ErrMissingTemplate indicates the message template does not exist.
	ErrMissingTemplate = errors.New("message template not found")

	// ErrUnknownProvider indicates an unrecognized delivery provider name.
	ErrUnknownProvider = errors.New("unknown delivery provider")
)

// Delivery provider names accepted in the config file.
const (
	ProviderSMTP   = "smtp"
	ProviderResend = "resend"
)

// Sender identifies the From side of every message. Email and Name may come
// from the config file or the environment; secrets are environment-only.
type Sender struct {
	Email        string `yaml:"email"`
	Name         string `yaml:"name"`
	Password     string `yaml:"-"`
	ResendAPIKey string `yaml:"-"`
}

// SMTP holds the SMTP endpoint for the smtp provider.
type SMTP struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Paths locates the batch inputs and the ledger.
type Paths struct {
	Recipients string `yaml:"recipients"`
	Ledger     string `yaml:"ledger"`
	Template   string `yaml:"template"`
	SplitDir   string `yaml:"split_dir"`
}

// Split holds the inputs of the offline splitting pass.
type Split struct {
	SourcePDF string `yaml:"source_pdf"`
	Names     string `yaml:"names"`
	OutputDir string `yaml:"output_dir"`
}

// Config is the full configuration surface, constructed once at startup and
// passed explicitly into the dispatcher and splitter.
type Config struct {
	Sender      Sender   `yaml:"sender"`
	Subject     string   `yaml:"subject"`
	CC          []string `yaml:"cc"`
	Attachments bool     `yaml:"attachments"`
	Provider    string   `yaml:"provider"`
	SMTP        SMTP     `yaml:"smtp"`
	Paths       Paths    `yaml:"paths"`
	Split       Split    `yaml:"split"`
	SentryDSN   string   `yaml:"-"`
}

func defaultConfig() *Config {
	return &Config{
		Subject:     "Change the subject line",
		Attachments: true,
		Provider:    ProviderSMTP,
		SMTP:        SMTP{Host: "smtp.gmail.com", Port: 587},
		Paths: Paths{
			Recipients: "result.csv",
			Ledger:     "email_log.csv",
			Template:   "template.html",
			SplitDir:   "split_pages",
		},
		Split: Split{
			SourcePDF: "input.pdf",
			Names:     "names.csv",
			OutputDir: "split_pages",
		},
	}
}

// Load reads the YAML config at path and applies environment overrides.
// A missing config file yields the defaults; a missing .env is fine too.
func Load(path string) (*Config, error) {
	// Populate the environment before reading it; existing vars win.
	_ = godotenv.Load()

	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		cfg.Sender.Email = v
	}
	if v := os.Getenv("SENDER_NAME"); v != "" {
		cfg.Sender.Name = v
	}
	cfg.Sender.Password = os.Getenv("SENDER_PASSWORD")
	cfg.Sender.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	cfg.SentryDSN = os.Getenv("SENTRY_DSN")

	return cfg, nil
}

// ValidateSend checks every precondition of a dispatch run.
func (c *Config) ValidateSend() error {
	switch c.Provider {
	case ProviderSMTP:
		if c.Sender.Email == "" || c.Sender.Password == "" {
			return fmt.Errorf("%w: SENDER_EMAIL and SENDER_PASSWORD required for smtp", ErrMissingCredentials)
		}
	case ProviderResend:
		if c.Sender.Email == "" || c.Sender.ResendAPIKey == "" {
			return fmt.Errorf("%w: SENDER_EMAIL and RESEND_API_KEY required for resend", ErrMissingCredentials)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}

	if _, err := os.Stat(c.Paths.Recipients); err != nil {
		return fmt.Errorf("%w: %s", ErrMissingRecipientSource, c.Paths.Recipients)
	}
	if _, err := os.Stat(c.Paths.Template); err != nil {
		return fmt.Errorf("%w: %s", ErrMissingTemplate, c.Paths.Template)
	}
	return nil
}
