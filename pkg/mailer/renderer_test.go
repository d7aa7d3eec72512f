package mailer_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marvinjameserosa/email-automation/pkg/mailer"
)

func TestRenderer_HTMLTemplate(t *testing.T) {
	t.Parallel()

	fs := fstest.MapFS{
		"template.html": &fstest.MapFile{
			Data: []byte(`<html><body>Dear {{.recipient}}, from {{.sender_name}} ({{.current_year}})</body></html>`),
		},
	}

	r := mailer.NewRenderer(fs, "template.html")
	result, err := r.Render(map[string]any{
		"recipient":    "Alice",
		"sender_name":  "Acme",
		"current_year": 2026,
	})

	require.NoError(t, err)
	assert.Contains(t, result.HTML, "Dear Alice, from Acme (2026)")
	assert.Empty(t, result.Subject)
}

func TestRenderer_MarkdownTemplate(t *testing.T) {
	t.Parallel()

	fs := fstest.MapFS{
		"invoice.md": &fstest.MapFile{
			Data: []byte(`---
Subject: Invoice for {{.recipient}}
---
Hello **{{.recipient}}**!
`),
		},
	}

	r := mailer.NewRenderer(fs, "invoice.md")
	result, err := r.Render(map[string]any{"recipient": "Bob"})

	require.NoError(t, err)
	assert.Equal(t, "Invoice for Bob", result.Subject)
	assert.Contains(t, result.HTML, "<strong>Bob</strong>")
}

func TestRenderer_ExtraFieldsInContext(t *testing.T) {
	t.Parallel()

	fs := fstest.MapFS{
		"template.html": &fstest.MapFile{
			Data: []byte(`Amount due: {{.amount}}`),
		},
	}

	r := mailer.NewRenderer(fs, "template.html")
	result, err := r.Render(map[string]any{"amount": "42.00"})

	require.NoError(t, err)
	assert.Contains(t, result.HTML, "Amount due: 42.00")
}

func TestRenderer_TemplateNotFound(t *testing.T) {
	t.Parallel()

	r := mailer.NewRenderer(fstest.MapFS{}, "missing.html")
	_, err := r.Render(map[string]any{})

	require.ErrorIs(t, err, mailer.ErrTemplateNotFound)
}

func TestRenderer_InvalidTemplate(t *testing.T) {
	t.Parallel()

	fs := fstest.MapFS{
		"broken.html": &fstest.MapFile{
			Data: []byte(`{{.unclosed`),
		},
	}

	r := mailer.NewRenderer(fs, "broken.html")
	_, err := r.Render(map[string]any{})

	require.ErrorIs(t, err, mailer.ErrRenderFailed)
}

func TestRenderer_CachesParsedTemplate(t *testing.T) {
	t.Parallel()

	fs := fstest.MapFS{
		"template.html": &fstest.MapFile{
			Data: []byte(`Hello {{.recipient}}`),
		},
	}

	r := mailer.NewRenderer(fs, "template.html")

	first, err := r.Render(map[string]any{"recipient": "Alice"})
	require.NoError(t, err)
	second, err := r.Render(map[string]any{"recipient": "Bob"})
	require.NoError(t, err)

	assert.Contains(t, first.HTML, "Alice")
	assert.Contains(t, second.HTML, "Bob")
}
