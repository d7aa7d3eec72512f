package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
)

// Renderer renders one message template per recipient context.
//
// Templates ending in ".md" are executed as text templates and converted to
// HTML with goldmark; they may carry YAML frontmatter with a "Subject" field,
// itself processed as a template. Any other extension is parsed as an
// html/template and executed directly.
type Renderer struct {
	fs   fs.FS
	name string
	md   goldmark.Markdown // cached markdown processor

	mu     sync.Mutex
	cached *parsedTemplate
}

// parsedTemplate holds parsed template structure for reuse across recipients.
type parsedTemplate struct {
	metadata map[string]any
	text     *texttemplate.Template // markdown body
	html     *htmltemplate.Template // html body
}

// RenderResult contains the rendered HTML body and the subject override
// extracted from frontmatter (empty when the template declares none).
type RenderResult struct {
	Subject string
	HTML    string
}

// NewRenderer creates a renderer for the named template within filesystem.
func NewRenderer(filesystem fs.FS, name string) *Renderer {
	return &Renderer{
		fs:   filesystem,
		name: name,
		md:   goldmark.New(),
	}
}

// Render executes the template against data and returns the rendered message.
// The template is parsed once and cached; only execution happens per call.
func (r *Renderer) Render(data map[string]any) (*RenderResult, error) {
	parsed, err := r.getTemplate()
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	switch {
	case parsed.text != nil:
		var processedMarkdown bytes.Buffer
		if err := parsed.text.Execute(&processedMarkdown, data); err != nil {
			return nil, fmt.Errorf("%w: failed to execute template: %v", ErrRenderFailed, err)
		}
		if err := r.md.Convert(processedMarkdown.Bytes(), &body); err != nil {
			return nil, fmt.Errorf("%w: failed to convert markdown: %v", ErrRenderFailed, err)
		}
	default:
		if err := parsed.html.Execute(&body, data); err != nil {
			return nil, fmt.Errorf("%w: failed to execute template: %v", ErrRenderFailed, err)
		}
	}

	subject, err := r.renderSubject(parsed.metadata, data)
	if err != nil {
		return nil, err
	}

	return &RenderResult{Subject: subject, HTML: body.String()}, nil
}

// renderSubject processes the frontmatter Subject as a template so it can
// reference recipient fields (e.g. "Invoice for {{.recipient}}").
func (r *Renderer) renderSubject(metadata map[string]any, data map[string]any) (string, error) {
	raw, ok := metadata["Subject"].(string)
	if !ok || raw == "" {
		return "", nil
	}

	tmpl, err := texttemplate.New("subject").Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse subject: %v", ErrRenderFailed, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: failed to execute subject: %v", ErrRenderFailed, err)
	}
	return buf.String(), nil
}

// getTemplate returns the cached parsed template or parses and caches it.
func (r *Renderer) getTemplate() (*parsedTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil {
		return r.cached, nil
	}

	content, err := fs.ReadFile(r.fs, r.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, r.name, err)
	}

	parsed := &parsedTemplate{metadata: make(map[string]any)}
	if strings.EqualFold(filepath.Ext(r.name), ".md") {
		tpl, err := ParseTemplate(content)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, r.name, err)
		}
		parsed.metadata = tpl.Metadata
		parsed.text, err = texttemplate.New(r.name).Parse(tpl.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse template body: %v", ErrRenderFailed, err)
		}
	} else {
		parsed.html, err = htmltemplate.New(r.name).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse template: %v", ErrRenderFailed, err)
		}
	}

	r.cached = parsed
	return parsed, nil
}
