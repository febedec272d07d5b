package normalisers

import (
	"strings"

	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/normalisers/html"
	"github.com/custodia-labs/docsync/internal/normalisers/markdown"
)

// Ensure Registry implements the interface.
var _ driven.Normaliser = (*Registry)(nil)

// Format converts one family of markup to plain text.
type Format interface {
	SupportedMIMETypes() []string
	Normalise(content string) (text, title string)
}

// Registry maps MIME types to formats. Later registrations win.
type Registry struct {
	formats map[string]Format
}

// NewRegistry creates a registry holding formats.
func NewRegistry(formats ...Format) *Registry {
	r := &Registry{formats: make(map[string]Format)}
	for _, f := range formats {
		r.Register(f)
	}
	return r
}

// Default returns a registry with the HTML and Markdown formats.
func Default() *Registry {
	return NewRegistry(html.New(), markdown.New())
}

// Register adds f for each of its MIME types.
func (r *Registry) Register(f Format) {
	for _, mimeType := range f.SupportedMIMETypes() {
		r.formats[strings.ToLower(mimeType)] = f
	}
}

// Normalise runs the format registered for mimeType.
func (r *Registry) Normalise(mimeType, content string) (string, string, bool) {
	f, ok := r.formats[strings.ToLower(mimeType)]
	if !ok {
		return content, "", false
	}
	text, title := f.Normalise(content)
	return text, title, true
}

// MIMETypes returns the number of MIME types with a registered format.
func (r *Registry) MIMETypes() int {
	return len(r.formats)
}
