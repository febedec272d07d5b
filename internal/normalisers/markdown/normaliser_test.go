package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()
	assert.Contains(t, mimeTypes, "text/markdown")
	assert.Contains(t, mimeTypes, "text/x-markdown")
	assert.Len(t, mimeTypes, 2)
}

func TestNormalise(t *testing.T) {
	text, title := New().Normalise("# Hello World\n\nThis is a **test**.")
	assert.Equal(t, "Hello World", title)
	assert.Equal(t, "Hello World\n\nThis is a test.", text)
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Top", extractTitle("intro\n# Top\n# Second"))
	assert.Equal(t, "", extractTitle("## Only a subheading"))
	assert.Equal(t, "", extractTitle(""))
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"headings", "## Section\ntext", "Section\ntext"},
		{"links", "see [the docs](https://example.com) now", "see the docs now"},
		{"images keep alt text", "![diagram](img.png)", "diagram"},
		{"bold and italic", "**bold** and *italic* and __strong__", "bold and italic and strong"},
		{"snake case untouched", "call snake_case_name here", "call snake_case_name here"},
		{"inline code", "run `go test` first", "run go test first"},
		{"lists", "- one\n* two\n1. three", "one\ntwo\nthree"},
		{"blockquote", "> quoted line", "quoted line"},
		{"rule", "above\n\n---\n\nbelow", "above\n\nbelow"},
		{"code fence body kept", "```go\nfmt.Println()\n```", "fmt.Println()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripMarkdown(tt.input))
		})
	}
}
