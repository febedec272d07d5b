package domain

import "unicode/utf8"

// DocumentKind is the type tag carried by every document.
const DocumentKind = "Document"

// contentPrefixLen is how much content is quoted in diagnostics.
const contentPrefixLen = 100

// Document is a unit of source content to be reconciled with a destination.
type Document struct {
	// ID is assigned by the content hasher. Any caller-supplied value is
	// overwritten during a run.
	ID string

	// Content is the text that gets embedded or indexed.
	Content string

	// Metadata contains arbitrary JSON-representable key-value pairs.
	// It participates in the document hash.
	Metadata map[string]any

	// Kind is the type tag (always DocumentKind for documents built with NewDocument).
	Kind string
}

// NewDocument creates a document with the given content and no metadata.
func NewDocument(content string) Document {
	return Document{
		Content:  content,
		Metadata: map[string]any{},
		Kind:     DocumentKind,
	}
}

// WithMetadata returns a copy of the document with the given metadata.
func (d Document) WithMetadata(metadata map[string]any) Document {
	d.Metadata = metadata
	return d
}

// WithID returns a copy of the document with the given ID.
func (d Document) WithID(id string) Document {
	d.ID = id
	return d
}

// ContentPrefix returns at most the first 100 characters of the content.
// The cut never splits a multi-byte rune.
func (d Document) ContentPrefix() string {
	if utf8.RuneCountInString(d.Content) <= contentPrefixLen {
		return d.Content
	}
	n := 0
	for i := range d.Content {
		if n == contentPrefixLen {
			return d.Content[:i]
		}
		n++
	}
	return d.Content
}
