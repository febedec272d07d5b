package driven

// Normaliser extracts indexable text from file content of a known MIME type.
type Normaliser interface {
	// Normalise returns the plain text of content and a title when the
	// format carries one. ok is false when mimeType is not handled.
	Normalise(mimeType, content string) (text, title string, ok bool)
}
