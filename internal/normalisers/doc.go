// Package normalisers turns marked-up file content into the plain text that
// gets hashed and indexed. Each format knows the MIME types it handles;
// a Registry dispatches on MIME type and leaves everything else untouched.
package normalisers
