// Package filesystem provides a document source that walks a local
// directory tree, and a change notifier backed by fsnotify.
package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// MaxFileSize is the largest file read into a document.
const MaxFileSize = 10 << 20

// Metadata keys set on every document.
const (
	// MetadataSource is the absolute slash-separated file path, unique
	// across roots so it can scope cleanup.
	MetadataSource = "source"

	// MetadataPath is the file path relative to the root.
	MetadataPath = "path"

	MetadataMIMEType = "mime_type"

	// MetadataTitle is set when a normaliser finds a title.
	MetadataTitle = "title"
)

// Source yields one document per visible text file under a root directory.
// File paths are collected up front; contents are read on demand.
type Source struct {
	rootPath   string
	paths      []string
	next       int
	normaliser driven.Normaliser
}

// NewSource walks rootPath and returns a source over its files.
// A relative rootPath is resolved against the working directory.
func NewSource(rootPath string) (*Source, error) {
	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("%w: root path: %w", domain.ErrInvalidConfig, err)
	}
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, fmt.Errorf("%w: root path: %w", domain.ErrInvalidConfig, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: root path %s is not a directory", domain.ErrInvalidConfig, rootPath)
	}

	var paths []string
	err = filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug("skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path != rootPath && isHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", rootPath, err)
	}

	return &Source{rootPath: rootPath, paths: paths}, nil
}

// WithNormaliser routes file content through n before it becomes a document.
func (s *Source) WithNormaliser(n driven.Normaliser) *Source {
	s.normaliser = n
	return s
}

// Next returns the next readable text file. Files that vanished, are too
// large or are not valid UTF-8 text are skipped.
func (s *Source) Next(ctx context.Context) (domain.Document, error) {
	for s.next < len(s.paths) {
		if err := ctx.Err(); err != nil {
			return domain.Document{}, err
		}

		path := s.paths[s.next]
		s.next++

		doc, ok, err := s.read(path)
		if err != nil {
			return domain.Document{}, err
		}
		if ok {
			return doc, nil
		}
	}
	return domain.Document{}, io.EOF
}

func (s *Source) read(path string) (domain.Document, bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("skipping %s: removed during walk", path)
		return domain.Document{}, false, nil
	}
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		logger.Debug("skipping %s: %d bytes exceeds limit", path, info.Size())
		return domain.Document{}, false, nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Document{}, false, nil
	}
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("reading %s: %w", path, err)
	}
	if !isText(content) {
		logger.Debug("skipping %s: not text", path)
		return domain.Document{}, false, nil
	}

	mimeType := detectMIMEType(path)
	metadata := map[string]any{
		MetadataSource:   filepath.ToSlash(path),
		MetadataPath:     s.relative(path),
		MetadataMIMEType: mimeType,
	}

	text := string(content)
	if s.normaliser != nil {
		var title string
		text, title, _ = s.normaliser.Normalise(mimeType, text)
		if title != "" {
			metadata[MetadataTitle] = title
		}
	}
	return domain.NewDocument(text).WithMetadata(metadata), true, nil
}

func (s *Source) relative(path string) string {
	rel, err := filepath.Rel(s.rootPath, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Len returns the number of files found by the walk.
func (s *Source) Len() int {
	return len(s.paths)
}

// Close releases resources.
func (s *Source) Close() error {
	s.next = len(s.paths)
	return nil
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." || part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func isText(content []byte) bool {
	return utf8.Valid(content) && !bytes.ContainsRune(content, 0)
}

// fallbackMIMETypes covers extensions the system MIME table often lacks.
var fallbackMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".ts":       "text/typescript",
	".tsx":      "text/typescript-jsx",
	".jsx":      "text/javascript-jsx",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".sh":       "text/x-shellscript",
	".bash":     "text/x-shellscript",
	".sql":      "text/x-sql",
	".txt":      "text/plain",
}

func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "text/plain"
	}
	if t, ok := fallbackMIMETypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if i := strings.Index(t, ";"); i >= 0 {
			t = t[:i]
		}
		return strings.TrimSpace(t)
	}
	return "application/octet-stream"
}
