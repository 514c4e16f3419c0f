package reader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pagetext/docchunk/internal/doc"
)

// Document is an open paginated document. Page ordinals are 0-based; callers
// add one to produce source page numbers. Close releases the underlying
// handle once the full pass is done.
type Document interface {
	NumPages() int
	Page(i int) ([]doc.Block, error)
	Close() error
}

// Options tunes format-specific behavior.
type Options struct {
	// PDFFallback enables the pdfcpu engine for PDFs the primary
	// library cannot open.
	PDFFallback bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Open opens the document at path with default options.
func Open(path string) (Document, error) {
	return OpenWithOptions(path, Options{PDFFallback: true})
}

// OpenWithOptions dispatches on the lowercased file extension. Unsupported
// extensions and unreadable files fail the open; there is no content
// sniffing.
func OpenWithOptions(path string, opts Options) (Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt":
		return openText(path)
	case ".md", ".markdown":
		return openMarkdown(path)
	case ".csv":
		return openCSV(path)
	case ".html", ".htm":
		return openHTML(path)
	case ".pdf":
		return openPDF(path, opts)
	case ".docx":
		return openDOCX(path)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a filename's extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// memDocument serves pages from memory. Formats without native page access
// parse everything at open time.
type memDocument struct {
	pages [][]doc.Block
}

func (d *memDocument) NumPages() int { return len(d.pages) }

func (d *memDocument) Page(i int) ([]doc.Block, error) {
	if i < 0 || i >= len(d.pages) {
		return nil, fmt.Errorf("page %d out of range [0,%d)", i, len(d.pages))
	}
	return d.pages[i], nil
}

func (d *memDocument) Close() error { return nil }
