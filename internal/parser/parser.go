package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/listingest/internal/document"
)

// Parser converts raw file bytes into a Document. Line structure is kept:
// listings are split by line windows downstream.
type Parser interface {
	Parse(r io.Reader, filename string) (*document.Document, error)
}

// Options tune parser selection.
type Options struct {
	// PDFFallbackPdftotext shells out to pdftotext when the Go PDF reader fails.
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename. Files without an
// extension are read as plain text.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case "", ".txt", ".text":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == "" || SupportedExtensions[ext]
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// textWriter accumulates flattened text. Blocks are separated by a blank line,
// lines by a single line break.
type textWriter struct {
	sb strings.Builder
}

func (w *textWriter) block(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if w.sb.Len() > 0 {
		w.sb.WriteString(document.LineBreak + document.LineBreak)
	}
	w.sb.WriteString(s)
}

func (w *textWriter) line(s string) {
	if w.sb.Len() > 0 {
		w.sb.WriteString(document.LineBreak)
	}
	w.sb.WriteString(s)
}

func (w *textWriter) String() string {
	return w.sb.String()
}
