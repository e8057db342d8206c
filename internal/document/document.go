package document

import "strings"

// LineBreak separates lines in a Document. CRLF input is normalized to it.
const LineBreak = "\n"

// Document is the flattened text of one input file.
type Document struct {
	Title string // Document title (from metadata or filename)
	Text  string // Full text, line structure preserved
}

// New builds a Document, normalizing line endings.
func New(title, text string) *Document {
	return &Document{Title: title, Text: Normalize(text)}
}

// Lines splits the document text on LineBreak. Empty text has no lines.
func (d *Document) Lines() []string {
	return SplitLines(d.Text)
}

// Normalize converts CRLF and lone CR line endings to LineBreak.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", LineBreak)
	return strings.ReplaceAll(text, "\r", LineBreak)
}

// SplitLines splits text into lines. Empty text yields zero lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(Normalize(text), LineBreak)
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, LineBreak)
}
