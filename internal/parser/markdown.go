package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/listingest/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Markup is dropped;
// each top-level block becomes a paragraph of plain text.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var w textWriter
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch n.(type) {
		case *ast.ThematicBreak:
			// Section separators carry no text.
		default:
			w.block(extractText(n, src))
		}
	}
	return document.New(titleFromFilename(filename), w.String()), nil
}

// extractText gets the text content of a goldmark AST node. Nested blocks
// (list items, quoted paragraphs) start on their own line.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		// Code blocks keep their raw lines.
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch child := c.(type) {
		case *ast.Text:
			buf.Write(child.Value(src))
			if child.HardLineBreak() || child.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.AutoLink:
			buf.Write(child.Label(src))
		default:
			t := extractText(c, src)
			if c.Type() == ast.TypeBlock && buf.Len() > 0 && t != "" {
				buf.WriteByte('\n')
			}
			buf.WriteString(t)
		}
	}
	return strings.TrimSpace(buf.String())
}
