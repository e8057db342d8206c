package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/listingest/internal/document"
)

// TextParser handles plain text files. The text is kept verbatim apart from
// line ending normalization and a leading byte order mark.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	text := strings.TrimPrefix(string(data), "\uFEFF")
	return document.New(titleFromFilename(filename), text), nil
}
