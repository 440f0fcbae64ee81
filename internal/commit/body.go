package commit

import (
	"fmt"
	"slices"
	"strings"
)

// Body is the ordered list of free-text paragraphs after the header.
type Body struct {
	paragraphs []string
}

// NewBody builds a Body from paragraphs in the given order. Paragraph text is
// kept verbatim, internal line breaks included.
func NewBody(paragraphs ...string) (Body, error) {
	for i, p := range paragraphs {
		if err := check(fmt.Sprintf("body.paragraphs[%d]", i), p, "required,cc_paragraph"); err != nil {
			return Body{}, err
		}
	}
	return Body{paragraphs: slices.Clone(paragraphs)}, nil
}

// Paragraphs returns a copy of the paragraphs.
func (b Body) Paragraphs() []string { return slices.Clone(b.paragraphs) }

// Len returns the number of paragraphs.
func (b Body) Len() int { return len(b.paragraphs) }

// String renders the paragraphs separated by blank lines.
func (b Body) String() string {
	var sb strings.Builder
	writeBody(&sb, b)
	return sb.String()
}
