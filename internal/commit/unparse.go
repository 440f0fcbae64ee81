package commit

import "strings"

const (
	blockSeparator = "\n\n"
	colonSeparator = ": "
)

// Unparse renders c in canonical form: the header line, then the body and
// footer blocks when present, each preceded by exactly one blank line. The
// result never ends with a line break.
func Unparse(c ConventionalCommit) string {
	var b strings.Builder
	writeHeader(&b, c.header)
	if c.hasBody && c.body.Len() > 0 {
		b.WriteString(blockSeparator)
		writeBody(&b, c.body)
	}
	if c.hasFooter && c.footer.Len() > 0 {
		b.WriteString(blockSeparator)
		writeFooter(&b, c.footer)
	}
	return b.String()
}

func writeHeader(b *strings.Builder, h Header) {
	b.WriteString(h.typ)
	if h.hasScope {
		b.WriteByte('(')
		b.WriteString(h.scope)
		b.WriteByte(')')
	}
	if h.breaking {
		b.WriteByte('!')
	}
	b.WriteString(colonSeparator)
	b.WriteString(h.description)
}

func writeBody(b *strings.Builder, body Body) {
	for i, p := range body.paragraphs {
		if i > 0 {
			b.WriteString(blockSeparator)
		}
		b.WriteString(p)
	}
}

// writeFooter emits trailer values verbatim after "Key: ", even when a value
// starts with a line break.
func writeFooter(b *strings.Builder, f Footer) {
	first := true
	for _, t := range f.trailers {
		for _, v := range t.Values {
			if !first {
				b.WriteByte('\n')
			}
			first = false
			b.WriteString(t.Key)
			b.WriteString(colonSeparator)
			b.WriteString(v)
		}
	}
}
