package commit

import (
	"regexp"
	"strings"
)

var (
	headerPattern  = regexp.MustCompile(`^([^\s():!]+)(?:\(([^()\r\n]+)\))?(!)?: (.+)$`)
	trailerPattern = regexp.MustCompile(`^(BREAKING CHANGE|[^\s:]+): (.*)$`)
)

// Parse reads a commit message back into a ConventionalCommit. It accepts
// everything Unparse produces, and Parse(Unparse(c)) equals c for every c
// that New accepts. Trailing line breaks are ignored.
//
// After the header, blocks are separated by single blank lines. The last
// block is the footer when every line in it is a "Key: value" trailer or a
// continuation line starting with a space or tab; all other blocks are
// body paragraphs.
func Parse(text string) (ConventionalCommit, error) {
	text = strings.TrimRight(text, "\n")

	headerLine, rest, hasRest := strings.Cut(text, "\n")
	header, err := parseHeader(headerLine)
	if err != nil {
		return ConventionalCommit{}, err
	}
	if !hasRest {
		return New(header)
	}

	if !strings.HasPrefix(rest, "\n") {
		return ConventionalCommit{}, &ParseError{Line: 2, Reason: "expected a blank line after the header"}
	}

	blocks := strings.Split(rest[1:], blockSeparator)
	starts := make([]int, len(blocks))
	line := 3
	for i, block := range blocks {
		if block == "" || strings.HasPrefix(block, "\n") {
			return ConventionalCommit{}, &ParseError{Line: line, Reason: "unexpected blank line"}
		}
		starts[i] = line
		line += strings.Count(block, "\n") + 2
	}

	var opts []Option
	last := len(blocks) - 1
	if lines := strings.Split(blocks[last], "\n"); isTrailerBlock(lines) {
		footer, err := NewFooter(parseTrailers(lines)...)
		if err != nil {
			return ConventionalCommit{}, &ParseError{Line: starts[last], Reason: "invalid footer", Err: err}
		}
		opts = append(opts, WithFooter(footer))
		blocks = blocks[:last]
	}

	if len(blocks) > 0 {
		body, err := NewBody(blocks...)
		if err != nil {
			return ConventionalCommit{}, &ParseError{Line: starts[0], Reason: "invalid body", Err: err}
		}
		opts = append(opts, WithBody(body))
	}

	c, err := New(header, opts...)
	if err != nil {
		return ConventionalCommit{}, &ParseError{Line: 1, Reason: "invalid commit", Err: err}
	}
	return c, nil
}

func parseHeader(line string) (Header, error) {
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		return Header{}, &ParseError{Line: 1, Reason: `header must look like "type(scope)!: description"`}
	}

	var opts []HeaderOption
	if m[2] != "" {
		opts = append(opts, WithScope(m[2]))
	}
	if m[3] == "!" {
		opts = append(opts, WithBreakingChange())
	}

	h, err := NewHeader(m[1], m[4], opts...)
	if err != nil {
		return Header{}, &ParseError{Line: 1, Reason: "invalid header", Err: err}
	}
	return h, nil
}

func isTrailerBlock(lines []string) bool {
	if len(lines) == 0 || !trailerPattern.MatchString(lines[0]) {
		return false
	}
	for _, l := range lines[1:] {
		if !isContinuation(l) && !trailerPattern.MatchString(l) {
			return false
		}
	}
	return true
}

// parseTrailers expects lines that already passed isTrailerBlock.
func parseTrailers(lines []string) []Trailer {
	var trailers []Trailer
	for _, l := range lines {
		if isContinuation(l) {
			last := &trailers[len(trailers)-1]
			last.Values[0] += "\n" + l
			continue
		}
		m := trailerPattern.FindStringSubmatch(l)
		trailers = append(trailers, NewTrailer(m[1], m[2]))
	}
	return trailers
}

func isContinuation(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}
