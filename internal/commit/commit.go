package commit

import (
	"slices"
	"strings"
)

// ConventionalCommit is a complete commit message: exactly one header, an
// optional body and an optional footer. Values are immutable; build a new
// one to change anything.
type ConventionalCommit struct {
	header    Header
	body      Body
	hasBody   bool
	footer    Footer
	hasFooter bool
}

// Option attaches optional parts to a ConventionalCommit.
type Option func(*ConventionalCommit)

// WithBody attaches a body. A body without paragraphs is treated as absent.
func WithBody(b Body) Option {
	return func(c *ConventionalCommit) {
		c.body = b
		c.hasBody = b.Len() > 0
	}
}

// WithFooter attaches a footer. A footer without trailers is treated as absent.
func WithFooter(f Footer) Option {
	return func(c *ConventionalCommit) {
		c.footer = f
		c.hasFooter = f.Len() > 0
	}
}

// New assembles a ConventionalCommit around header.
//
// Without a footer, the last body paragraph must not look like a trailer
// block, otherwise the rendered text would read back with that paragraph as
// the footer.
func New(header Header, opts ...Option) (ConventionalCommit, error) {
	c := ConventionalCommit{header: header}
	for _, opt := range opts {
		opt(&c)
	}
	if !c.hasBody {
		c.body = Body{}
	}
	if !c.hasFooter {
		c.footer = Footer{}
	}

	if c.header.typ == "" || c.header.description == "" {
		return ConventionalCommit{}, &ValidationError{Field: "header", Reason: "must be built with NewHeader"}
	}
	if c.hasBody && !c.hasFooter {
		last := c.body.paragraphs[len(c.body.paragraphs)-1]
		if isTrailerBlock(strings.Split(last, "\n")) {
			return ConventionalCommit{}, &ValidationError{
				Field:  "body",
				Reason: "last paragraph would be read as a footer; move its trailers into the footer",
			}
		}
	}
	return c, nil
}

// Header returns the commit header.
func (c ConventionalCommit) Header() Header { return c.header }

// Body returns the body and whether one is present.
func (c ConventionalCommit) Body() (Body, bool) {
	return Body{paragraphs: slices.Clone(c.body.paragraphs)}, c.hasBody
}

// Footer returns the footer and whether one is present.
func (c ConventionalCommit) Footer() (Footer, bool) {
	return Footer{trailers: c.footer.Trailers()}, c.hasFooter
}

// IsBreakingChange reports a "!" in the header or a BREAKING CHANGE trailer.
func (c ConventionalCommit) IsBreakingChange() bool {
	return c.header.breaking || (c.hasFooter && c.footer.hasBreakingChange())
}

// Equal reports whether both commits hold the same values.
func (c ConventionalCommit) Equal(other ConventionalCommit) bool {
	if c.header != other.header || c.hasBody != other.hasBody || c.hasFooter != other.hasFooter {
		return false
	}
	if !slices.Equal(c.body.paragraphs, other.body.paragraphs) {
		return false
	}
	return slices.EqualFunc(c.footer.trailers, other.footer.trailers, func(a, b Trailer) bool {
		return a.Key == b.Key && slices.Equal(a.Values, b.Values)
	})
}

// String renders the canonical commit message.
func (c ConventionalCommit) String() string {
	return Unparse(c)
}
