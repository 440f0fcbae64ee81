package commit

import "strings"

// Header is the mandatory first line of a commit message:
//
//	type[(scope)][!]: description
type Header struct {
	typ         string
	scope       string
	hasScope    bool
	breaking    bool
	description string
}

// HeaderOption customizes a Header at construction time.
type HeaderOption func(*Header)

// WithScope sets the parenthesized scope rendered after the type.
func WithScope(scope string) HeaderOption {
	return func(h *Header) {
		h.scope = scope
		h.hasScope = true
	}
}

// WithBreakingChange marks the header with "!" before the colon.
func WithBreakingChange() HeaderOption {
	return func(h *Header) {
		h.breaking = true
	}
}

// NewHeader builds a validated Header. The scope is absent and the
// breaking-change marker unset unless options say otherwise.
func NewHeader(typ, description string, opts ...HeaderOption) (Header, error) {
	h := Header{typ: typ, description: description}
	for _, opt := range opts {
		opt(&h)
	}

	if err := check("type", h.typ, "required,cc_type"); err != nil {
		return Header{}, err
	}
	if h.hasScope {
		if err := check("scope", h.scope, "required,cc_scope"); err != nil {
			return Header{}, err
		}
	}
	if err := check("description", h.description, "required,cc_line"); err != nil {
		return Header{}, err
	}
	return h, nil
}

// Type returns the commit type, e.g. "feat".
func (h Header) Type() string { return h.typ }

// Scope returns the scope and whether one is present.
func (h Header) Scope() (string, bool) { return h.scope, h.hasScope }

// IsBreakingChange reports whether the header carries the "!" marker.
func (h Header) IsBreakingChange() bool { return h.breaking }

// Description returns the free-text summary.
func (h Header) Description() string { return h.description }

// String renders the header line.
func (h Header) String() string {
	var b strings.Builder
	writeHeader(&b, h)
	return b.String()
}
