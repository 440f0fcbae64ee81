package commit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		typ       string
		scope     string
		breaking  bool
		desc      string
		body      []string
		trailers  []Trailer
		canonical string
	}{
		{
			name:  "header only",
			input: "feat: add a new feature!",
			typ:   "feat", desc: "add a new feature!",
		},
		{
			name:  "scope and marker",
			input: "feat(website)!: add a new feature!",
			typ:   "feat", scope: "website", breaking: true, desc: "add a new feature!",
		},
		{
			name:  "body paragraphs",
			input: "fix: x\n\nfirst\nstill first\n\nsecond",
			typ:   "fix", desc: "x",
			body: []string{"first\nstill first", "second"},
		},
		{
			name:  "footer only",
			input: "fix: x\n\nRefs: a4b9jg385\nPR: #1",
			typ:   "fix", desc: "x",
			trailers: []Trailer{NewTrailer("Refs", "a4b9jg385"), NewTrailer("PR", "#1")},
		},
		{
			name:  "multiline trailer",
			input: "feat: x\n\nRefs: \n\ta4b9jg385,\n\tmb7y8n1v5",
			typ:   "feat", desc: "x",
			trailers: []Trailer{NewTrailer("Refs", "\n\ta4b9jg385,\n\tmb7y8n1v5")},
		},
		{
			name:  "trailer-looking paragraph before footer stays in body",
			input: "feat: x\n\nSee: the docs\n\nRefs: 1",
			typ:   "feat", desc: "x",
			body:     []string{"See: the docs"},
			trailers: []Trailer{NewTrailer("Refs", "1")},
		},
		{
			name:  "breaking change token",
			input: "feat: x\n\nBREAKING CHANGE: config format changed",
			typ:   "feat", desc: "x",
			trailers: []Trailer{NewTrailer("BREAKING CHANGE", "config format changed")},
		},
		{
			name:  "scattered keys are grouped",
			input: "feat: x\n\nRefs: 1\nPR: #2\nRefs: 3",
			typ:   "feat", desc: "x",
			trailers:  []Trailer{NewTrailer("Refs", "1", "3"), NewTrailer("PR", "#2")},
			canonical: "feat: x\n\nRefs: 1\nRefs: 3\nPR: #2",
		},
		{
			name:  "trailing newlines ignored",
			input: "chore: bump\n\nbody\n\n",
			typ:   "chore", desc: "bump",
			body:      []string{"body"},
			canonical: "chore: bump\n\nbody",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse(tt.input)
			require.NoError(t, err)

			h := c.Header()
			assert.Equal(t, tt.typ, h.Type())
			assert.Equal(t, tt.desc, h.Description())
			assert.Equal(t, tt.breaking, h.IsBreakingChange())
			scope, hasScope := h.Scope()
			assert.Equal(t, tt.scope != "", hasScope)
			assert.Equal(t, tt.scope, scope)

			body, hasBody := c.Body()
			assert.Equal(t, len(tt.body) > 0, hasBody)
			if hasBody {
				assert.Equal(t, tt.body, body.Paragraphs())
			}

			footer, hasFooter := c.Footer()
			assert.Equal(t, len(tt.trailers) > 0, hasFooter)
			if hasFooter {
				assert.Equal(t, tt.trailers, footer.Trailers())
			}

			want := tt.canonical
			if want == "" {
				want = tt.input
			}
			assert.Equal(t, want, Unparse(c))
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"empty", "", 1},
		{"no colon", "feat add", 1},
		{"no space after colon", "feat:add", 1},
		{"empty scope", "feat(): x", 1},
		{"empty description", "feat: ", 1},
		{"missing blank line", "feat: x\nbody", 2},
		{"double blank line after header", "feat: x\n\n\nbody", 3},
		{"double blank line between paragraphs", "feat: x\n\none\n\n\n\ntwo", 5},
		{"carriage return in description", "feat: x\r\n\nbody", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedMessage)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.line, perr.Line)
		})
	}
}

func TestParse_ConstructionErrorsAreExposed(t *testing.T) {
	_, err := Parse("feat: x\r")
	assert.ErrorIs(t, err, ErrMalformedMessage)
	assert.ErrorIs(t, err, ErrInvalidCommit)
}

func TestParse_RoundTrip(t *testing.T) {
	commits := []ConventionalCommit{
		mustCommit(t, mustHeader(t, "feat", "add a new feature!")),
		mustCommit(t, mustHeader(t, "feat", "a", WithScope("web site"), WithBreakingChange())),
		mustCommit(t, mustHeader(t, "fix", "  padded description  ")),
		mustCommit(t, mustHeader(t, "docs", "x"),
			WithBody(mustBody(t, "Refs: looks like a trailer but is not last", "one", "two\nlines"))),
		mustCommit(t, mustHeader(t, "feat", "x"),
			WithFooter(mustFooter(t, NewTrailer("Refs", "\n\ta4b9jg385,\n\tmb7y8n1v5")))),
		mustCommit(t, mustHeader(t, "feat", "x", WithScope("api")),
			WithBody(mustBody(t, "p1", "Refs: 1")),
			WithFooter(mustFooter(t,
				NewTrailer("Refs", "a4b9jg385", "mb7y8n1v5"),
				NewTrailer("PR", "#1"),
				NewTrailer("Empty", ""),
				NewTrailer("BREAKING CHANGE", "gone\n  for good"),
			))),
	}

	for _, c := range commits {
		text := Unparse(c)
		parsed, err := Parse(text)
		require.NoError(t, err, text)
		assert.True(t, c.Equal(parsed), "round trip changed %q into %q", text, Unparse(parsed))
	}
}
