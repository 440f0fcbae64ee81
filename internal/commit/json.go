package commit

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type headerJSON struct {
	Type           string  `json:"type"`
	Scope          *string `json:"scope,omitempty"`
	BreakingChange bool    `json:"breaking_change,omitempty"`
	Description    string  `json:"description"`
}

type bodyJSON struct {
	Paragraphs []string `json:"paragraphs"`
}

// footerJSON keeps trailers as a JSON object; the ordered map preserves the
// document's key order in both directions.
type footerJSON struct {
	Trailers *orderedmap.OrderedMap[string, []string] `json:"trailers"`
}

type commitJSON struct {
	Header headerJSON  `json:"header"`
	Body   *bodyJSON   `json:"body,omitempty"`
	Footer *footerJSON `json:"footer,omitempty"`
}

// MarshalJSON encodes the commit with trailers as an ordered JSON object.
func (c ConventionalCommit) MarshalJSON() ([]byte, error) {
	out := commitJSON{
		Header: headerJSON{
			Type:           c.header.typ,
			BreakingChange: c.header.breaking,
			Description:    c.header.description,
		},
	}
	if c.header.hasScope {
		scope := c.header.scope
		out.Header.Scope = &scope
	}
	if c.hasBody {
		out.Body = &bodyJSON{Paragraphs: c.body.Paragraphs()}
	}
	if c.hasFooter {
		trailers := orderedmap.New[string, []string]()
		for _, t := range c.footer.trailers {
			trailers.Set(t.Key, t.Values)
		}
		out.Footer = &footerJSON{Trailers: trailers}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes and validates a commit. On error the receiver is
// left unchanged.
func (c *ConventionalCommit) UnmarshalJSON(data []byte) error {
	var in commitJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decoding commit: %w", err)
	}

	var hopts []HeaderOption
	if in.Header.Scope != nil {
		hopts = append(hopts, WithScope(*in.Header.Scope))
	}
	if in.Header.BreakingChange {
		hopts = append(hopts, WithBreakingChange())
	}
	header, err := NewHeader(in.Header.Type, in.Header.Description, hopts...)
	if err != nil {
		return err
	}

	var opts []Option
	if in.Body != nil {
		body, err := NewBody(in.Body.Paragraphs...)
		if err != nil {
			return err
		}
		opts = append(opts, WithBody(body))
	}
	if in.Footer != nil && in.Footer.Trailers != nil {
		trailers := make([]Trailer, 0, in.Footer.Trailers.Len())
		for pair := in.Footer.Trailers.Oldest(); pair != nil; pair = pair.Next() {
			trailers = append(trailers, NewTrailer(pair.Key, pair.Value...))
		}
		footer, err := NewFooter(trailers...)
		if err != nil {
			return err
		}
		opts = append(opts, WithFooter(footer))
	}

	decoded, err := New(header, opts...)
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}
