package commit

import (
	"fmt"
	"slices"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	breakingChangeToken    = "BREAKING CHANGE"
	breakingChangeAltToken = "BREAKING-CHANGE"
)

// Trailer is one footer key with its values in order.
type Trailer struct {
	Key    string
	Values []string
}

// NewTrailer is shorthand for Trailer{Key: key, Values: values}.
func NewTrailer(key string, values ...string) Trailer {
	return Trailer{Key: key, Values: values}
}

// Footer maps trailer keys to their values. Keys keep insertion order and a
// key may carry several values, each rendered as its own line.
type Footer struct {
	trailers []Trailer
}

// NewFooter builds a Footer. A key given more than once keeps its first
// position and accumulates the values of every occurrence.
func NewFooter(trailers ...Trailer) (Footer, error) {
	merged := orderedmap.New[string, []string]()
	for i, t := range trailers {
		field := fmt.Sprintf("footer.trailers[%d]", i)
		if err := check(field+".key", t.Key, "cc_trailer_key"); err != nil {
			return Footer{}, err
		}
		if len(t.Values) == 0 {
			return Footer{}, &ValidationError{Field: field + ".values", Reason: "must not be empty"}
		}
		for j, v := range t.Values {
			if err := check(fmt.Sprintf("%s.values[%d]", field, j), v, "cc_trailer_value"); err != nil {
				return Footer{}, err
			}
		}

		existing, _ := merged.Get(t.Key)
		merged.Set(t.Key, append(existing, t.Values...))
	}

	f := Footer{trailers: make([]Trailer, 0, merged.Len())}
	for pair := merged.Oldest(); pair != nil; pair = pair.Next() {
		f.trailers = append(f.trailers, Trailer{Key: pair.Key, Values: slices.Clone(pair.Value)})
	}
	return f, nil
}

// Keys returns the trailer keys in insertion order.
func (f Footer) Keys() []string {
	keys := make([]string, len(f.trailers))
	for i, t := range f.trailers {
		keys[i] = t.Key
	}
	return keys
}

// Values returns a copy of the values stored under key.
func (f Footer) Values(key string) ([]string, bool) {
	for _, t := range f.trailers {
		if t.Key == key {
			return slices.Clone(t.Values), true
		}
	}
	return nil, false
}

// Trailers returns a deep copy of the trailers in order.
func (f Footer) Trailers() []Trailer {
	out := make([]Trailer, len(f.trailers))
	for i, t := range f.trailers {
		out[i] = Trailer{Key: t.Key, Values: slices.Clone(t.Values)}
	}
	return out
}

// Len returns the number of distinct keys.
func (f Footer) Len() int { return len(f.trailers) }

// String renders one "Key: value" line per value.
func (f Footer) String() string {
	var b strings.Builder
	writeFooter(&b, f)
	return b.String()
}

func (f Footer) hasBreakingChange() bool {
	for _, t := range f.trailers {
		if t.Key == breakingChangeToken || t.Key == breakingChangeAltToken {
			return true
		}
	}
	return false
}
