package commit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_PreservesTrailerOrder(t *testing.T) {
	doc := `{
		"header": {"type": "feat", "scope": "api", "breaking_change": true, "description": "x"},
		"body": {"paragraphs": ["one", "two"]},
		"footer": {"trailers": {"Zeta": ["1"], "Alpha": ["2", "3"], "Refs": ["\n\ta,\n\tb"]}}
	}`

	var c ConventionalCommit
	require.NoError(t, json.Unmarshal([]byte(doc), &c))

	assert.Equal(t, "feat(api)!: x\n\none\n\ntwo\n\nZeta: 1\nAlpha: 2\nAlpha: 3\nRefs: \n\ta,\n\tb", Unparse(c))

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(out))
	assert.Contains(t, string(out), `"trailers":{"Zeta":["1"],"Alpha":["2","3"]`)
}

func TestJSON_OmitsAbsentParts(t *testing.T) {
	c := mustCommit(t, mustHeader(t, "fix", "y"))
	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"header":{"type":"fix","description":"y"}}`, string(out))
}

func TestJSON_EmptyScopeIsNotAbsentScope(t *testing.T) {
	var c ConventionalCommit
	err := json.Unmarshal([]byte(`{"header":{"type":"fix","scope":"","description":"y"}}`), &c)
	assert.ErrorIs(t, err, ErrInvalidCommit)
}

func TestJSON_InvalidLeavesReceiverUntouched(t *testing.T) {
	c := mustCommit(t, mustHeader(t, "fix", "y"))
	tests := []string{
		`{"header":{"type":"","description":"y"}}`,
		`{"header":{"type":"fix","description":"y"},"body":{"paragraphs":[""]}}`,
		`{"header":{"type":"fix","description":"y"},"footer":{"trailers":{"Refs":[]}}}`,
		`{"header":`,
	}
	for _, doc := range tests {
		err := json.Unmarshal([]byte(doc), &c)
		assert.Error(t, err, doc)
		assert.Equal(t, "fix: y", Unparse(c))
	}
}
