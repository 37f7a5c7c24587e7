package ssot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPayloads(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage("")} {
		doc, err := Load(raw)
		require.NoError(t, err)
		assert.NotNil(t, doc)
	}
}

// The platform writes SSOT keys the worker does not model; a stage's
// whole-document write-back must carry them through untouched.
func TestRoundTripPreservesUnknownKeys(t *testing.T) {
	raw := json.RawMessage(`{
		"metadata": {"pageCount": 3, "projectName": "Tower B", "reviewedBy": "pat"},
		"items": [{"itemId": "item-1", "category": "SHOWER_ENCLOSURE", "customerNote": "keep chrome finish"}],
		"review": {"state": "OPEN", "rounds": 2}
	}`)

	doc, err := Load(raw)
	require.NoError(t, err)
	require.NotNil(t, doc.Metadata)
	require.Len(t, doc.Items, 1)

	// A stage mutates the typed view, then writes the whole document back.
	doc.Metadata.PageCount = 5
	doc.Items[0].GlassType = "3/8 clear tempered"
	doc.Assumptions = []string{"All glass tempered per code"}

	out, err := doc.Dump()
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Contains(t, m, "review")
	assert.JSONEq(t, `{"state": "OPEN", "rounds": 2}`, string(m["review"]))

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(m["metadata"], &meta))
	assert.Equal(t, "pat", meta["reviewedBy"])
	assert.EqualValues(t, 5, meta["pageCount"])

	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(m["items"], &items))
	require.Len(t, items, 1)
	assert.Equal(t, "keep chrome finish", items[0]["customerNote"])
	assert.Equal(t, "3/8 clear tempered", items[0]["glassType"])
}

func TestRoundTripTypedFieldsWinOnCollision(t *testing.T) {
	// A key the worker models never survives as a stale raw copy.
	doc, err := Load(json.RawMessage(`{"assumptions": ["old"], "extraTop": 1}`))
	require.NoError(t, err)
	doc.Assumptions = []string{"new"}

	out, err := doc.Dump()
	require.NoError(t, err)
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &m))
	assert.JSONEq(t, `["new"]`, string(m["assumptions"]))
	assert.JSONEq(t, `1`, string(m["extraTop"]))
}
