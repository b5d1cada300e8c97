package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/storygraph/errors"
)

func TestDecodeStrictPlainJSON(t *testing.T) {
	var out map[string]int
	err := decodeStrict(`{"a": 1}`, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, out["a"])
}

func TestDecodeStrictFencedJSON(t *testing.T) {
	content := "Here is the result:\n```json\n{\"a\": 2}\n```\nDone."
	var out map[string]int
	require.NoError(t, decodeStrict(content, &out))
	assert.Equal(t, 2, out["a"])
}

func TestDecodeStrictSurroundingProse(t *testing.T) {
	content := `Sure! The answer is {"a": 3} as requested.`
	var out map[string]int
	require.NoError(t, decodeStrict(content, &out))
	assert.Equal(t, 3, out["a"])
}

func TestDecodeStrictArray(t *testing.T) {
	var out []string
	require.NoError(t, decodeStrict(`["x","y"]`, &out))
	assert.Equal(t, []string{"x", "y"}, out)
}

func TestDecodeStrictRejectsNonJSON(t *testing.T) {
	var out map[string]int
	err := decodeStrict("I could not produce a result, sorry.", &out)
	require.Error(t, err)
	assert.True(t, errors.IsMalformedResponse(err), "prose is never accepted as success")
}

func TestDecodeStrictRejectsTruncatedJSON(t *testing.T) {
	var out map[string]int
	err := decodeStrict(`{"a": 1`, &out)
	require.Error(t, err)
	assert.True(t, errors.IsMalformedResponse(err))
}
