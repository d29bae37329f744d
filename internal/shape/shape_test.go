package shape

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enc(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestFieldsSortedByName(t *testing.T) {
	got, err := Fields(map[int]string{2: "b", 10: "j", 1: "a"})
	require.NoError(t, err)
	assert.Equal(t, []Field{{"1", "a"}, {"10", "j"}, {"2", "b"}}, got)

	_, err = Fields([]int{1})
	assert.Error(t, err)
}

func TestElementsAndMembers(t *testing.T) {
	got, err := Elements([]string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y"}, got)

	_, err = Elements(map[string]bool{"x": true})
	assert.Error(t, err)

	got, err = Members(map[string]bool{"x": true, "y": false})
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, got)

	got, err = Members([2]int{4, 5})
	require.NoError(t, err)
	assert.Equal(t, []any{4, 5}, got)
}

func TestFillMapTypedKeys(t *testing.T) {
	fields := map[string][]byte{"1": enc(t, "one"), "2": enc(t, "two")}
	var m map[int]string
	require.NoError(t, FillMap(&m, fields, json.Unmarshal))
	assert.Equal(t, map[int]string{1: "one", 2: "two"}, m)

	var bad map[int]string
	err := FillMap(&bad, map[string][]byte{"x": enc(t, "v")}, json.Unmarshal)
	assert.Error(t, err)

	var anyDst any
	require.NoError(t, FillMap(&anyDst, fields, json.Unmarshal))
	assert.Equal(t, map[string]any{"1": "one", "2": "two"}, anyDst)

	assert.Error(t, FillMap(m, fields, json.Unmarshal), "non-pointer destination")
}

func TestFillSliceShapes(t *testing.T) {
	payloads := [][]byte{enc(t, 3), enc(t, 1), enc(t, 3)}

	var list []int
	require.NoError(t, FillSlice(&list, payloads, json.Unmarshal))
	assert.Equal(t, []int{3, 1, 3}, list)

	var set map[int]struct{}
	require.NoError(t, FillSlice(&set, payloads, json.Unmarshal))
	assert.Equal(t, map[int]struct{}{1: {}, 3: {}}, set)

	var flags map[int]bool
	require.NoError(t, FillSlice(&flags, payloads, json.Unmarshal))
	assert.Equal(t, map[int]bool{1: true, 3: true}, flags)

	var anyDst any
	require.NoError(t, FillSlice(&anyDst, payloads, json.Unmarshal))
	assert.Equal(t, []any{float64(3), float64(1), float64(3)}, anyDst)

	var notSet map[int]string
	assert.Error(t, FillSlice(&notSet, payloads, json.Unmarshal))
}
