package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_SortsKeysRecursively(t *testing.T) {
	in := map[string]interface{}{
		"b": 1,
		"a": map[string]interface{}{"z": true, "y": []interface{}{map[string]interface{}{"d": 1, "c": 2}}},
	}

	out, err := JSON(in)

	require.NoError(t, err)
	assert.Equal(t, `{"a":{"y":[{"c":2,"d":1}],"z":true},"b":1}`, string(out))
}

func TestChecksum_IndependentOfKeyOrder(t *testing.T) {
	a, err := Checksum(map[string]interface{}{"x": 1, "y": "two"})
	require.NoError(t, err)
	b, err := Checksum(map[string]interface{}{"y": "two", "x": 1})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestRecordCodec_RoundTrip(t *testing.T) {
	blob, err := EncodeRecord(map[string]string{"comparisonId": "abc"})
	require.NoError(t, err)

	raw, err := DecodeRecord(blob)

	require.NoError(t, err)
	assert.JSONEq(t, `{"comparisonId":"abc"}`, string(raw))
}

func TestDecompress_RejectsGarbage(t *testing.T) {
	_, err := Decompress([]byte("not zstd"))
	assert.Error(t, err)
}
