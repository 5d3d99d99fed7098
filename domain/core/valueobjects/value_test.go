package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_EqualAcrossRepresentations(t *testing.T) {
	var decoded Value
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"b":[true,null,"x"],"c":{"d":2.5}}`), &decoded))

	built := FromAny(map[string]interface{}{
		"a": 1,
		"b": []interface{}{true, nil, "x"},
		"c": map[string]interface{}{"d": float32(2.5)},
	})

	assert.True(t, decoded.Equal(built))
	assert.True(t, built.Equal(decoded))
}

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name  string
		a     Value
		b     Value
		equal bool
	}{
		{"nulls", Null(), Null(), true},
		{"null vs empty string", Null(), String(""), false},
		{"number vs string", Number(1), String("1"), false},
		{"int vs float", FromAny(1), FromAny(1.0), true},
		{"sequence order matters", Sequence(Number(1), Number(2)), Sequence(Number(2), Number(1)), false},
		{"map extra key", Map(map[string]Value{"a": Null()}), Map(map[string]Value{}), false},
		{"nested difference", FromAny(map[string]interface{}{"a": []interface{}{1}}), FromAny(map[string]interface{}{"a": []interface{}{2}}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
		})
	}
}

func TestValue_Text(t *testing.T) {
	assert.Equal(t, "", Null().Text())
	assert.Equal(t, "42", Number(42).Text())
	assert.Equal(t, "2.5", Number(2.5).Text())
	assert.Equal(t, "true", Bool(true).Text())
	assert.Equal(t, "n1", String("n1").Text())
	assert.Equal(t, `{"a":1,"b":"x"}`, FromAny(map[string]interface{}{"b": "x", "a": 1}).Text())
}

func TestValue_JSONRoundTrip(t *testing.T) {
	in := `{"id":"n1","props":{"weight":3,"tags":["a","b"],"missing":null}}`

	var v Value
	require.NoError(t, json.Unmarshal([]byte(in), &v))
	out, err := json.Marshal(v)

	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
	assert.Equal(t, KindMap, v.Kind())
	assert.Equal(t, []string{"id", "props"}, v.Keys())
}

func TestValue_AccessorsReturnCopies(t *testing.T) {
	v := Map(map[string]Value{"a": Number(1)})

	m, ok := v.AsMap()
	require.True(t, ok)
	m["b"] = Number(2)

	_, exists := v.Get("b")
	assert.False(t, exists)
	assert.Equal(t, 1, v.Len())
}

func TestValue_NumberPrecision(t *testing.T) {
	decode := func(doc string) Value {
		var v Value
		require.NoError(t, json.Unmarshal([]byte(doc), &v))
		return v
	}

	tests := []struct {
		name  string
		a     Value
		b     Value
		equal bool
	}{
		{"integers past 2^53", decode(`9007199254740993`), decode(`9007199254740992`), false},
		{"same large integer", decode(`9007199254740993`), decode(`9007199254740993`), true},
		{"int64 vs decoded", FromAny(int64(9007199254740993)), decode(`9007199254740993`), true},
		{"uint64 max", FromAny(uint64(18446744073709551615)), decode(`18446744073709551614`), false},
		{"trailing zeros", decode(`0.10`), decode(`0.1`), true},
		{"exponent forms", decode(`1e2`), decode(`100`), true},
		{"long decimals", decode(`0.1000000000000000000001`), decode(`0.1`), false},
		{"beyond float range", decode(`1e400`), decode(`1e401`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
			assert.Equal(t, tt.equal, tt.b.Equal(tt.a))
		})
	}
}

func TestValue_NumberLiteralSurvivesEncoding(t *testing.T) {
	in := `{"big":9007199254740993,"huge":1e400,"small":3}`

	var v Value
	require.NoError(t, json.Unmarshal([]byte(in), &v))
	out, err := json.Marshal(v)

	require.NoError(t, err)
	assert.Equal(t, in, string(out))

	big, _ := v.Get("big")
	assert.Equal(t, "9007199254740993", big.Text())
	f, ok := big.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 9007199254740992.0, f)
}
