package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_Basic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"int", 42, "42"},
		{"float", 51.5074, "51.5074"},
		{"bool", true, "true"},
		{"null", nil, "null"},
		{"empty array", []int{}, "[]"},
		{"empty object", map[string]int{}, "{}"},
		{"no html escape", "<a&b>", `"<a&b>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshal_SortedKeys(t *testing.T) {
	got, err := Marshal(map[string]any{
		"zebra": 1,
		"alpha": map[string]any{"b": 1, "a": 2},
		"beta":  []any{"x", 3},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"a":2,"b":1},"beta":["x",3],"zebra":1}`, string(got))
}

func TestMarshal_StructTags(t *testing.T) {
	type sample struct {
		Zeta  string `json:"zeta"`
		Alpha int    `json:"alpha"`
		Skip  string `json:"-"`
	}
	got, err := Marshal(sample{Zeta: "z", Alpha: 1, Skip: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":1,"zeta":"z"}`, string(got))
}

func TestMarshal_NFCNormalization(t *testing.T) {
	decomposed := "e\u0301"
	composed := "\u00e9"

	a, err := Marshal(decomposed)
	require.NoError(t, err)
	b, err := Marshal(composed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshal_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes to surrogate 0xD83D, which sorts before U+FF61 in UTF-16
	// but after it in UTF-8 byte order.
	got, err := Marshal(map[string]int{"｡": 1, "\U0001F600": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"｡\":1}", string(got))
}

func TestFingerprint_StableAndDomainSeparated(t *testing.T) {
	v := map[string]any{"a": 1, "b": []any{"x"}}

	f1, err := Fingerprint(DomainFrame, v)
	require.NoError(t, err)
	f2, err := Fingerprint(DomainFrame, map[string]any{"b": []any{"x"}, "a": 1})
	require.NoError(t, err)
	f3, err := Fingerprint(DomainDataset, v)
	require.NoError(t, err)

	assert.Len(t, f1, 64)
	assert.Equal(t, f1, f2)
	assert.NotEqual(t, f1, f3)
}

func TestMarshal_Unsupported(t *testing.T) {
	_, err := Marshal(make(chan int))
	assert.Error(t, err)
}
