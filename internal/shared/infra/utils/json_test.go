package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload interface{}
	}{
		{"raw", json.RawMessage(`{"name":"a","count":2}`)},
		{"bytes", []byte(`{"name":"a","count":2}`)},
		{"string", `{"name":"a","count":2}`},
		{"map", map[string]interface{}{"name": "a", "count": 2}},
		{"typed", sample{Name: "a", Count: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePayload[sample](tt.payload)
			require.NoError(t, err)
			assert.Equal(t, sample{Name: "a", Count: 2}, got)
		})
	}
}

func TestDecodePayload_Invalid(t *testing.T) {
	_, err := DecodePayload[sample](json.RawMessage(`{not json`))
	assert.Error(t, err)
}

func TestTernary(t *testing.T) {
	assert.Equal(t, "a", Ternary(true, "a", "b"))
	assert.Equal(t, 2, Ternary(false, 1, 2))
}
