package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string            `json:"name"`
	Tags  map[string]string `json:"tags,omitempty"`
	Skip  string            `json:"-"`
	Count int               `json:"count"`
}

func TestMarshalSortsMapKeys(t *testing.T) {
	for _, arch := range []string{"amd64", "riscv64"} {
		t.Run(arch, func(t *testing.T) {
			a := selectAPI(arch)
			data, err := a.marshal(entry{Name: "users", Tags: map[string]string{"b": "2", "a": "1"}, Skip: "x", Count: 3})
			require.NoError(t, err)
			assert.Equal(t, `{"name":"users","tags":{"a":"1","b":"2"},"count":3}`, string(data))

			var got entry
			require.NoError(t, a.unmarshal(data, &got))
			assert.Equal(t, "users", got.Name)
			assert.Empty(t, got.Skip)
		})
	}
}

func TestEncoderTerminatesValues(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Encode(map[string]int{"a": 1}))
	require.NoError(t, enc.Encode([]string{"b"}))
	assert.Equal(t, "{\"a\":1}\n[\"b\"]\n", buf.String())
}

func TestUnmarshalRejectsInvalidInput(t *testing.T) {
	var v map[string]any
	assert.Error(t, Unmarshal([]byte(`{"a":`), &v))
}
