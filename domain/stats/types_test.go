package stats

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarJSONRoundTrip(t *testing.T) {
	out, err := json.Marshal(NaN())
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	out, err = json.Marshal(Scalar(1.5))
	require.NoError(t, err)
	assert.Equal(t, "1.5", string(out))

	var s Scalar
	require.NoError(t, json.Unmarshal([]byte("null"), &s))
	assert.True(t, s.IsNaN())

	require.NoError(t, json.Unmarshal([]byte("2.25"), &s))
	assert.Equal(t, Scalar(2.25), s)
}
