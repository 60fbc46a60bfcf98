package batchdata

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferBody(t *testing.T, inner string) []byte {
	t.Helper()
	s := "IMTBuffer(97, binary, hex): " + hex.EncodeToString([]byte(inner))
	b, err := json.Marshal(s)
	require.NoError(t, err)
	return b
}

func TestMakeBufferBodyDecodes(t *testing.T) {
	body := bufferBody(t, `[{"results":{"properties":[{"property_id":"123"}]}}]`)
	records, err := MapBundlePayloadToRecords(body)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, `"123"`, string(records[0].PropertyID))
}

func TestMakeBufferBadHex(t *testing.T) {
	b, err := json.Marshal("IMTBuffer(4, binary, hex): zzzz")
	require.NoError(t, err)
	_, err = MapBundlePayloadToRecords(b)
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func TestMakeBufferMissingPayloadSection(t *testing.T) {
	b, err := json.Marshal("IMTBuffer(4, binary, hex)")
	require.NoError(t, err)
	_, err = MapBundlePayloadToRecords(b)
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func TestPlainStringBodyIsStructuralError(t *testing.T) {
	// a quoted string without the buffer prefix is just not an array
	_, err := MapBundlePayloadToRecords([]byte(`"just a string"`))
	require.ErrorIs(t, err, ErrMalformedPayload)
}
