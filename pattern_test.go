package viking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarIntRoundTrip(t *testing.T) {
	cases := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x81, 0x00}},
		{300, []byte{0x82, 0x2c}},
		{1 << 21, []byte{0x81, 0x80, 0x80, 0x00}},
	}
	for _, c := range cases {
		got := VarIntPayload(c.v).encoded()
		assert.Equal(t, c.want, got, "encode %d", c.v)

		decoded, n, err := DecodeVarInt(got)
		require.NoError(t, err)
		assert.Equal(t, c.v, decoded)
		assert.Equal(t, len(got), n)
	}
}

func TestDecodeVarIntTruncated(t *testing.T) {
	_, _, err := DecodeVarInt([]byte{0x81})
	assert.Error(t, err)
}

func TestBytesPayloadAppendTo(t *testing.T) {
	p := BytesPayload([]byte{1, 2, 3})
	assert.Equal(t, 4, p.Len())
	assert.Equal(t, []byte{3, 1, 2, 3}, p.AppendTo(nil))
}

func TestBytesPayloadOversizePanics(t *testing.T) {
	p := make(BytesPayload, MaxPayloadLen+1)
	assert.Panics(t, func() { p.Len() })
}

func TestSliceResponseDecodeTruncated(t *testing.T) {
	_, err := SliceResponse(4).Decode([]byte{1, 2})
	assert.Error(t, err)
}
