package wire_test

import (
	"testing"

	"github.com/jroosing/msgbox/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ================ Header ================

func TestHeader_encodeDecodeRoundTrip(t *testing.T) {
	h := wire.Header{Kind: wire.KindRequest, ReplyID: 7, NumBytes: 1024}
	buf := make([]byte, wire.HeaderLen)
	h.Encode(buf)

	got, err := wire.DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHeader_networkByteOrder(t *testing.T) {
	h := wire.Header{Kind: 1, ReplyID: 0x0203, NumBytes: 0x04050607}
	buf := make([]byte, wire.HeaderLen)
	h.Encode(buf)

	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}, buf)
}

func TestDecodeHeader_short(t *testing.T) {
	_, err := wire.DecodeHeader([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		k    wire.Kind
		want string
	}{
		{wire.KindOneWay, "one-way"},
		{wire.KindRequest, "request"},
		{wire.KindReply, "reply"},
		{wire.KindHeartbeat, "heartbeat"},
		{wire.KindClose, "close"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.k.String())
	}
}

// ================ Data ================

func TestNewData_reservesHeaderPrefix(t *testing.T) {
	d := wire.NewDataStr("hello")
	assert.Equal(t, "hello", d.Str())
	assert.Equal(t, 5, d.Len())
}

func TestData_Framed_stampsLengthAndHeader(t *testing.T) {
	d := wire.NewDataStr("echo:hi")
	framed := d.Framed(wire.Header{Kind: wire.KindOneWay, ReplyID: 0})

	require.Len(t, framed, wire.HeaderLen+len("echo:hi"))

	h, err := wire.DecodeHeader(framed)
	require.NoError(t, err)
	assert.Equal(t, wire.KindOneWay, h.Kind)
	assert.Equal(t, uint16(0), h.ReplyID)
	assert.Equal(t, uint32(len("echo:hi")), h.NumBytes)
	assert.Equal(t, "echo:hi", string(framed[wire.HeaderLen:]))
}

func TestNewDataSpace_fillableInPlace(t *testing.T) {
	d := wire.NewDataSpace(3)
	copy(d.Bytes(), []byte{9, 8, 7})
	assert.Equal(t, []byte{9, 8, 7}, d.Bytes())
}

func TestData_nilSafe(t *testing.T) {
	var d *wire.Data
	assert.Nil(t, d.Bytes())
	assert.Equal(t, 0, d.Len())
}
