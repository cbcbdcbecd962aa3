package address_test

import (
	"testing"

	"github.com/jroosing/msgbox/internal/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ================ Parse ================

func TestParse_valid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want address.Address
	}{
		{
			name: "tcp-loopback",
			in:   "tcp://127.0.0.1:2345",
			want: address.Address{IP: [4]byte{127, 0, 0, 1}, Port: 2345, Transport: address.TCP},
		},
		{
			name: "udp-wildcard",
			in:   "udp://*:2468",
			want: address.Address{Port: 2468, Transport: address.UDP, Wildcard: true},
		},
		{
			name: "tcp-min-port",
			in:   "tcp://10.0.0.1:1",
			want: address.Address{IP: [4]byte{10, 0, 0, 1}, Port: 1, Transport: address.TCP},
		},
		{
			name: "udp-max-port",
			in:   "udp://192.168.1.1:65535",
			want: address.Address{IP: [4]byte{192, 168, 1, 1}, Port: 65535, Transport: address.UDP},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := address.Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_invalid(t *testing.T) {
	tests := []string{
		"",
		"ftp://127.0.0.1:80",
		"tcp://127.0.0.1",
		"tcp://:80",
		"tcp://127.0.0.1:",
		"tcp://127.0.0.1:0",
		"tcp://127.0.0.1:65536",
		"tcp://127.0.0.1:abc",
		"tcp://256.0.0.1:80",
		"tcp://1234567890123456:80",
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := address.Parse(in)
			assert.Error(t, err)
		})
	}
}

func TestString_roundTrip(t *testing.T) {
	tests := []string{
		"tcp://127.0.0.1:2345",
		"udp://0.0.0.0:2468",
		"udp://*:53",
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			a, err := address.Parse(in)
			require.NoError(t, err)
			assert.Equal(t, in, a.String())
		})
	}
}

func TestAddress_equality(t *testing.T) {
	a, err := address.Parse("tcp://127.0.0.1:2345")
	require.NoError(t, err)
	b, err := address.Parse("tcp://127.0.0.1:2345")
	require.NoError(t, err)
	c, err := address.Parse("tcp://127.0.0.1:2346")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestFromUDPAddr_FromTCPAddr(t *testing.T) {
	u := address.Address{IP: [4]byte{10, 1, 2, 3}, Port: 9999, Transport: address.UDP}
	got := address.FromUDPAddr(u.UDPAddr())
	assert.Equal(t, u.IP, got.IP)
	assert.Equal(t, u.Port, got.Port)
	assert.Equal(t, address.UDP, got.Transport)

	tc := address.Address{IP: [4]byte{10, 1, 2, 3}, Port: 9999, Transport: address.TCP}
	gotTCP := address.FromTCPAddr(tc.TCPAddr())
	assert.Equal(t, tc.IP, gotTCP.IP)
	assert.Equal(t, tc.Port, gotTCP.Port)
	assert.Equal(t, address.TCP, gotTCP.Transport)
}
