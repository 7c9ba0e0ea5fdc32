package monarco

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRC16(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
		crc  uint16
	}{
		{"empty", nil, 0xFFFF},
		{"check", []byte("123456789"), 0x4B37},
		{"single zero", []byte{0x00}, 0x40BF},
		{"modbus request", []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x01}, 0x0A84},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.crc, CRC16(tc.data))
		})
	}
}

func TestFrameChecksum(t *testing.T) {
	var f Frame
	for n := range f {
		f[n] = byte(n * 7)
	}
	crc := f.stamp()
	require.Equal(t, crc, f.Checksum())
	require.True(t, f.ValidChecksum())

	for n := 0; n < FrameSize; n++ {
		for bit := uint(0); bit < 8; bit++ {
			corrupted := f
			corrupted[n] ^= 1 << bit
			require.False(t, corrupted.ValidChecksum(), "byte %d bit %d", n, bit)
		}
	}
}
