package spi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenMissingDevice(t *testing.T) {
	p, err := Open("/dev/spidev-none.9", DefaultClock)
	require.Error(t, err)
	require.Nil(t, p)
}

func TestClosedPort(t *testing.T) {
	p := &Port{Device: "test"}
	require.NoError(t, p.Close())
	require.EqualError(t, p.Exchange(make([]byte, 26), make([]byte, 26)), "test closed")
}
