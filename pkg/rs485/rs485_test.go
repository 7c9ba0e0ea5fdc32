package rs485

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/monarco.go/pkg/monarco"
)

func TestMode(t *testing.T) {
	testCases := []struct {
		name     string
		parity   string
		dataBits int
		stopBits int
		mode     uint16
	}{
		{"8N1", "N", 8, 1, 0x38},
		{"defaults", "", 0, 0, monarco.RS485DefaultMode},
		{"7E1", "E", 7, 1, 0x31},
		{"8O2", "O", 8, 2, 0x7A},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Config{Baud: 9600, Parity: tc.parity, DataBits: tc.dataBits, StopBits: tc.stopBits, SlaveID: 1}
			require.NoError(t, c.Validate())
			require.Equal(t, tc.mode, c.Mode())
		})
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"baud", func(c *Config) { c.Baud = 9601 }},
		{"baud range", func(c *Config) { c.Baud = 200 }},
		{"parity", func(c *Config) { c.Parity = "M" }},
		{"data bits", func(c *Config) { c.DataBits = 9 }},
		{"stop bits", func(c *Config) { c.StopBits = 3 }},
		{"slave", func(c *Config) { c.SlaveID = 0 }},
		{"quantity", func(c *Config) { c.Reads = []Read{{Address: 0, Quantity: 126}} }},
		{"overflow", func(c *Config) { c.Reads = []Read{{Address: 0xFFFF, Quantity: 2}} }},
	}
	require.NoError(t, DefaultConfig().Validate())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := DefaultConfig()
			tc.modify(c)
			require.Error(t, c.Validate())
		})
	}
}

func TestItems(t *testing.T) {
	c := DefaultConfig()
	c.Baud = 19200
	c.Parity = "E"
	items := c.Items()
	require.Len(t, items, 3)
	expected := []struct {
		addr, value uint16
	}{
		{monarco.RegRS485Baud, 192},
		{monarco.RegRS485Mode, 0x39},
		{monarco.RegHostBaud, 192},
	}
	for n, item := range items {
		require.Equal(t, expected[n].addr, item.Address)
		require.Equal(t, expected[n].value, item.Value)
		require.True(t, item.Write)
		require.Equal(t, monarco.ItemRequested, item.State())
	}
}

type fakeReader struct {
	data map[uint16][]byte
}

func (r *fakeReader) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	data, ok := r.data[address]
	if !ok {
		return nil, errors.New("timeout")
	}
	return data, nil
}

func TestPollOnce(t *testing.T) {
	c := DefaultConfig()
	c.Reads = []Read{{Address: 100, Quantity: 2}, {Address: 200, Quantity: 1}, {Address: 300, Quantity: 2}}
	var blocks []Block
	p := &Poller{
		Config: c,
		Reader: &fakeReader{data: map[uint16][]byte{
			100: {0x12, 0x34, 0x00, 0x01},
			300: {0x00},
		}},
		Handler: func(_ context.Context, b Block) { blocks = append(blocks, b) },
	}
	p.PollOnce(context.Background())
	require.Len(t, blocks, 3)
	require.Equal(t, Block{Slave: 1, Address: 100, Values: []uint16{0x1234, 1}}, blocks[0])
	require.EqualError(t, blocks[1].Err, "timeout")
	require.EqualError(t, blocks[2].Err, "short response: 1 bytes")
}
