package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/robotalks/monarco.go/pkg/monarco"
	"github.com/robotalks/monarco.go/pkg/rs485"
)

const sampleConfig = `
device: /dev/spidev0.1
clock_hz: 1000000
interval_ms: 10
registers:
  - name: firmware
    address: 0x001
  - name: watchdog
    address: 0x00F
    value: 100
    write: true
  - name: status
    address: 0x000
    periodic: true
rs485:
  baud: 19200
  parity: E
  reads:
    - address: 100
      quantity: 4
bridge:
  id: hat1
  publish_every: 10
`

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "monarco.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	require.Equal(t, "/dev/spidev0.1", conf.Device)
	require.Equal(t, physic.MegaHertz, conf.Clock())
	require.Equal(t, 10*time.Millisecond, conf.Interval())
	require.Equal(t, "hat1", conf.Bridge.ID)
	require.Equal(t, uint64(10), conf.Bridge.PublishEvery)
	require.Equal(t, Default().Bridge.MQTTURL, conf.Bridge.MQTTURL)

	require.NotNil(t, conf.RS485)
	require.Equal(t, rs485.DefaultDevice, conf.RS485.Device)
	require.Equal(t, 8, conf.RS485.DataBits)
	require.Equal(t, uint8(1), conf.RS485.SlaveID)

	items := conf.Items()
	require.Len(t, items, 6)
	require.Equal(t, monarco.ItemRequested, items[0].State())
	require.False(t, items[0].Write)
	require.True(t, items[1].Write)
	require.Equal(t, uint16(100), items[1].Value)
	require.Equal(t, 1, items[2].Factor)
	require.Equal(t, monarco.RegRS485Baud, items[3].Address)
	require.Equal(t, uint16(192), items[3].Value)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		err    string
	}{
		{"interval", func(c *Config) { c.IntervalMs = 0 }, "interval_ms must be > 0"},
		{"device", func(c *Config) { c.Device = "" }, "device is required"},
		{"address", func(c *Config) {
			c.Registers = []Register{{Name: "x", Address: 0x1000}}
		}, `register "x": invalid address 0x1000`},
		{"periodic write", func(c *Config) {
			c.Registers = []Register{{Address: 0x00F, Write: true, Periodic: true}}
		}, `register "#0": periodic writes are not supported`},
		{"duplicate", func(c *Config) {
			c.Registers = []Register{{Name: "a", Address: 1}, {Name: "b", Address: 1}}
		}, `register "b": duplicates "a"`},
		{"rs485", func(c *Config) {
			c.RS485 = rs485.DefaultConfig()
			c.RS485.Parity = "X"
		}, `rs485: invalid parity "X"`},
		{"id", func(c *Config) { c.Bridge.ID = "" }, "bridge: id is required with mqtt"},
		{"capacity", func(c *Config) {
			for n := 0; n <= monarco.MaxItems; n++ {
				c.Registers = append(c.Registers, Register{Address: uint16(n)})
			}
		}, "257 register items exceed the limit of 256"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			conf.Bridge.ID = "hat1"
			require.NoError(t, conf.Validate())
			tc.modify(conf)
			require.EqualError(t, conf.Validate(), tc.err)
		})
	}

	conf := NewConfig()
	conf.Sim, conf.Device = true, ""
	conf.Bridge.ID = "hat1"
	require.NoError(t, conf.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	_, err = Load(writeConfig(t, "registers: [1, 2"))
	require.Error(t, err)
	_, err = Load(writeConfig(t, "bridge: {id: hat1}\ninterval_ms: -1\n"))
	require.EqualError(t, err, "interval_ms must be > 0")
}
