// Package rs485 drives the RS-485 port of the Monarco HAT.
//
// The HAT bridges the host UART to its RS-485 transceiver. The line settings
// are configured through service registers, after which a Modbus RTU master
// on the host UART can poll the fieldbus.
package rs485

import (
	"fmt"
	"time"

	"github.com/robotalks/monarco.go/pkg/monarco"
)

// Defaults.
const (
	DefaultDevice  = "/dev/serial0"
	DefaultBaud    = monarco.RS485DefaultBaud * 100
	DefaultTimeout = 500 * time.Millisecond
	DefaultPoll    = time.Second
)

// Config describes the line settings and the polled blocks.
type Config struct {
	Device    string `yaml:"device"`
	Baud      int    `yaml:"baud"`
	Parity    string `yaml:"parity"`
	DataBits  int    `yaml:"data_bits"`
	StopBits  int    `yaml:"stop_bits"`
	SlaveID   uint8  `yaml:"slave_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
	PollMs    int    `yaml:"poll_ms"`
	Reads     []Read `yaml:"reads"`
}

// Read is a block of holding registers.
type Read struct {
	Address  uint16 `yaml:"address"`
	Quantity uint16 `yaml:"quantity"`
}

// DefaultConfig returns 9600 Bd 8N1 on DefaultDevice.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills unset fields with defaults.
func (c *Config) Normalize() {
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.Baud == 0 {
		c.Baud = DefaultBaud
	}
	if c.Parity == "" {
		c.Parity = "N"
	}
	if c.DataBits == 0 {
		c.DataBits = 8
	}
	if c.StopBits == 0 {
		c.StopBits = 1
	}
	if c.SlaveID == 0 {
		c.SlaveID = 1
	}
}

// Validate checks the settings against what the HAT supports.
func (c *Config) Validate() error {
	if c.Baud%100 != 0 || c.Baud < 300 || c.Baud > 100000 {
		return fmt.Errorf("rs485: unsupported baud rate %d", c.Baud)
	}
	if _, err := c.mode(); err != nil {
		return err
	}
	if c.SlaveID < 1 || c.SlaveID > 247 {
		return fmt.Errorf("rs485: invalid slave id %d", c.SlaveID)
	}
	for n, r := range c.Reads {
		if r.Quantity < 1 || r.Quantity > 125 {
			return fmt.Errorf("rs485: read %d: invalid quantity %d", n, r.Quantity)
		}
		if int(r.Address)+int(r.Quantity) > 0x10000 {
			return fmt.Errorf("rs485: read %d: address range overflow", n)
		}
	}
	return nil
}

// Mode encodes parity, data and stop bits for RegRS485Mode.
func (c *Config) Mode() uint16 {
	mode, _ := c.mode()
	return mode
}

func (c *Config) mode() (uint16, error) {
	var mode uint16
	switch c.Parity {
	case "", "N":
		mode |= monarco.RS485ParityNone
	case "E":
		mode |= monarco.RS485ParityEven
	case "O":
		mode |= monarco.RS485ParityOdd
	default:
		return 0, fmt.Errorf("rs485: invalid parity %q", c.Parity)
	}
	switch c.DataBits {
	case 5:
		mode |= monarco.RS485DataBits5
	case 6:
		mode |= monarco.RS485DataBits6
	case 7:
		mode |= monarco.RS485DataBits7
	case 0, 8:
		mode |= monarco.RS485DataBits8
	default:
		return 0, fmt.Errorf("rs485: invalid data bits %d", c.DataBits)
	}
	switch c.StopBits {
	case 0, 1:
		mode |= monarco.RS485StopBits1
	case 2:
		mode |= monarco.RS485StopBits2
	default:
		return 0, fmt.Errorf("rs485: invalid stop bits %d", c.StopBits)
	}
	return mode, nil
}

// Items returns the service register writes configuring the port. The host
// UART runs at the line baud rate.
func (c *Config) Items() []*monarco.Item {
	baud := uint16(c.Baud / 100)
	return []*monarco.Item{
		monarco.WriteItem(monarco.RegRS485Baud, baud),
		monarco.WriteItem(monarco.RegRS485Mode, c.Mode()),
		monarco.WriteItem(monarco.RegHostBaud, baud),
	}
}

// Timeout is the response timeout of the Modbus master.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// PollInterval is the interval between poll rounds.
func (c *Config) PollInterval() time.Duration {
	if c.PollMs <= 0 {
		return DefaultPoll
	}
	return time.Duration(c.PollMs) * time.Millisecond
}
