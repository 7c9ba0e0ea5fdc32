package rs485

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/goburrow/modbus"
	"github.com/golang/glog"
)

// Reader is the part of modbus.Client used by Poller.
type Reader interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
}

// Master is a Modbus RTU master on the host UART.
type Master struct {
	modbus.Client
	handler *modbus.RTUClientHandler
}

// Dial opens the host UART with the configured line settings.
func Dial(c *Config) (*Master, error) {
	h := modbus.NewRTUClientHandler(c.Device)
	h.BaudRate = c.Baud
	h.DataBits = c.DataBits
	if h.DataBits == 0 {
		h.DataBits = 8
	}
	h.Parity = c.Parity
	if h.Parity == "" {
		h.Parity = "N"
	}
	h.StopBits = c.StopBits
	if h.StopBits == 0 {
		h.StopBits = 1
	}
	h.SlaveId = c.SlaveID
	h.Timeout = c.Timeout()
	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("rs485: open %s: %w", c.Device, err)
	}
	return &Master{Client: modbus.NewClient(h), handler: h}, nil
}

// Close implements io.Closer.
func (m *Master) Close() error {
	return m.handler.Close()
}

// Block is the result of reading one configured block.
type Block struct {
	Slave   uint8
	Address uint16
	Values  []uint16
	Err     error
}

// Poller reads the configured blocks periodically.
type Poller struct {
	Config *Config
	Reader Reader
	// Ready gates polling, typically until the port configuration has been
	// written to the HAT.
	Ready func() bool
	// Handler receives every block, including failed ones.
	Handler func(context.Context, Block)
}

// Run implements Runnable.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Config.PollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if p.Ready != nil && !p.Ready() {
				glog.V(2).Info("rs485: waiting for port configuration")
				continue
			}
			p.PollOnce(ctx)
		}
	}
}

// PollOnce reads every block once.
func (p *Poller) PollOnce(ctx context.Context) {
	for _, r := range p.Config.Reads {
		block := Block{Slave: p.Config.SlaveID, Address: r.Address}
		data, err := p.Reader.ReadHoldingRegisters(r.Address, r.Quantity)
		switch {
		case err != nil:
			block.Err = err
		case len(data) != int(r.Quantity)*2:
			block.Err = fmt.Errorf("short response: %d bytes", len(data))
		default:
			block.Values = make([]uint16, r.Quantity)
			for n := range block.Values {
				block.Values[n] = binary.BigEndian.Uint16(data[n*2:])
			}
		}
		if block.Err != nil {
			glog.Warningf("rs485: read %d@%d: %v", r.Quantity, r.Address, block.Err)
		}
		if p.Handler != nil {
			p.Handler(ctx, block)
		}
	}
}
