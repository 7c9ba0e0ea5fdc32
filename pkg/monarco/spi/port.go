// Package spi exchanges Monarco frames over a Linux spidev port.
package spi

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/robotalks/monarco.go/pkg/monarco"
)

// Defaults of the HAT wiring on a Raspberry Pi.
const (
	DefaultDevice = "/dev/spidev0.0"
	DefaultClock  = 4 * physic.MegaHertz
)

var (
	hostOnce sync.Once
	hostErr  error
)

// Port is a full duplex SPI port in mode 0 with 8 bit words.
type Port struct {
	Device string

	port spi.PortCloser
	conn conn.Conn
	lock sync.Mutex
}

// Open opens device at the given clock.
func Open(device string, clock physic.Frequency) (*Port, error) {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	if hostErr != nil {
		return nil, fmt.Errorf("periph init: %w", hostErr)
	}
	if device == "" {
		device = DefaultDevice
	}
	if clock == 0 {
		clock = DefaultClock
	}
	p, err := spireg.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	c, err := p.Connect(clock, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("connect %s: %w", device, err)
	}
	glog.Infof("SPI %s opened at %s", device, clock)
	return &Port{Device: device, port: p, conn: c}, nil
}

// Exchange implements monarco.Transport.
func (p *Port) Exchange(tx, rx []byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.conn == nil {
		return fmt.Errorf("%s closed", p.Device)
	}
	if err := p.conn.Tx(tx, rx); err != nil {
		glog.Errorf("SPI %s transfer: %v", p.Device, err)
		return err
	}
	return nil
}

// Close implements io.Closer.
func (p *Port) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port, p.conn = nil, nil
	return err
}

var _ monarco.Transport = (*Port)(nil)
