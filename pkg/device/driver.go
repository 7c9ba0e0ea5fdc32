// Package device runs a Monarco engine inside a control loop.
package device

import (
	"errors"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/monarco.go/pkg/framework"
	"github.com/robotalks/monarco.go/pkg/monarco"
)

// Stats counts cycles by outcome.
type Stats struct {
	Cycles          uint64
	NotReady        uint64
	TransportErrors uint64
	ChecksumErrors  uint64
}

// Failures is the total number of failed cycles.
func (s Stats) Failures() uint64 {
	return s.NotReady + s.TransportErrors + s.ChecksumErrors
}

// Driver performs one engine cycle per loop iteration at PrLvActuate, after
// control logic has updated the outputs.
type Driver struct {
	Engine *monarco.Engine
	// SignOfLife advances the sign of life counter every cycle.
	SignOfLife bool

	lock     sync.RWMutex
	stats    Stats
	initDone bool
}

// New creates a Driver.
func New(engine *monarco.Engine) *Driver {
	return &Driver{Engine: engine, SignOfLife: true}
}

// AddToLoop implements LoopAdder.
func (d *Driver) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvActuate, d)
}

// Control implements Controller. Cycle failures are counted, not returned,
// the engine logs them.
func (d *Driver) Control(cc fx.ControlContext) error {
	if d.SignOfLife {
		ctrl := &d.Engine.Tx().Control
		ctrl.SignOfLife = (ctrl.SignOfLife + 1) & 0x03
	}
	err := d.Engine.Cycle()

	d.lock.Lock()
	defer d.lock.Unlock()
	d.stats.Cycles++
	var transportErr *monarco.TransportError
	switch {
	case err == nil:
	case errors.Is(err, monarco.ErrNotReady):
		d.stats.NotReady++
	case errors.Is(err, monarco.ErrChecksum):
		d.stats.ChecksumErrors++
	case errors.As(err, &transportErr):
		d.stats.TransportErrors++
	default:
		glog.Errorf("cycle: %v", err)
	}
	if !d.initDone && err == nil && d.Engine.AllDone() {
		d.initDone = true
		glog.Info("SDC init done")
	}
	return nil
}

// Stats returns a snapshot of the statistics.
func (d *Driver) Stats() Stats {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.stats
}

// InitDone reports whether all items of the register table completed at
// least once.
func (d *Driver) InitDone() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.initDone
}

// Close closes the engine.
func (d *Driver) Close() error {
	return d.Engine.Close()
}
