// Package bridge exposes a running Monarco engine to remote clients.
//
// Commands received on any link are applied to the engine inside the control
// loop, process inputs and service register results are published to all
// links.
package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/monarco.go/pkg/bridge/comm"
	"github.com/robotalks/monarco.go/pkg/bridge/msgs"
	"github.com/robotalks/monarco.go/pkg/device"
	fx "github.com/robotalks/monarco.go/pkg/framework"
	"github.com/robotalks/monarco.go/pkg/monarco"
)

// DefaultPublishEvery publishes Inputs once per second at the default loop
// interval.
const DefaultPublishEvery = 50

// MaxAddress is the largest service register address.
const MaxAddress = 0xFFF

// Bridge connects links to the engine.
type Bridge struct {
	Engine *monarco.Engine
	// Driver provides link statistics for Inputs, optional.
	Driver *device.Driver
	// PublishEvery is the number of loop ticks between Inputs events.
	PublishEvery uint64

	linksLock sync.RWMutex
	links     []*comm.Pipe
	reported  map[*monarco.Item]itemSnapshot
}

type itemSnapshot struct {
	done    bool
	value   uint16
	errored bool
}

// command is a decoded command waiting for the control phase.
type command struct {
	msg  fx.Message
	seq  uint32
	pipe *comm.Pipe
}

func (c *command) NewMessage() fx.Message { return &command{} }

// New creates a Bridge.
func New(engine *monarco.Engine, driver *device.Driver) *Bridge {
	return &Bridge{
		Engine:       engine,
		Driver:       driver,
		PublishEvery: DefaultPublishEvery,
		reported:     make(map[*monarco.Item]itemSnapshot),
	}
}

// AddLink attaches a link which lives as long as the loop. Must be called
// before AddToLoop.
func (b *Bridge) AddLink(name string, rw comm.PacketReadWriter) *comm.Pipe {
	pipe := b.newPipe(name, rw)
	b.linksLock.Lock()
	b.links = append(b.links, pipe)
	b.linksLock.Unlock()
	return pipe
}

// Serve runs a link accepted at runtime until it fails or ctx is done. ctx
// must come from the loop.
func (b *Bridge) Serve(ctx context.Context, name string, rw comm.PacketReadWriter) error {
	pipe := b.AddLink(name, rw)
	glog.Infof("%s: link attached", name)
	defer func() {
		b.linksLock.Lock()
		for n, p := range b.links {
			if p == pipe {
				b.links = append(b.links[:n], b.links[n+1:]...)
				break
			}
		}
		b.linksLock.Unlock()
		glog.Infof("%s: link detached", name)
	}()
	return pipe.Run(ctx)
}

// Links returns the attached links.
func (b *Bridge) Links() []*comm.Pipe {
	b.linksLock.RLock()
	defer b.linksLock.RUnlock()
	return append([]*comm.Pipe(nil), b.links...)
}

func (b *Bridge) newPipe(name string, rw comm.PacketReadWriter) *comm.Pipe {
	pipe := comm.NewPipe(name, rw)
	pipe.Handler = msgs.HandleTypedMsgFunc(func(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
		return b.handleTypedMsg(ctx, pipe, msg, typed)
	})
	return pipe
}

// AddToLoop implements LoopAdder.
func (b *Bridge) AddToLoop(l *fx.Loop) {
	for _, pipe := range b.Links() {
		l.Add(pipe)
	}
	l.AddController(fx.PrLvControl, fx.ControlFunc(b.control))
	l.AddController(fx.PrLvPostProc, fx.ControlFunc(b.postProc))
}

func (b *Bridge) handleTypedMsg(ctx context.Context, pipe *comm.Pipe, msg fx.Message, typed *msgs.Typed) error {
	if !typed.IsCommand() || typed.IsReply() {
		glog.V(2).Infof("%s: ignored message %x", pipe.Name, typed.TypeID)
		return nil
	}
	fx.LoopCtlFrom(ctx).PostMessage(&command{msg: msg, seq: typed.Sequence, pipe: pipe})
	return nil
}

func (b *Bridge) control(cc fx.ControlContext) error {
	var cmds []*command
	cc.TakeMessages(func(msg fx.Message) bool {
		if cmd, ok := msg.(*command); ok {
			cmds = append(cmds, cmd)
			return true
		}
		return false
	})
	var errs fx.AggregatedError
	for _, cmd := range cmds {
		var reply fx.Message = &msgs.CommandOK{}
		if err := b.apply(cmd.msg); err != nil {
			glog.Warningf("%s: command rejected: %v", cmd.pipe.Name, err)
			reply = msgs.NewCommandErr(err)
		}
		errs.Add(cmd.pipe.SendReply(reply, cmd.seq))
	}
	return errs.Aggregate()
}

func (b *Bridge) apply(msg fx.Message) error {
	switch m := msg.(type) {
	case *msgs.Outputs:
		return b.applyOutputs(m)
	case *msgs.RegisterRequest:
		return b.applyRegisterRequest(m)
	default:
		return msgs.ErrUnsupportedCommand
	}
}

func (b *Bridge) applyOutputs(m *msgs.Outputs) error {
	if err := validateOutputs(m); err != nil {
		return err
	}
	tx := b.Engine.Tx()
	for ch := 1; ch <= 4; ch++ {
		if bit := uint32(1) << uint(ch-1); m.DoutMask&bit != 0 {
			tx.SetDOut(ch, m.Dout&bit != 0)
		}
	}
	for ch := 1; ch <= 8; ch++ {
		if bit := uint32(1) << uint(ch-1); m.LedMask&bit != 0 {
			tx.SetLED(ch, m.Led&bit != 0)
		}
	}
	for n := range tx.AOut {
		if m.AoutMask&(1<<uint(n)) != 0 {
			tx.AOut[n] = uint16(m.Aout[n])
		}
	}
	if m.PwmMask&1 != 0 {
		tx.PWM1Div = uint16(m.Pwm1Div)
		for n, duty := range m.Pwm1Duty {
			tx.PWM1Duty[n] = uint16(duty)
		}
	}
	if m.PwmMask&2 != 0 {
		tx.PWM2Div = uint16(m.Pwm2Div)
		tx.PWM2Duty = uint16(m.Pwm2Duty)
	}
	return nil
}

func validateOutputs(m *msgs.Outputs) error {
	if m.DoutMask > 0x0F {
		return fmt.Errorf("invalid dout mask 0x%x", m.DoutMask)
	}
	if m.LedMask > 0xFF {
		return fmt.Errorf("invalid led mask 0x%x", m.LedMask)
	}
	if m.AoutMask > 0x03 {
		return fmt.Errorf("invalid aout mask 0x%x", m.AoutMask)
	}
	for n := 0; n < 2; n++ {
		if m.AoutMask&(1<<uint(n)) == 0 {
			continue
		}
		if n >= len(m.Aout) {
			return fmt.Errorf("aout%d selected but not set", n+1)
		}
		if m.Aout[n] > 4095 {
			return fmt.Errorf("aout%d out of range: %d", n+1, m.Aout[n])
		}
	}
	if m.PwmMask > 0x03 {
		return fmt.Errorf("invalid pwm mask 0x%x", m.PwmMask)
	}
	if len(m.Pwm1Duty) > 3 {
		return fmt.Errorf("too many pwm1 channels: %d", len(m.Pwm1Duty))
	}
	for _, val := range append([]uint32{m.Pwm1Div, m.Pwm2Div, m.Pwm2Duty}, m.Pwm1Duty...) {
		if val > 0xFFFF {
			return fmt.Errorf("pwm value out of range: %d", val)
		}
	}
	return nil
}

func (b *Bridge) applyRegisterRequest(m *msgs.RegisterRequest) error {
	if m.Address > MaxAddress {
		return fmt.Errorf("invalid register address 0x%x", m.Address)
	}
	if m.Value > 0xFFFF {
		return fmt.Errorf("register value out of range: %d", m.Value)
	}
	addr, value := uint16(m.Address), uint16(m.Value)
	if item := b.Engine.Find(addr, m.Write); item != nil {
		if m.Write {
			item.RequestWrite(value)
		} else {
			item.Request()
		}
		// the next completion is reported even if the value is unchanged
		delete(b.reported, item)
		return nil
	}
	if m.Write {
		return b.Engine.Add(monarco.WriteItem(addr, value))
	}
	return b.Engine.Add(monarco.ReadItem(addr))
}

func (b *Bridge) postProc(cc fx.ControlContext) error {
	var events []fx.Message
	if every := b.PublishEvery; every > 0 && cc.Tick()%every == 0 {
		events = append(events, b.inputs())
	}
	for _, item := range b.Engine.Items() {
		snapshot := itemSnapshot{done: item.Done(), value: item.Value, errored: item.Errored()}
		last := b.reported[item]
		b.reported[item] = snapshot
		if snapshot.done && (!last.done || snapshot != last) {
			events = append(events, &msgs.RegisterState{
				Address: uint32(item.Address),
				Write:   item.Write,
				Value:   uint32(item.Value),
				Error:   item.Errored(),
			})
		}
	}
	cc.TakeMessages(func(msg fx.Message) bool {
		if block, ok := msg.(*msgs.FieldbusBlock); ok {
			events = append(events, block)
			return true
		}
		return false
	})
	return b.publish(events...)
}

func (b *Bridge) inputs() *msgs.Inputs {
	rx := b.Engine.Rx()
	in := &msgs.Inputs{
		Din:      uint32(rx.DIn),
		Counters: []uint32{rx.Counter[0], rx.Counter[1], rx.Counter[2]},
		Ain:      []uint32{uint32(rx.AIn[0]), uint32(rx.AIn[1])},
		Status:   uint32(rx.Status.Byte()),
	}
	if b.Driver != nil {
		stats := b.Driver.Stats()
		in.Cycles = stats.Cycles
		in.ChecksumErrors = stats.ChecksumErrors
		in.TransportErrors = stats.TransportErrors
	}
	return in
}

func (b *Bridge) publish(events ...fx.Message) error {
	if len(events) == 0 {
		return nil
	}
	links := b.Links()
	var errs fx.AggregatedError
	for _, msg := range events {
		for _, pipe := range links {
			if err := pipe.SendMsg(msg); err != nil {
				errs.Add(fmt.Errorf("%s: %w", pipe.Name, err))
			}
		}
	}
	return errs.Aggregate()
}
