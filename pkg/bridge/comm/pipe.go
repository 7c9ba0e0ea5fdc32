package comm

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/monarco.go/pkg/bridge/msgs"
	fx "github.com/robotalks/monarco.go/pkg/framework"
)

// Pipe is a bi-directional pipe for Typed messages over a link.
type Pipe struct {
	Name       string
	ReadWriter PacketReadWriter
	Handler    msgs.TypedMsgHandler

	sendLock sync.Mutex
}

// NewPipe creates a Pipe with given PacketReadWriter.
func NewPipe(name string, rw PacketReadWriter) *Pipe {
	return &Pipe{Name: name, ReadWriter: rw}
}

// SendReply sends a reply for the command carrying seq.
func (p *Pipe) SendReply(msg fx.Message, seq uint32) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	typed.Sequence = seq
	return p.SendTyped(typed)
}

// SendCommand sends a command tagged with seq.
func (p *Pipe) SendCommand(msg fx.Message, seq uint32) error {
	return p.SendReply(msg, seq)
}

// SendMsg sends a message.
func (p *Pipe) SendMsg(msg fx.Message) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	return p.SendTyped(typed)
}

// SendTyped sends a Typed message.
func (p *Pipe) SendTyped(typed *msgs.Typed) error {
	pkt, err := typed.Encode()
	if err != nil {
		return err
	}
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	return p.ReadWriter.WritePacket(pkt)
}

// Run implements Runnable. It reads packets until the link fails.
// Undecodable commands are answered with CommandErr, other undecodable
// packets are dropped.
func (p *Pipe) Run(ctx context.Context) error {
	return fx.RunWithContextCloser(ctx, p, func() error {
		for {
			pkt, err := p.ReadWriter.ReadPacket()
			if err != nil {
				return err
			}
			typed, err := msgs.DecodeTyped(pkt)
			if err != nil {
				glog.Warningf("%s: bad packet: %v", p.Name, err)
				continue
			}
			msg, err := typed.Decode()
			if err != nil {
				if typed.IsCommand() && !typed.IsReply() {
					if err = p.SendReply(msgs.NewCommandErr(err), typed.Sequence); err != nil {
						return err
					}
				}
				continue
			}
			if h := p.Handler; h != nil {
				if err = h.HandleTypedMsg(ctx, msg, typed); err != nil {
					return err
				}
			}
		}
	})
}

// Close implements io.Closer.
func (p *Pipe) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (p *Pipe) AddToLoop(loop *fx.Loop) {
	if adder, ok := p.ReadWriter.(fx.LoopAdder); ok {
		loop.Add(adder)
	} else if runnable, ok := p.ReadWriter.(fx.Runnable); ok {
		loop.AddRunnable(runnable)
	}
	loop.AddRunnable(fx.NamedRun(p.Name, p))
}
