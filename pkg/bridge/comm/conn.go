package comm

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/robotalks/monarco.go/pkg/bridge/msgs"
	fx "github.com/robotalks/monarco.go/pkg/framework"
)

// DefaultCommandExpiration is the default expiration expecting a result.
const DefaultCommandExpiration = 1 * time.Second

// Result is the reply of a command.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture delivers the Result of a command exactly once.
type CommandFuture interface {
	ResultChan() <-chan Result
}

// Conn is the client side of a Pipe. Commands are matched with replies by
// sequence number, events are posted to the loop.
type Conn struct {
	Expiration time.Duration

	pipe     Pipe
	seq      uint32
	commands list.List
	seqMap   map[uint32]*commandFuture
	lock     sync.Mutex
}

// NewConn creates a Conn over rw.
func NewConn(name string, rw PacketReadWriter) *Conn {
	c := &Conn{
		Expiration: DefaultCommandExpiration,
		pipe:       Pipe{Name: name, ReadWriter: rw},
		seqMap:     make(map[uint32]*commandFuture),
	}
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
	return c
}

// DoCommand sends a command and returns the future of its reply.
func (c *Conn) DoCommand(msg fx.Message) CommandFuture {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.seq++
	if c.seq == 0 {
		c.seq++
	}
	f := &commandFuture{
		seq:      c.seq,
		expireAt: time.Now().Add(c.Expiration),
		result:   make(chan Result, 1),
	}
	if err := c.pipe.SendCommand(msg, f.seq); err != nil {
		f.result <- Result{Err: err}
		close(f.result)
		return f
	}
	f.elem = c.commands.PushBack(f)
	c.seqMap[f.seq] = f
	return f
}

// AddToLoop implements LoopAdder.
func (c *Conn) AddToLoop(l *fx.Loop) {
	l.Add(&c.pipe)
	l.AddController(fx.PrLvIdle, fx.ControlFunc(c.purgeExpired))
}

func (c *Conn) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		fx.LoopCtlFrom(ctx).PostMessage(msg)
		return nil
	}
	c.resolve(typed.Sequence, msg)
	return nil
}

func (c *Conn) resolve(seq uint32, msg fx.Message) {
	c.lock.Lock()
	defer c.lock.Unlock()
	f := c.seqMap[seq]
	if f == nil {
		return
	}
	c.commands.Remove(f.elem)
	delete(c.seqMap, seq)
	result := Result{Msg: msg}
	if cmdErr, ok := msg.(*msgs.CommandErr); ok {
		result.Err = cmdErr
	}
	f.result <- result
	close(f.result)
}

func (c *Conn) purgeExpired(cc fx.ControlContext) error {
	now := cc.Time()
	c.lock.Lock()
	defer c.lock.Unlock()
	for c.commands.Len() > 0 {
		elem := c.commands.Front()
		f := elem.Value.(*commandFuture)
		if f.expireAt.After(now) {
			break
		}
		c.commands.Remove(elem)
		delete(c.seqMap, f.seq)
		f.result <- Result{Err: context.DeadlineExceeded}
		close(f.result)
	}
	return nil
}

type commandFuture struct {
	seq      uint32
	expireAt time.Time
	elem     *list.Element
	result   chan Result
}

func (f *commandFuture) ResultChan() <-chan Result {
	return f.result
}
