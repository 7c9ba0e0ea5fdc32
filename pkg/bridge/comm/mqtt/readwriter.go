package mqtt

import (
	"context"
	"io"
	"sync"
)

// Topic suffixes under a device ID.
const (
	CommandTopic = "cmd"
	MessageTopic = "msg"
	StatusTopic  = "status"
)

// ReadWriter implements comm.PacketReadWriter over a pair of topics.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh  chan []byte
	ready     chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		packetCh: make(chan []byte, 16),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForDevice sets topics for the daemon side: commands are received on
// id/cmd and messages are published to id/msg.
func (p *ReadWriter) ForDevice(id string) *ReadWriter {
	return p.WithTopics(id+"/"+CommandTopic, id+"/"+MessageTopic)
}

// ForClient sets topics for the client side talking to device id.
func (p *ReadWriter) ForClient(id string) *ReadWriter {
	return p.WithTopics(id+"/"+MessageTopic, id+"/"+CommandTopic)
}

// Ready is closed once the subscription is established.
func (p *ReadWriter) Ready() <-chan struct{} {
	return p.ready
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, Handler(p.handleMsg))
	defer sub.Close()
	if sub.Token.Wait() && sub.Token.Error() != nil {
		p.Close()
		return sub.Token.Error()
	}
	close(p.ready)
	select {
	case <-ctx.Done():
		p.Close()
		return ctx.Err()
	case <-p.done:
		return nil
	}
}

// Close implements io.Closer. Pending and future ReadPacket calls return
// io.EOF.
func (p *ReadWriter) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.done:
	}
}
