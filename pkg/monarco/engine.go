package monarco

import "math"

// Engine is the protocol context of one HAT: the transport, the current
// outbound and last validated inbound frames and the service register table.
type Engine struct {
	// RearmOnTimeout abandons an item reaching ItemTimeoutCycles and arms it
	// again. By default a timed out item stays in flight forever and blocks
	// the service channel.
	RearmOnTimeout bool

	transport Transport
	log       Logger

	tx TxFrame
	rx RxFrame

	txBuf Frame

	items  []*Item
	cursor int

	crcErrors int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostics sink.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithRearmOnTimeout sets RearmOnTimeout.
func WithRearmOnTimeout(en bool) Option {
	return func(e *Engine) {
		e.RearmOnTimeout = en
	}
}

// New creates an Engine with zeroed frames and an empty table. A nil
// transport leaves the engine not ready.
func New(t Transport, opts ...Option) *Engine {
	e := &Engine{transport: t}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = NewGlogLogger("")
	}
	return e
}

// Ready reports whether a transport is open.
func (e *Engine) Ready() bool {
	return e.transport != nil
}

// Close releases the transport. Later cycles fail with ErrNotReady.
func (e *Engine) Close() error {
	if e.transport == nil {
		return nil
	}
	err := e.transport.Close()
	e.transport = nil
	e.log.Verbosef("transport closed")
	return err
}

// Add appends items to the service register table.
func (e *Engine) Add(items ...*Item) error {
	if len(e.items)+len(items) > MaxItems {
		return ErrTableFull
	}
	e.items = append(e.items, items...)
	return nil
}

// Items returns the table. Items may be modified through their methods
// between cycles.
func (e *Engine) Items() []*Item {
	return e.items
}

// Find returns the first item matching addr and direction, nil if none.
func (e *Engine) Find(addr uint16, write bool) *Item {
	for _, item := range e.items {
		if item.Address == addr && item.Write == write {
			return item
		}
	}
	return nil
}

// Cursor returns the index of the item owning the service channel.
func (e *Engine) Cursor() int {
	return e.cursor
}

// AllDone reports whether every item of the table has completed at least
// once since it was last requested.
func (e *Engine) AllDone() bool {
	for _, item := range e.items {
		if !item.done {
			return false
		}
	}
	return true
}

// Tx returns the outbound frame. The caller sets process outputs on it
// between cycles; the SDC sub-frame and checksum are owned by the Engine.
func (e *Engine) Tx() *TxFrame {
	return &e.tx
}

// Rx returns the last inbound frame which passed checksum validation.
func (e *Engine) Rx() RxFrame {
	return e.rx
}

// ChecksumErrors returns the number of consecutive inbound frames rejected
// since the last valid one.
func (e *Engine) ChecksumErrors() int {
	return e.crcErrors
}

// Cycle performs one protocol transaction: schedule a service request,
// exchange frames and commit the inbound frame if it is valid.
//
// It returns ErrNotReady if no transport is open, *TransportError if the
// exchange failed and ErrChecksum if the inbound frame was rejected. In all
// error cases the last committed inbound frame is kept.
func (e *Engine) Cycle() error {
	if e.transport == nil {
		e.log.Errorf("SPI not open")
		return ErrNotReady
	}

	e.dispatchSDC()
	e.tx.Encode(&e.txBuf)

	var rxBuf Frame
	if err := e.transport.Exchange(e.txBuf[:], rxBuf[:]); err != nil {
		e.log.Errorf("Failed to send SPI message: %v", err)
		return &TransportError{Err: err}
	}

	if !rxBuf.ValidChecksum() {
		if e.crcErrors == 0 {
			e.log.Errorf("Invalid RX CRC")
		}
		if e.crcErrors < math.MaxInt32 {
			e.crcErrors++
		}
		return ErrChecksum
	}
	if e.crcErrors > 0 {
		e.log.Errorf("Invalid RX CRC (%d times)", e.crcErrors)
		e.crcErrors = 0
	}

	e.rx.Decode(&rxBuf)
	e.matchSDC()
	return nil
}
