package monarco

import (
	"fmt"
	"math"
)

// MaxItems is the capacity of the service register table.
const MaxItems = 256

// ItemTimeoutCycles is the busy count at which an outstanding request is
// reported as timed out.
const ItemTimeoutCycles = 10

const maxBusy = math.MaxInt32

// ItemState is the lifecycle state of an Item.
type ItemState int

// Item states.
const (
	// ItemIdle has nothing to send: a one-shot item never requested, or a
	// completed result already cleared by the caller.
	ItemIdle ItemState = iota
	// ItemRequested is armed and waits for its turn at the cursor.
	ItemRequested
	// ItemInFlight has been placed on the wire and waits for a matching
	// response.
	ItemInFlight
	// ItemCompleted has a result which is kept until ClearDone or Request.
	ItemCompleted
)

var itemStateNames = [...]string{"idle", "requested", "in-flight", "completed"}

// String implements fmt.Stringer.
func (s ItemState) String() string {
	if s >= 0 && int(s) < len(itemStateNames) {
		return itemStateNames[s]
	}
	return fmt.Sprintf("ItemState(%d)", int(s))
}

// Item is one entry of the service register table.
//
// Address, Write, Factor and Counter are configured by the caller before the
// item is added. For writes Value holds the value to write; after completion
// it holds the value reported by the peripheral.
type Item struct {
	Address uint16
	Value   uint16
	Write   bool
	// Factor > 0 makes the item periodic: it is eligible every time the
	// cursor reaches it.
	Factor int
	// Counter is reserved for rate division of periodic items and is not
	// used by the scheduler.
	Counter int

	busy      int
	requested bool
	done      bool
	errored   bool

	// a write value requested while the previous write is in flight.
	pending    uint16
	hasPending bool
}

// ReadItem creates a one-shot read of addr, armed for the first cycles.
func ReadItem(addr uint16) *Item {
	return &Item{Address: addr, requested: true}
}

// WriteItem creates a one-shot write of value to addr, armed for the first
// cycles.
func WriteItem(addr, value uint16) *Item {
	return &Item{Address: addr, Value: value, Write: true, requested: true}
}

// PeriodicItem creates a read of addr which is repeated forever.
func PeriodicItem(addr uint16) *Item {
	return &Item{Address: addr, Factor: 1}
}

// State derives the lifecycle state.
func (i *Item) State() ItemState {
	switch {
	case i.busy > 0:
		return ItemInFlight
	case i.requested:
		return ItemRequested
	case i.done:
		return ItemCompleted
	default:
		return ItemIdle
	}
}

// Request arms a one-shot transaction and clears a previous completion.
func (i *Item) Request() {
	i.requested = true
	i.done = false
}

// RequestWrite sets the value to write and arms the item. While a write is
// in flight Value keeps the value on the wire and the new one is sent by the
// next dispatch.
func (i *Item) RequestWrite(value uint16) {
	if i.busy > 0 {
		i.pending, i.hasPending = value, true
	} else {
		i.Value, i.hasPending = value, false
	}
	i.Request()
}

// ClearDone acknowledges the completion.
func (i *Item) ClearDone() {
	i.done = false
}

// Busy returns the number of cycles the item has been in flight, 0 if not.
func (i *Item) Busy() int {
	return i.busy
}

// Requested reports whether a one-shot transaction is armed.
func (i *Item) Requested() bool {
	return i.requested
}

// Done reports whether a result is available.
func (i *Item) Done() bool {
	return i.done
}

// Errored reports whether the last result carried the error flag. The error
// code is in Value.
func (i *Item) Errored() bool {
	return i.errored
}

// Err returns the last reported error as *RegisterError, nil if none.
func (i *Item) Err() error {
	if !i.errored {
		return nil
	}
	return &RegisterError{Address: i.Address, Code: i.Value}
}

func (i *Item) eligible() bool {
	return i.Factor > 0 || i.requested
}

func (i *Item) dispatch() SDCFrame {
	if i.hasPending {
		// supersedes the completion of the previous write
		i.Value, i.hasPending = i.pending, false
		i.done, i.errored = false, false
	}
	i.busy = 1
	i.requested = false
	return SDCFrame{Value: i.Value, Address: i.Address, Write: i.Write}
}

// tick increments the busy count, saturating, and reports whether the
// timeout threshold has just been reached.
func (i *Item) tick() bool {
	if i.busy < maxBusy {
		i.busy++
	}
	return i.busy == ItemTimeoutCycles
}

func (i *Item) complete(resp SDCFrame) {
	i.busy = 0
	i.done = true
	i.Value = resp.Value
	i.errored = resp.Error
}

// rearm abandons the outstanding request and arms it again.
func (i *Item) rearm() {
	i.busy = 0
	i.requested = true
}

func (i *Item) kind() byte {
	if i.Write {
		return 'W'
	}
	return 'R'
}
