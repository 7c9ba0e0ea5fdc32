package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Message is posted to the loop and consumed by controllers in the next
// iteration.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller is invoked once per loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// ControlContext is the context of the current iteration.
type ControlContext interface {
	// Context retrieves context.Context.
	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	// Tick is the sequence number of the iteration, starting from 1.
	Tick() uint64
	// PriorityLevel gets the current priority level.
	PriorityLevel() int
	// TakeMessages passes the messages collected for this iteration to fn.
	// Messages for which fn returns true are removed; the others remain
	// visible to controllers at lower priorities and are dropped at the end
	// of the iteration.
	TakeMessages(fn func(Message) bool)

	LoopControl
}

// LoopControl exposes access to the controlling loop.
type LoopControl interface {
	// PostMessage enqueues the message for the next iteration. It is safe
	// to call from any goroutine.
	PostMessage(Message)
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 16

// Predefined priority levels, lower runs first.
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvSense is for reading inputs.
	PrLvSense = PrLvHigh
	// PrLvControl is for control logic updating outputs.
	PrLvControl = PrLvNormal
	// PrLvActuate is for pushing outputs to hardware.
	PrLvActuate = PrLvLow
	// PrLvPostProc is for publishing results.
	PrLvPostProc = PrLvIdle - 1
)
