package monarco

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady indicates the transport is not open.
	ErrNotReady = errors.New("SPI not open")
	// ErrChecksum indicates the inbound frame failed checksum validation.
	ErrChecksum = errors.New("invalid RX CRC")
	// ErrTableFull indicates the service register table reached MaxItems.
	ErrTableFull = errors.New("SDC table full")
)

// TransportError wraps a failed full-duplex exchange.
type TransportError struct {
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("SPI transfer failed: %v", e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// RegisterError is the error code reported by the peripheral for a register.
type RegisterError struct {
	Address uint16
	Code    uint16
}

// Error implements error.
func (e *RegisterError) Error() string {
	return fmt.Sprintf("SDC register 0x%03X error 0x%04X", e.Address, e.Code)
}
