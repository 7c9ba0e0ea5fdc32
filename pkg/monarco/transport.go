package monarco

import "io"

// Transport performs one full-duplex exchange of a frame: tx is clocked out
// while rx is filled with the same number of bytes.
type Transport interface {
	Exchange(tx, rx []byte) error
	io.Closer
}
