// Package monarco implements the host side of the Monarco HAT cyclic SPI
// protocol.
//
// Every cycle the host sends one fixed-size outbound frame (process outputs
// plus one service-register request) and receives one inbound frame of the
// same size (process inputs plus one service-register response). Both frames
// are protected by a CRC-16 trailer.
//
// Service registers (the SDC channel) are configured through a caller owned
// table of Items. The Engine piggybacks at most one outstanding request per
// cycle and matches the response to the item at the cursor. The Engine is not
// safe for concurrent use; it is meant to be driven by a single control loop.
package monarco
