// Package msgs defines the messages exchanged between the HAT daemon and its
// remote clients.
//
// Every message travels inside a Typed envelope. Commands flow from clients
// to the daemon, events flow from the daemon to clients.
package msgs
