// Package rendezvous waits for the launched server to connect back to the
// host's listener.
//
// Exactly one connection is accepted per rendezvous. The wait ends when that
// connection arrives, when the server process exits, when the connect
// timeout elapses, or when the caller cancels, whichever happens first. The
// listener is always closed before Wait returns.
package rendezvous
