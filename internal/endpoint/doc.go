// Package endpoint allocates the loopback listener an external server dials.
//
// The allocator binds either a fixed, well-known port or an OS-assigned
// ephemeral port and classifies bind failures into AllocationError kinds.
// The returned Listener is single-use: the rendezvous closes it as soon as
// the first connection is accepted.
package endpoint
