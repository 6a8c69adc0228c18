// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import "github.com/pkg/errors"

// Sentinel errors for the abstract error kinds a ZeroMQ-style socket API
// exposes to callers. Transport-level failures never reach the user
// directly: a failing connPump closes its Conn and the failure is
// absorbed into a pipe termination / reconnect cycle.
var (
	// ErrAgain is returned by a non-blocking Send/Recv when no progress
	// was possible; the operation is safe to retry.
	ErrAgain = errors.New("zmq4: resource temporarily unavailable")

	// ErrTerminating is returned once a socket's Context is shutting
	// down; the operation will never succeed again on this handle.
	ErrTerminating = errors.New("zmq4: context is terminating")

	// ErrHostUnreachable is returned by a ROUTER socket in mandatory
	// mode when a message cannot be routed to its destination identity.
	ErrHostUnreachable = errors.New("zmq4: host unreachable")

	// ErrFSM is returned when a pattern's finite state machine forbids
	// the requested operation (e.g. REQ calling Recv before Send).
	ErrFSM = errors.New("zmq4: operation not allowed in current state")

	// ErrAddressAlreadyInUse names the address-already-in-use error
	// kind. Listen does not return it: a bind to an endpoint that is
	// already bound fails with the transport's own error, wrapped.
	ErrAddressAlreadyInUse = errors.New("zmq4: address already in use")

	// ErrEndpointNotFound names the endpoint-not-found error kind. Dial
	// does not return it: a Dial to an inproc endpoint with no matching
	// Listen fails with the inproc transport's connection-refused
	// error, wrapped.
	ErrEndpointNotFound = errors.New("zmq4: endpoint not found")

	// ErrAddressInvalid is returned when an endpoint string cannot be
	// parsed.
	ErrAddressInvalid = errors.New("zmq4: invalid address")

	// ErrProtocolNotSupported is returned for a well-formed endpoint
	// whose protocol has no registered transport (e.g. pgm/epgm).
	ErrProtocolNotSupported = errors.New("zmq4: protocol not supported")

	// ErrTooManyOpenSockets is returned by Context.NewSocket once the
	// configured socket-table capacity is exhausted.
	ErrTooManyOpenSockets = errors.New("zmq4: too many open sockets")

	// ErrFault signals an internal invariant violation (a library bug)
	// or a failure of the underlying polling primitive.
	ErrFault = errors.New("zmq4: internal fault")

	// ErrBadProperty is returned by Get/SetOption for an unknown or
	// mistyped option name.
	ErrBadProperty = errors.New("zmq4: bad property")

	// ErrClosed is returned by operations on a socket that has already
	// been closed.
	ErrClosed = errors.New("zmq4: socket closed")
)
