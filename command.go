// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

// CommandType tags the 16 kinds of control message ZObjects exchange
// across mailboxes. Cross-thread state mutation only ever happens through
// a Command: sockets, pipes, sessions and I/O threads never touch each
// other's fields directly.
type CommandType int

const (
	CmdStop CommandType = iota
	CmdPlug
	CmdOwn
	CmdAttach
	CmdBind
	CmdActivateRead
	CmdActivateWrite
	CmdPipeTerm
	CmdPipeTermAck
	CmdPipeCompleteTerm
	CmdTermReq
	CmdTermAck
	CmdReap
	CmdReaped
	CmdInprocConnected
	CmdDone
)

func (t CommandType) String() string {
	switch t {
	case CmdStop:
		return "stop"
	case CmdPlug:
		return "plug"
	case CmdOwn:
		return "own"
	case CmdAttach:
		return "attach"
	case CmdBind:
		return "bind"
	case CmdActivateRead:
		return "activate-read"
	case CmdActivateWrite:
		return "activate-write"
	case CmdPipeTerm:
		return "pipe-term"
	case CmdPipeTermAck:
		return "pipe-term-ack"
	case CmdPipeCompleteTerm:
		return "pipe-complete-term"
	case CmdTermReq:
		return "term-req"
	case CmdTermAck:
		return "term-ack"
	case CmdReap:
		return "reap"
	case CmdReaped:
		return "reaped"
	case CmdInprocConnected:
		return "inproc-connected"
	case CmdDone:
		return "done"
	default:
		return "unknown"
	}
}

// CommandTarget is implemented by every object addressable by a Command:
// SocketBase, IOThread, Reaper. Dispatch is invoked by the receiving
// thread's drain loop once a Command has been popped off its Mailbox.
type CommandTarget interface {
	Dispatch(cmd Command)
}

// Command is a small tagged variant: a destination thread id, the target
// object to invoke, a Type discriminant, and a handful of typed optional
// payload fields (only the ones relevant to Type are populated). Modeling
// it this way — rather than a hierarchy of virtual overrides — keeps
// dispatch an exhaustive switch instead of a base-class table.
type Command struct {
	Dest   uint32
	Target CommandTarget
	Type   CommandType

	Pipe      *Pipe
	NewPipe   *YPipe[Frame]
	IOThread  *IOThread
	Endpoint  string
	ReadCount uint64
	Delay     bool
}
