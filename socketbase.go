// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// SocketPattern is implemented once per SocketType (req, rep, pub, sub,
// router, dealer, ...) and holds whatever bookkeeping that pattern needs
// beyond the generic pipe set SocketBase already tracks: REQ/REP's
// request/reply FSM, PUB's subscription Trie per pipe, ROUTER's identity
// routing table. SocketBase calls into it rather than switching on
// SocketType itself, the same separation libzmq draws between
// socket_base_t and its per-type subclasses.
type SocketPattern interface {
	XAttachPipe(pipe *Pipe, subscribe bool)
	XReadActivated(pipe *Pipe)
	XWriteActivated(pipe *Pipe)
	XTerminated(pipe *Pipe)
	XSend(sb *SocketBase, msg Msg) error
	XRecv(sb *SocketBase) (Msg, error)
	XHasIn() bool
	XHasOut() bool
}

// SocketBase is the generic half of every socket: pipe bookkeeping,
// option storage, mailbox-driven command dispatch and the blocking
// Send/Recv contract. The type-specific half is SocketPattern.
type SocketBase struct {
	id       uint32
	ctx      *Context
	ioThread *IOThread
	typ      SocketType
	pattern  SocketPattern

	mu     sync.Mutex
	pipes  map[*Pipe]bool
	closed bool

	opts socketOptions

	sendReady chan struct{}
	recvReady chan struct{}

	mailbox *Mailbox
	reaped  chan struct{}
}

func newSocketBase(ctx *Context, id uint32, typ SocketType, io *IOThread, pattern SocketPattern, opts ...Option) *SocketBase {
	sb := &SocketBase{
		id:        id,
		ctx:       ctx,
		ioThread:  io,
		typ:       typ,
		pattern:   pattern,
		pipes:     make(map[*Pipe]bool),
		opts:      defaultSocketOptions(),
		sendReady: make(chan struct{}, 1),
		recvReady: make(chan struct{}, 1),
		mailbox:   NewMailbox(),
		reaped:    make(chan struct{}),
	}
	_ = opts
	return sb
}

// ID returns the socket's context-scoped identity, used as Command.Dest.
func (sb *SocketBase) ID() uint32 { return sb.id }

// Type returns the socket's pattern type.
func (sb *SocketBase) Type() SocketType { return sb.typ }

// Options returns a copy of the socket's current option set.
func (sb *SocketBase) Options() socketOptions {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.opts
}

// AttachPipe registers p with this socket and notifies the pattern. It
// is called by socket.addConn once a Conn's ZMTP handshake with a peer
// has completed and a Pipe has been spliced in on this socket's side.
func (sb *SocketBase) AttachPipe(p *Pipe, subscribe bool) {
	sb.mu.Lock()
	sb.pipes[p] = true
	sb.mu.Unlock()
	sb.pattern.XAttachPipe(p, subscribe)
	sb.wake(sb.sendReady)
	sb.wake(sb.recvReady)
}

func (sb *SocketBase) wake(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Dispatch handles Commands addressed to this socket: pipe activation
// from the I/O thread, and the termination handshake driven by the
// Reaper.
func (sb *SocketBase) Dispatch(cmd Command) {
	switch cmd.Type {
	case CmdActivateRead:
		sb.pattern.XReadActivated(cmd.Pipe)
		sb.wake(sb.recvReady)
	case CmdActivateWrite:
		if cmd.Pipe != nil {
			cmd.Pipe.Grant(cmd.ReadCount)
		}
		sb.pattern.XWriteActivated(cmd.Pipe)
		sb.wake(sb.sendReady)
	case CmdPipeTerm, CmdPipeCompleteTerm:
		sb.mu.Lock()
		delete(sb.pipes, cmd.Pipe)
		sb.mu.Unlock()
		sb.pattern.XTerminated(cmd.Pipe)
		sb.wake(sb.sendReady)
		sb.wake(sb.recvReady)
	case CmdTermReq:
		sb.terminatePipes()
	}
}

func (sb *SocketBase) terminatePipes() {
	sb.mu.Lock()
	if sb.closed {
		sb.mu.Unlock()
		return
	}
	sb.closed = true
	pipes := make([]*Pipe, 0, len(sb.pipes))
	for p := range sb.pipes {
		pipes = append(pipes, p)
	}
	sb.mu.Unlock()

	for _, p := range pipes {
		p.Terminate(true)
	}
	if sb.ctx != nil && sb.ctx.reaper != nil {
		sb.ctx.reaper.mailbox.Send(Command{Type: CmdReaped, Dest: sb.id})
	}
	close(sb.reaped)
}

// Send blocks until the pattern accepts msg, the socket's send timeout
// elapses (timeout < 0 waits forever), or the socket is closed.
func (sb *SocketBase) Send(msg Msg, timeout time.Duration) error {
	var deadline <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		sb.mu.Lock()
		closed := sb.closed
		sb.mu.Unlock()
		if closed {
			return ErrClosed
		}

		err := sb.pattern.XSend(sb, msg)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrAgain) {
			return err
		}

		select {
		case <-sb.sendReady:
			continue
		case <-deadline:
			return ErrAgain
		}
	}
}

// Recv blocks until the pattern produces a Msg, the socket's receive
// timeout elapses, or the socket is closed.
func (sb *SocketBase) Recv(timeout time.Duration) (Msg, error) {
	var deadline <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		sb.mu.Lock()
		closed := sb.closed
		sb.mu.Unlock()

		msg, err := sb.pattern.XRecv(sb)
		if err == nil {
			return msg, nil
		}
		if !errors.Is(err, ErrAgain) {
			return Msg{}, err
		}
		if closed {
			return Msg{}, ErrClosed
		}

		select {
		case <-sb.recvReady:
			continue
		case <-deadline:
			return Msg{}, ErrAgain
		}
	}
}

// Close begins the termination handshake for this socket and removes it
// from its Context. Close is idempotent.
func (sb *SocketBase) Close() error {
	sb.mu.Lock()
	already := sb.closed
	sb.mu.Unlock()
	sb.terminatePipes()
	if sb.ctx != nil {
		sb.ctx.removeSocket(sb.id)
	}
	if sb.ioThread != nil && !already {
		sb.ioThread.adjustLoad(-1)
	}
	return nil
}

// Pipes returns a snapshot of the currently attached pipes.
func (sb *SocketBase) Pipes() []*Pipe {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	out := make([]*Pipe, 0, len(sb.pipes))
	for p := range sb.pipes {
		out = append(out, p)
	}
	return out
}
