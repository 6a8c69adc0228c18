// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import "sync"

// Reaper finalizes sockets asynchronously: Context.Terminate hands every
// still-open SocketBase to the Reaper via CmdReap and then blocks on
// Wait, rather than finalizing sockets itself, so that a socket with
// pipes still draining does not stall the thread that is trying to shut
// every other socket down at the same time.
type Reaper struct {
	mailbox *Mailbox

	mu      sync.Mutex
	pending map[uint32]bool
	doneCh  chan struct{}
}

func newReaper() *Reaper {
	return &Reaper{
		mailbox: NewMailbox(),
		pending: make(map[uint32]bool),
		doneCh:  make(chan struct{}, 1),
	}
}

// Start runs the reaper's command dispatch loop until its mailbox is
// closed.
func (r *Reaper) Start() {
	go r.loop()
}

func (r *Reaper) loop() {
	for {
		cmd, err := r.mailbox.Recv(-1)
		if err != nil {
			return
		}
		r.Dispatch(cmd)
	}
}

// Mailbox returns the reaper's command inbox.
func (r *Reaper) Mailbox() *Mailbox { return r.mailbox }

// Dispatch handles CmdReap (register a socket pending finalization) and
// CmdReaped (a socket has finished terminating its pipes and can be
// dropped from the pending set).
func (r *Reaper) Dispatch(cmd Command) {
	switch cmd.Type {
	case CmdReap:
		r.mu.Lock()
		r.pending[cmd.Dest] = true
		r.mu.Unlock()
		if cmd.Target != nil {
			cmd.Target.Dispatch(Command{Type: CmdTermReq, Dest: cmd.Dest})
		}
	case CmdReaped:
		r.mu.Lock()
		delete(r.pending, cmd.Dest)
		empty := len(r.pending) == 0
		r.mu.Unlock()
		if empty {
			select {
			case r.doneCh <- struct{}{}:
			default:
			}
		}
	}
}

// Wait blocks until every socket registered via CmdReap has reported
// CmdReaped. It is only meaningful to call once, from Context.Terminate.
func (r *Reaper) Wait() {
	r.mu.Lock()
	empty := len(r.pending) == 0
	r.mu.Unlock()
	if empty {
		return
	}
	<-r.doneCh
}

// Stop closes the reaper's mailbox, unblocking its dispatch loop.
func (r *Reaper) Stop() { r.mailbox.Close() }
