// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import "sync/atomic"

// IOThread is the Go-goroutine stand-in for libzmq's epoll-driven I/O
// thread: Sessions and Engines are assigned to one, and it is the
// CommandTarget they address reconnect timers and plug/attach commands
// through. It does not itself multiplex file descriptors — each Engine's
// Conn already runs its own read/write goroutines (net.Conn blocks
// happily on its own stack), so the thread's job is purely command
// dispatch and bookkeeping, not readiness polling.
type IOThread struct {
	id      uint32
	mailbox *Mailbox
	load    atomic.Int64 // number of sockets currently assigned, for least-loaded balancing
}

func newIOThread(id uint32) *IOThread {
	return &IOThread{id: id, mailbox: NewMailbox()}
}

// Start runs the thread's command dispatch loop until its mailbox is
// closed.
func (t *IOThread) Start() {
	go t.loop()
}

func (t *IOThread) loop() {
	for {
		cmd, err := t.mailbox.Recv(-1)
		if err != nil {
			return
		}
		if cmd.Target != nil {
			cmd.Target.Dispatch(cmd)
		}
	}
}

// Mailbox returns the thread's command inbox.
func (t *IOThread) Mailbox() *Mailbox { return t.mailbox }

// ID returns the thread's identity, used as Command.Dest.
func (t *IOThread) ID() uint32 { return t.id }

// Load reports how many sockets are currently assigned to this thread,
// the metric Context.chooseIOThread balances across threads on.
func (t *IOThread) Load() int64 { return t.load.Load() }

func (t *IOThread) adjustLoad(delta int64) { t.load.Add(delta) }

// Stop closes the thread's mailbox, unblocking its dispatch loop.
func (t *IOThread) Stop() { t.mailbox.Close() }

// Dispatch handles commands addressed to the IOThread itself (as opposed
// to ones merely routed through it to a Session/Engine).
func (t *IOThread) Dispatch(cmd Command) {
	if cmd.Type == CmdStop {
		t.mailbox.Close()
	}
}
