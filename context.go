// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import "sync"

// Context owns a pool of I/O threads, a Reaper and the context-wide
// socket id counter. Socket construction and the I/O thread pool are
// both lazily started on first use. inproc:// endpoints are resolved
// by the inproc transport's own listener registry, not by Context.
type Context struct {
	mu sync.Mutex

	sockets      map[uint32]*SocketBase
	nextSocketID uint32
	maxSockets   int

	ioThreads     []*IOThread
	ioThreadCount int
	reaper        *Reaper
	started       bool
	terminating   bool
}

// CtxOption configures a Context at construction time.
type CtxOption func(*Context)

// WithIOThreads sets the size of the Context's I/O thread pool. The
// default is 1.
func WithIOThreads(n int) CtxOption {
	return func(c *Context) {
		if n > 0 {
			c.ioThreadCount = n
		}
	}
}

// WithMaxSockets bounds how many sockets the Context will allow open at
// once. The default is 1024, matching libzmq's ZMQ_MAX_SOCKETS default.
func WithMaxSockets(n int) CtxOption {
	return func(c *Context) {
		if n > 0 {
			c.maxSockets = n
		}
	}
}

// NewContext returns a Context ready for socket creation. Its I/O
// threads and Reaper do not start until the first socket is created.
func NewContext(opts ...CtxOption) *Context {
	c := &Context{
		sockets:       make(map[uint32]*SocketBase),
		maxSockets:    1024,
		ioThreadCount: 1,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Context) lazyStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	for i := 0; i < c.ioThreadCount; i++ {
		t := newIOThread(uint32(i + 1))
		t.Start()
		c.ioThreads = append(c.ioThreads, t)
	}
	c.reaper = newReaper()
	c.reaper.Start()
}

// chooseIOThread returns the least-loaded I/O thread, the same
// least-connections balancing libzmq's thread_id choose uses.
func (c *Context) chooseIOThread() *IOThread {
	c.mu.Lock()
	defer c.mu.Unlock()
	best := c.ioThreads[0]
	for _, t := range c.ioThreads[1:] {
		if t.Load() < best.Load() {
			best = t
		}
	}
	return best
}

// NewSocket creates a socket of the given type bound to this Context.
func (c *Context) NewSocket(typ SocketType, opts ...Option) (*SocketBase, error) {
	c.lazyStart()

	c.mu.Lock()
	if len(c.sockets) >= c.maxSockets {
		c.mu.Unlock()
		return nil, ErrTooManyOpenSockets
	}
	c.nextSocketID++
	id := c.nextSocketID
	c.mu.Unlock()

	io := c.chooseIOThread()
	pattern := newSocketPattern(typ)
	sb := newSocketBase(c, id, typ, io, pattern, opts...)
	io.adjustLoad(1)

	c.mu.Lock()
	c.sockets[id] = sb
	c.mu.Unlock()
	return sb, nil
}

func (c *Context) removeSocket(id uint32) {
	c.mu.Lock()
	delete(c.sockets, id)
	c.mu.Unlock()
}

// Terminate closes every socket still open on this Context and blocks
// until the Reaper has finished finalizing all of them. Terminate is
// idempotent.
func (c *Context) Terminate() error {
	c.mu.Lock()
	if c.terminating {
		c.mu.Unlock()
		return nil
	}
	c.terminating = true
	sockets := make([]*SocketBase, 0, len(c.sockets))
	for _, sb := range c.sockets {
		sockets = append(sockets, sb)
	}
	reaper := c.reaper
	threads := append([]*IOThread(nil), c.ioThreads...)
	c.mu.Unlock()

	if reaper == nil {
		return nil
	}
	for _, sb := range sockets {
		reaper.mailbox.Send(Command{Type: CmdReap, Dest: sb.id, Target: sb})
	}
	reaper.Wait()
	reaper.Stop()
	for _, t := range threads {
		t.Stop()
	}
	return nil
}
