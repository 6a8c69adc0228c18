// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package poller implements the user-facing reactor applications use to
// drive many zmq4 sockets, native file descriptors and timers from a
// single goroutine, the same role a libzmq zmq_poll loop plays. It sits
// on top of the zmq4 package's public Socket interface rather than its
// internals, the same layering proxy.go uses to build a broker on top of
// plain Sockets.
package poller

import (
	"container/heap"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zmq4eng/zmq4"
	"golang.org/x/sys/unix"
)

// SocketHandler is invoked on the Poller's own goroutine whenever a
// message arrives on a registered Socket, or the Socket fails. err is
// non-nil exactly when msg is the zero Msg.
type SocketHandler func(s zmq4.Socket, msg zmq4.Msg, err error)

// FDHandler is invoked on the Poller's own goroutine whenever a
// registered native file descriptor becomes readable.
type FDHandler func(fd int)

// TimerID identifies a timer registered with AddTimer, for later removal.
type TimerID int64

// Poller multiplexes zmq4 Sockets, native file descriptors and timers
// onto a single reactor loop. All handlers run serialized on whichever
// goroutine called PollOnce/PollTillCancelled; Add*/Remove* are safe to
// call from any goroutine and take effect before the next iteration.
//
// Socket readiness cannot be observed without consuming a message in
// this pure-Go binding (there is no non-destructive "is readable" peek
// the way libzmq's internal pipe offers), so each registered Socket gets
// its own goroutine blocked in Recv; the Poller itself only multiplexes
// the *delivery* of already-received messages, native fd readiness, and
// timers onto one serialized stream of events.
type Poller struct {
	mu     sync.Mutex
	socks  map[zmq4.Socket]*sockWatch
	fds    map[int]*fdWatch
	timers timerHeap
	nextID atomic.Int64

	events  chan event
	cancel  chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
	runMu   sync.Mutex
}

type event struct {
	sock zmq4.Socket
	msg  zmq4.Msg
	err  error
	fd   int
	isFD bool
}

type sockWatch struct {
	sock    zmq4.Socket
	handler SocketHandler
	stop    chan struct{}
}

type fdWatch struct {
	fd      int
	handler FDHandler
}

type timerEntry struct {
	id       TimerID
	next     time.Time
	interval time.Duration
	periodic bool
	handler  func()
	removed  bool
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].next.Before(h[j].next) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// New returns a Poller with no sockets, fds or timers registered.
func New() *Poller {
	return &Poller{
		socks:  make(map[zmq4.Socket]*sockWatch),
		fds:    make(map[int]*fdWatch),
		events: make(chan event, 64),
	}
}

// AddSocket registers s with the Poller: handler is invoked with every
// message s receives, on the Poller's goroutine, until RemoveSocket is
// called or the Poller is canceled.
func (p *Poller) AddSocket(s zmq4.Socket, handler SocketHandler) error {
	if s == nil {
		return fmt.Errorf("poller: nil socket")
	}
	if handler == nil {
		return fmt.Errorf("poller: nil handler")
	}

	p.mu.Lock()
	if _, dup := p.socks[s]; dup {
		p.mu.Unlock()
		return fmt.Errorf("poller: socket already registered")
	}
	sw := &sockWatch{sock: s, handler: handler, stop: make(chan struct{})}
	p.socks[s] = sw
	p.mu.Unlock()

	p.wg.Add(1)
	go p.runSocket(sw)
	return nil
}

// RemoveSocket unregisters s. A message that a blocked Recv on s returns
// after the removal is discarded; no messages from s are delivered once
// RemoveSocket has returned.
func (p *Poller) RemoveSocket(s zmq4.Socket) error {
	p.mu.Lock()
	sw, ok := p.socks[s]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("poller: socket not registered")
	}
	delete(p.socks, s)
	p.mu.Unlock()

	close(sw.stop)
	return nil
}

func (p *Poller) runSocket(sw *sockWatch) {
	defer p.wg.Done()
	for {
		select {
		case <-sw.stop:
			return
		default:
		}

		msg, err := sw.sock.Recv()

		select {
		case <-sw.stop:
			return
		case p.events <- event{sock: sw.sock, msg: msg, err: err}:
		}

		if err != nil {
			return
		}
	}
}

// AddPollinSocket registers a native file descriptor (raw syscall fd, not
// a zmq4.Socket) for read readiness: handler is invoked on the Poller's
// goroutine each time fd reports POLLIN.
func (p *Poller) AddPollinSocket(fd int, handler FDHandler) error {
	if handler == nil {
		return fmt.Errorf("poller: nil handler")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, dup := p.fds[fd]; dup {
		return fmt.Errorf("poller: fd %d already registered", fd)
	}
	p.fds[fd] = &fdWatch{fd: fd, handler: handler}
	return nil
}

// RemovePollinSocket unregisters a native file descriptor added with
// AddPollinSocket.
func (p *Poller) RemovePollinSocket(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.fds[fd]; !ok {
		return fmt.Errorf("poller: fd %d not registered", fd)
	}
	delete(p.fds, fd)
	return nil
}

// AddTimer schedules handler to run interval from now, and every interval
// thereafter if periodic is true. It returns an id usable with
// RemoveTimer.
func (p *Poller) AddTimer(interval time.Duration, periodic bool, handler func()) TimerID {
	id := TimerID(p.nextID.Add(1))
	e := &timerEntry{
		id:       id,
		next:     time.Now().Add(interval),
		interval: interval,
		periodic: periodic,
		handler:  handler,
	}

	p.mu.Lock()
	heap.Push(&p.timers, e)
	p.mu.Unlock()
	return id
}

// RemoveTimer cancels a timer previously returned by AddTimer. It is a
// no-op if the timer already fired (and was one-shot) or was already
// removed.
func (p *Poller) RemoveTimer(id TimerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.timers {
		if e.id == id {
			e.removed = true
			return
		}
	}
}

// nextDeadline returns how long to wait for socket or fd events: the
// time until the next timer fires, capped at cap, or cap if no timer is
// pending.
func (p *Poller) nextDeadline(cap time.Duration) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.timers) == 0 {
		return cap
	}
	d := time.Until(p.timers[0].next)
	if d < 0 {
		d = 0
	}
	if d > cap {
		d = cap
	}
	return d
}

// runExpiredTimers pops and runs every timer due by now, rescheduling
// periodic ones, and reports whether any ran.
func (p *Poller) runExpiredTimers() bool {
	var due []*timerEntry
	now := time.Now()

	p.mu.Lock()
	for len(p.timers) > 0 && !p.timers[0].next.After(now) {
		e := heap.Pop(&p.timers).(*timerEntry)
		if e.removed {
			continue
		}
		due = append(due, e)
		if e.periodic {
			e.next = now.Add(e.interval)
			heap.Push(&p.timers, e)
		}
	}
	p.mu.Unlock()

	for _, e := range due {
		e.handler()
	}
	return len(due) > 0
}

// pollFDs runs a single syscall poll over every registered native fd,
// waiting up to timeout (or sleeping for timeout when no fd is
// registered), and delivers ready ones to the events channel. unix.Poll keeps
// this to a single syscall per iteration rather than standing up a full
// epoll/kqueue event loop for what is, in Go, usually a handful of
// descriptors.
func (p *Poller) pollFDs(timeout time.Duration) {
	p.mu.Lock()
	if len(p.fds) == 0 {
		p.mu.Unlock()
		if timeout > 0 {
			time.Sleep(timeout)
		}
		return
	}
	fds := make([]unix.PollFd, 0, len(p.fds))
	for fd := range p.fds {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	}
	p.mu.Unlock()

	ms := int(timeout / time.Millisecond)
	if ms <= 0 && timeout > 0 {
		ms = 1
	}
	n, err := unix.Poll(fds, ms)
	if err != nil || n <= 0 {
		return
	}

	for _, pfd := range fds {
		if pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) == 0 {
			continue
		}
		p.mu.Lock()
		fw, ok := p.fds[int(pfd.Fd)]
		p.mu.Unlock()
		if !ok {
			continue
		}
		select {
		case p.events <- event{fd: fw.fd, isFD: true}:
		default:
		}
	}
}

const defaultPollInterval = 50 * time.Millisecond

// PollOnce runs exactly one reactor iteration: it runs any timers due,
// then waits up to timeout for a Socket message or a ready native fd, and
// returns. It is for callers driving their own outer loop alongside
// other work.
func (p *Poller) PollOnce(timeout time.Duration) error {
	// Timers are delivered before socket/fd events in the same
	// iteration: draining them first means a timer due at the same
	// moment a message arrives never loses the race to Go's
	// pseudo-random select, and callers get the deterministic ordering
	// the reactor promises.
	p.runExpiredTimers()

	fdTimeout := timeout
	if fdTimeout > defaultPollInterval || fdTimeout <= 0 {
		fdTimeout = defaultPollInterval
	}
	go p.pollFDs(fdTimeout)

	deadline := p.nextDeadline(timeout)
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case ev := <-p.events:
		timer.Stop()
		p.dispatch(ev)
	case <-timer.C:
		p.runExpiredTimers()
	}
	return nil
}

// PollTillCancelled runs the reactor until Cancel is called: cancellation
// is cooperative, so an in-flight handler invocation always completes
// before the loop checks for cancellation and returns.
func (p *Poller) PollTillCancelled() error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("poller: already running")
	}

	p.runMu.Lock()
	p.cancel = make(chan struct{})
	done := make(chan struct{})
	p.done = done
	p.runMu.Unlock()

	defer func() {
		p.running.Store(false)
		close(done)
	}()

	for {
		select {
		case <-p.cancel:
			return nil
		default:
		}

		// See PollOnce: timers run before this iteration's event
		// select so a due timer never loses a pseudo-random select
		// race against a socket/fd event arriving at the same time.
		p.runExpiredTimers()

		go p.pollFDs(defaultPollInterval)

		deadline := p.nextDeadline(defaultPollInterval)
		timer := time.NewTimer(deadline)

		select {
		case <-p.cancel:
			timer.Stop()
			return nil
		case ev := <-p.events:
			timer.Stop()
			p.dispatch(ev)
		case <-timer.C:
		}
	}
}

func (p *Poller) dispatch(ev event) {
	if ev.isFD {
		p.mu.Lock()
		fw, ok := p.fds[ev.fd]
		p.mu.Unlock()
		if ok {
			fw.handler(ev.fd)
		}
		return
	}

	p.mu.Lock()
	sw, ok := p.socks[ev.sock]
	p.mu.Unlock()
	if !ok {
		return
	}
	sw.handler(ev.sock, ev.msg, ev.err)
}

// Cancel requests PollTillCancelled to exit at the next iteration
// boundary. It does not wait for the loop to actually exit; use
// CancelAndJoin for that.
func (p *Poller) Cancel() {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.cancel == nil {
		return
	}
	select {
	case <-p.cancel:
	default:
		close(p.cancel)
	}
}

// CancelAndJoin requests cancellation and blocks until PollTillCancelled
// has returned.
func (p *Poller) CancelAndJoin() {
	p.runMu.Lock()
	done := p.done
	p.runMu.Unlock()

	p.Cancel()
	if done != nil {
		<-done
	}
}
