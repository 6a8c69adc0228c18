// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import "sync"

// pipeState tracks where a Pipe sits in its termination handshake. A Pipe
// starts Active and only ever moves forward through this list; there is
// no transition back to an earlier state.
type pipeState int

const (
	pipeActive pipeState = iota
	// pipeWaitingForDelimiter means Terminate has been called on this
	// end: the outbound delimiter has been queued but the peer has not
	// yet acknowledged it.
	pipeWaitingForDelimiter
	// pipeDelimited means a delimiter Frame has been read off the
	// inbound YPipe: the peer is terminating and no further data
	// frames will follow it.
	pipeDelimited
	// pipeWaitingForCompleteClose means both directions have seen a
	// delimiter and the Pipe is waiting for the owning SocketBase to
	// call Close after draining anything still buffered.
	pipeWaitingForCompleteClose
	pipeClosed
)

// MaxWatermarkDelta bounds how far below HWM the low watermark may sit.
// It exists so that a very large HWM does not produce an LWM so low that
// credit is returned one message at a time.
const MaxWatermarkDelta = 1024

// computeLWM derives the low watermark from a high watermark: the point
// at which the reading side returns credit to the writer. hwm <= 0
// disables flow control entirely (LWM is meaningless in that case).
func computeLWM(hwm int) int {
	if hwm <= 0 {
		return 0
	}
	if hwm > 2*MaxWatermarkDelta {
		return hwm - MaxWatermarkDelta
	}
	return (hwm + 1) / 2
}

// Pipe is one endpoint of a bidirectional channel between two ZObjects
// (typically a SocketBase and a Session). It pairs two YPipe[Frame]s —
// one per direction — with credit-based flow control and a termination
// handshake that guarantees neither side sees a partial multi-part
// message truncated mid-stream.
//
// A Pipe is not safe for concurrent Write calls or concurrent Read calls;
// it is safe for one writer and one reader to operate concurrently with
// each other, matching the YPipe SPSC contract it is built on.
type Pipe struct {
	mu sync.Mutex

	out *YPipe[Frame] // frames queued here flow to the peer
	in  *YPipe[Frame] // frames read here arrived from the peer

	hwm, lwm int

	outCredit int // <=0 means no more room to Write (hwm disabled: always huge)
	readSince int // frames Read since the last credit handed back to the peer

	state pipeState

	// Identity is set once, at attach time, and never mutated again; it
	// is read by ROUTER/DEALER bookkeeping without locking.
	Identity []byte
}

// NewPipePair allocates two Pipes sharing a pair of YPipe[Frame]s, wired
// so that writes on one side surface as reads on the other. hwm <= 0
// disables flow control on both ends.
func NewPipePair(hwm int) (*Pipe, *Pipe) {
	ab := NewYPipe[Frame]()
	ba := NewYPipe[Frame]()
	lwm := computeLWM(hwm)

	credit := hwm
	if hwm <= 0 {
		credit = 1<<31 - 1
	}

	a := &Pipe{out: ab, in: ba, hwm: hwm, lwm: lwm, outCredit: credit, state: pipeActive}
	b := &Pipe{out: ba, in: ab, hwm: hwm, lwm: lwm, outCredit: credit, state: pipeActive}
	return a, b
}

// Readable returns a channel that fires when a Frame becomes available
// to Read after having been empty — for use by plain bridge goroutines
// (e.g. the wire-protocol pump) that have no mailbox to receive a
// CmdActivateRead on.
func (p *Pipe) Readable() <-chan struct{} { return p.in.Wake() }

// CheckWrite reports whether Write would currently be accepted: the pipe
// is Active and, if flow control is enabled, outbound credit remains.
func (p *Pipe) CheckWrite() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == pipeActive && p.outCredit > 0
}

// Write queues f for delivery to the peer. The caller must have checked
// CheckWrite (or be willing to overrun flow control deliberately, e.g.
// for a command frame); Write does not itself refuse an over-budget
// write, it only accounts for it.
func (p *Pipe) Write(f Frame) {
	p.mu.Lock()
	if p.state == pipeClosed {
		p.mu.Unlock()
		return
	}
	p.outCredit--
	p.mu.Unlock()
	p.out.Write(f)
}

// Flush publishes every Write since the last Flush to the peer, and
// reports whether the peer's reader had gone to sleep — the caller must
// then arrange for a CmdActivateRead to reach the peer's thread.
func (p *Pipe) Flush() bool {
	return p.out.Flush()
}

// CheckRead reports whether a Frame is available without consuming it.
func (p *Pipe) CheckRead() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == pipeDelimited || p.state == pipeWaitingForCompleteClose || p.state == pipeClosed {
		return false
	}
	return p.in.CheckRead()
}

// Read consumes and returns the next Frame. ok is false if nothing is
// available right now (the caller should wait for CmdActivateRead) or if
// the pipe has seen its delimiter and moved to pipeDelimited — in the
// latter case Read never produces another Frame.
func (p *Pipe) Read() (f Frame, ok bool) {
	p.mu.Lock()
	if p.state == pipeDelimited || p.state == pipeWaitingForCompleteClose || p.state == pipeClosed {
		p.mu.Unlock()
		return Frame{}, false
	}
	p.mu.Unlock()

	v, ok := p.in.TryRead()
	if !ok {
		return Frame{}, false
	}
	if v.IsDelimiter() {
		p.mu.Lock()
		p.state = pipeDelimited
		p.mu.Unlock()
		return Frame{}, false
	}

	p.mu.Lock()
	p.readSince++
	returnCredit := false
	if p.lwm > 0 && p.readSince >= p.lwm {
		returnCredit = true
	}
	p.mu.Unlock()
	_ = returnCredit // surfaced via ReadCredit for the caller to act on

	return v, true
}

// ReadCredit returns the amount of outbound credit Read has accumulated
// since the last call and resets the counter. A non-zero result means
// the caller (the owning SocketBase) must send a CmdActivateWrite
// carrying this count to the peer so its Pipe.Grant can restore credit.
func (p *Pipe) ReadCredit() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lwm <= 0 || p.readSince < p.lwm {
		return 0
	}
	n := uint64(p.readSince)
	p.readSince = 0
	return n
}

// Grant restores n units of outbound credit, in response to a peer's
// CmdActivateWrite.
func (p *Pipe) Grant(n uint64) {
	p.mu.Lock()
	p.outCredit += int(n)
	p.mu.Unlock()
}

// Terminate begins the close handshake on this end: it writes a
// delimiter Frame (unless flush is false, in which case it merely stops
// accepting new writes without announcing end-of-stream — used when the
// peer has already gone away and there is nobody left to notify).
func (p *Pipe) Terminate(flush bool) {
	p.mu.Lock()
	if p.state != pipeActive {
		p.mu.Unlock()
		return
	}
	p.state = pipeWaitingForDelimiter
	p.mu.Unlock()

	if flush {
		p.out.Write(NewDelimiterFrame())
		p.out.Flush()
	}
}

// Delimited reports whether this end has seen the peer's delimiter.
func (p *Pipe) Delimited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == pipeDelimited || p.state == pipeWaitingForCompleteClose || p.state == pipeClosed
}

// AwaitCompleteClose moves a delimited pipe into its final waiting
// state, after the owner has drained whatever was already buffered.
func (p *Pipe) AwaitCompleteClose() {
	p.mu.Lock()
	if p.state == pipeDelimited {
		p.state = pipeWaitingForCompleteClose
	}
	p.mu.Unlock()
}

// Close marks the Pipe fully terminated. Further Read/Write calls are
// no-ops. Close is idempotent.
func (p *Pipe) Close() {
	p.mu.Lock()
	p.state = pipeClosed
	p.mu.Unlock()
}

// Closed reports whether Close has been called.
func (p *Pipe) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == pipeClosed
}

