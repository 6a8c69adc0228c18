// Copyright 2019 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import "sync/atomic"

// ypipeChunkSize is the batching granularity of a YPipe: a tuning
// parameter, not a correctness knob. Larger chunks amortize the
// allocation on the writer side further but delay the point at which the
// reader can see the tail of a long chunk.
const ypipeChunkSize = 256

type ypipeChunk[T any] struct {
	values [ypipeChunkSize]T
	next   *ypipeChunk[T]
}

// ypipeCursor names a position in the chunk chain: the shared boundary
// the writer publishes and the reader polls.
type ypipeCursor[T any] struct {
	chunk *ypipeChunk[T]
	pos   int
}

// YPipe is a lock-free single-producer/single-consumer queue: a linked
// list of fixed-size chunks. Write appends to the writer's private tail
// chunk without publishing anything; Flush publishes the batch by
// swinging one atomic pointer. The reader never touches writer-private
// state and vice versa — the only shared memory is the published cursor.
//
// Construction enforces the SPSC contract implicitly: a Pipe owns both
// endpoints and only ever calls Write/Flush from the write side and
// CheckRead/TryRead from the read side.
type YPipe[T any] struct {
	// writer-owned
	wchunk        *ypipeChunk[T]
	wpos          int
	wflushedChunk *ypipeChunk[T]
	wflushedPos   int

	// published boundary: written with release semantics by Flush,
	// read with acquire semantics by CheckRead/TryRead.
	c atomic.Pointer[ypipeCursor[T]]

	// reader-owned
	rchunk    *ypipeChunk[T]
	rpos      int
	rboundary *ypipeCursor[T]

	// asleep is set by the reader when TryRead finds nothing after a
	// second look, and cleared by whichever Flush call observes it —
	// that Flush call must then have the writer send ActivateRead.
	asleep atomic.Bool

	// wake fires whenever a Flush transitions the reader from asleep to
	// awake, for callers that want to block on a channel rather than
	// poll CheckRead (e.g. a bridge goroutine with no command mailbox
	// of its own).
	wake chan struct{}
}

// NewYPipe returns an empty YPipe.
func NewYPipe[T any]() *YPipe[T] {
	first := &ypipeChunk[T]{}
	cur := &ypipeCursor[T]{chunk: first, pos: 0}
	p := &YPipe[T]{
		wchunk:        first,
		wflushedChunk: first,
		rchunk:        first,
		rboundary:     cur,
		wake:          make(chan struct{}, 1),
	}
	p.c.Store(cur)
	return p
}

// Wake returns a channel that receives a value whenever Flush wakes a
// sleeping reader. It is a convenience for readers that are plain
// goroutines rather than CommandTarget threads with their own mailbox.
func (p *YPipe[T]) Wake() <-chan struct{} { return p.wake }

// Write appends val to the pending (unflushed) batch. It is invisible to
// the reader until the next Flush.
func (p *YPipe[T]) Write(val T) {
	p.wchunk.values[p.wpos] = val
	p.wpos++
	if p.wpos == ypipeChunkSize {
		next := &ypipeChunk[T]{}
		p.wchunk.next = next
		p.wchunk = next
		p.wpos = 0
	}
}

// Flush publishes every Write since the last Flush. It returns true if
// the reader had gone to sleep — in which case the writer must send an
// ActivateRead command to wake it, since the reader will not otherwise
// notice the new data.
func (p *YPipe[T]) Flush() bool {
	if p.wflushedChunk == p.wchunk && p.wflushedPos == p.wpos {
		return false
	}
	p.wflushedChunk, p.wflushedPos = p.wchunk, p.wpos
	p.c.Store(&ypipeCursor[T]{chunk: p.wchunk, pos: p.wpos})
	woke := p.asleep.CompareAndSwap(true, false)
	if woke {
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
	return woke
}

// CheckRead reports whether a value is available, without consuming it.
func (p *YPipe[T]) CheckRead() bool {
	if p.rchunk != p.rboundary.chunk || p.rpos != p.rboundary.pos {
		return true
	}
	p.rboundary = p.c.Load()
	return p.rchunk != p.rboundary.chunk || p.rpos != p.rboundary.pos
}

// TryRead consumes and returns the next value, or fails and marks the
// pipe asleep if nothing is available. A failed TryRead means the next
// Flush on the writer side is responsible for waking this reader.
func (p *YPipe[T]) TryRead() (T, bool) {
	if !p.CheckRead() {
		p.asleep.Store(true)
		if !p.CheckRead() {
			var zero T
			return zero, false
		}
		p.asleep.Store(false)
	}

	v := p.rchunk.values[p.rpos]
	p.rpos++
	if p.rpos == ypipeChunkSize {
		p.rchunk = p.rchunk.next
		p.rpos = 0
	}
	return v, true
}
