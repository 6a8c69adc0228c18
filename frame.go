// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import "sync/atomic"

// FrameFlag marks properties of a single Frame as it travels through a
// Pipe. A multi-part message is a sequence of Frames where every element
// except the last has FlagMore set.
type FrameFlag uint8

const (
	// FlagMore marks a frame as not being the last part of a multi-part
	// message.
	FlagMore FrameFlag = 1 << iota
	// FlagCommand marks a frame as a ZMTP command rather than
	// application data.
	FlagCommand
	// FlagIdentity marks a frame carrying a socket identity (used by
	// ROUTER on recv and required as the first frame on ROUTER send).
	FlagIdentity
	// FlagCredential marks a frame carrying security-mechanism
	// credentials (e.g. the PLAIN username/password pair).
	FlagCredential
	// FlagDelimiter marks the sentinel frame written by Pipe.Terminate
	// that announces end-of-stream to the reading side.
	FlagDelimiter
)

// vsmSize is the inline buffer capacity of a Frame, mirroring libzmq's
// "very small message" optimization: payloads at or under this size are
// stored inline and require no heap allocation or refcounting.
const vsmSize = 32

// frameBuf is a reference-counted heap buffer shared by Frame copies that
// alias the same payload (e.g. a PUB message fanned out, unmodified, to
// many subscriber pipes).
type frameBuf struct {
	data []byte
	refs int32
}

func newFrameBuf(data []byte) *frameBuf {
	return &frameBuf{data: data, refs: 1}
}

func (b *frameBuf) incref() {
	atomic.AddInt32(&b.refs, 1)
}

// decref releases one reference, returning true if it was the last one.
func (b *frameBuf) decref() bool {
	return atomic.AddInt32(&b.refs, -1) == 0
}

// Frame is one wire-level ZMTP message unit: either an inline byte buffer,
// a reference-counted heap buffer, a delimiter marker, or an empty "join"
// marker (an empty Frame with no flags). A Frame is owned by exactly one
// holder at a time; passing it to Pipe.Write or a Frame-consuming function
// moves ownership, and Close must run at most once per logical owner.
type Frame struct {
	small   [vsmSize]byte
	vsmSize int
	buf     *frameBuf

	Flags FrameFlag
}

// NewFrame copies data into a new owned Frame.
func NewFrame(data []byte) Frame {
	if len(data) <= vsmSize {
		f := Frame{vsmSize: len(data)}
		copy(f.small[:], data)
		return f
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return Frame{buf: newFrameBuf(cp)}
}

// NewDelimiterFrame returns the sentinel frame Pipe.Terminate writes to
// announce end-of-stream. A delimiter carries no payload.
func NewDelimiterFrame() Frame {
	return Frame{Flags: FlagDelimiter}
}

// NewJoinFrame returns the empty marker frame used internally by PUB/SUB
// bookkeeping (an addressed frame with no data and no flags).
func NewJoinFrame() Frame {
	return Frame{}
}

// Size returns the number of payload bytes; delimiter and join frames
// report zero.
func (f Frame) Size() int {
	if f.buf != nil {
		return len(f.buf.data)
	}
	return f.vsmSize
}

// Data returns the frame's payload. The returned slice must not be
// retained past the frame's next mutation; callers that need to keep a
// copy should call Bytes.
func (f Frame) Data() []byte {
	if f.buf != nil {
		return f.buf.data
	}
	return f.small[:f.vsmSize]
}

// Bytes returns an owned copy of the frame's payload.
func (f Frame) Bytes() []byte {
	d := f.Data()
	cp := make([]byte, len(d))
	copy(cp, d)
	return cp
}

func (f Frame) HasMore() bool      { return f.Flags&FlagMore != 0 }
func (f Frame) IsCommand() bool    { return f.Flags&FlagCommand != 0 }
func (f Frame) IsIdentity() bool   { return f.Flags&FlagIdentity != 0 }
func (f Frame) IsCredential() bool { return f.Flags&FlagCredential != 0 }
func (f Frame) IsDelimiter() bool  { return f.Flags&FlagDelimiter != 0 }

// WithMore returns a copy of f with FlagMore set or cleared. It shares f's
// underlying buffer (incrementing its refcount) rather than copying data.
func (f Frame) WithMore(more bool) Frame {
	o := f.Copy()
	if more {
		o.Flags |= FlagMore
	} else {
		o.Flags &^= FlagMore
	}
	return o
}

// Copy returns a shallow copy of f. For heap-backed frames this shares the
// underlying frameBuf and increments its refcount instead of duplicating
// payload bytes, which is what lets PUB fan a single publish out to many
// subscriber pipes without a copy per pipe.
func (f Frame) Copy() Frame {
	if f.buf != nil {
		f.buf.incref()
	}
	return f
}

// Close releases f's heap buffer if this was the last outstanding
// reference. Inline (small) frames need no release. Frame does not track
// "already closed" state itself: once a Frame has been moved into a Pipe
// or handed to Close, the caller must not touch it again.
func (f Frame) Close() {
	if f.buf != nil && f.buf.decref() {
		f.buf.data = nil
	}
}
