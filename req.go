// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"bytes"
	"context"
	"crypto/rand"
	"log"
	"net"
	"sync"
)

// reqPattern enforces the strict send/recv alternation of REQ: Send picks
// a pipe round-robin and remembers it, Recv only reads from that same
// pipe, and neither is allowed out of turn. Every request is prefixed
// with an empty delimiter frame, matching the envelope REP strips before
// handing the body to the application.
//
// When correlate is set (REQ_CORRELATE), a random correlator frame is
// inserted right before the delimiter on every request, and XRecv refuses
// any reply that doesn't carry the matching correlator back — a stray
// reply to an earlier, already-abandoned request can't be mistaken for
// the current one. When relaxed is set (REQ_RELAXED), XSend is allowed
// to issue a new request before a pending one has been answered, instead
// of returning ErrFSM; the abandoned reply, if it ever arrives, is
// dropped by the correlator check instead of being handed to the caller
// out of turn.
type reqPattern struct {
	pipes []*Pipe
	lb    roundRobin

	pending *Pipe

	mu        sync.Mutex
	correlate bool
	relaxed   bool
	corrID    []byte
}

func newReqPattern() *reqPattern { return &reqPattern{} }

func (p *reqPattern) setReqCorrelate(v bool) {
	p.mu.Lock()
	p.correlate = v
	p.mu.Unlock()
}

func (p *reqPattern) setReqRelaxed(v bool) {
	p.mu.Lock()
	p.relaxed = v
	p.mu.Unlock()
}

func newReqCorrelator() []byte {
	id := make([]byte, 4)
	if _, err := rand.Read(id); err != nil {
		log.Fatalf("cannot generate random data for REQ correlator: %v", err)
	}
	return id
}

func (p *reqPattern) XAttachPipe(pipe *Pipe, subscribe bool) {
	p.pipes = append(p.pipes, pipe)
}

func (p *reqPattern) XReadActivated(pipe *Pipe)  {}
func (p *reqPattern) XWriteActivated(pipe *Pipe) {}

func (p *reqPattern) XTerminated(pipe *Pipe) {
	for i, pp := range p.pipes {
		if pp == pipe {
			p.pipes = append(p.pipes[:i], p.pipes[i+1:]...)
			break
		}
	}
	if p.pending == pipe {
		p.pending = nil
	}
}

func (p *reqPattern) XSend(sb *SocketBase, msg Msg) error {
	p.mu.Lock()
	correlate, relaxed := p.correlate, p.relaxed
	p.mu.Unlock()

	if p.pending != nil && !relaxed {
		return ErrFSM
	}
	pipe := p.lb.pick(p.pipes)
	if pipe == nil {
		return ErrAgain
	}

	// The correlator, when present, goes before the empty delimiter so
	// that REP's generic envelope-splitting (everything up to and
	// including the first empty frame) plays it back unchanged on
	// reply without REP needing to know what it means.
	var corrID []byte
	frames := make([][]byte, 0, len(msg.Frames)+2)
	if correlate {
		corrID = newReqCorrelator()
		frames = append(frames, corrID)
	}
	frames = append(frames, nil)
	frames = append(frames, msg.Frames...)

	sendMsg(pipe, Msg{Frames: frames})
	p.pending = pipe
	p.mu.Lock()
	p.corrID = corrID
	p.mu.Unlock()
	return nil
}

func (p *reqPattern) XRecv(sb *SocketBase) (Msg, error) {
	if p.pending == nil {
		return Msg{}, ErrFSM
	}
	if !p.pending.CheckRead() {
		return Msg{}, ErrAgain
	}
	msg, ok := recvMsg(p.pending)
	if !ok {
		return Msg{}, ErrAgain
	}
	p.pending = nil

	envelope, body := splitEnvelope(msg.Frames)

	p.mu.Lock()
	correlate, corrID := p.correlate, p.corrID
	p.mu.Unlock()
	if correlate {
		if len(envelope) < 2 || !bytes.Equal(envelope[0], corrID) {
			return Msg{}, ErrFSM
		}
	}
	return Msg{Frames: body, multipart: len(body) > 1}, nil
}

func (p *reqPattern) XHasIn() bool {
	return p.pending != nil && p.pending.CheckRead()
}

func (p *reqPattern) XHasOut() bool {
	if p.pending != nil {
		return false
	}
	for _, pipe := range p.pipes {
		if pipe.CheckWrite() {
			return true
		}
	}
	return false
}

// NewReq returns a new REQ ZeroMQ socket.
// The returned socket value is initially unbound.
func NewReq(ctx context.Context, opts ...Option) Socket {
	return &reqSocket{sck: newSocket(ctx, Req, opts...)}
}

// reqSocket is a REQ ZeroMQ socket.
type reqSocket struct {
	sck *socket
}

func (s *reqSocket) Close() error       { return s.sck.Close() }
func (s *reqSocket) Send(msg Msg) error { return s.sck.Send(msg) }
func (s *reqSocket) SendMulti(msg Msg) error {
	return s.sck.SendMulti(msg)
}
func (s *reqSocket) Recv() (Msg, error)      { return s.sck.Recv() }
func (s *reqSocket) Listen(ep string) error  { return s.sck.Listen(ep) }
func (s *reqSocket) Dial(ep string) error    { return s.sck.Dial(ep) }
func (s *reqSocket) Type() SocketType        { return s.sck.Type() }
func (s *reqSocket) Addr() net.Addr          { return s.sck.Addr() }
func (s *reqSocket) GetOption(name string) (interface{}, error) {
	return s.sck.GetOption(name)
}
func (s *reqSocket) SetOption(name string, value interface{}) error {
	return s.sck.SetOption(name, value)
}

var (
	_ Socket        = (*reqSocket)(nil)
	_ SocketPattern = (*reqPattern)(nil)
	_ reqOptions    = (*reqPattern)(nil)
)
