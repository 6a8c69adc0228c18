// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"context"
	"net"
)

// repPattern is the mirror image of reqPattern: Recv fair-queues across
// every attached pipe and remembers which one the last request arrived
// on, and Send is only accepted once, back to that same pipe. The
// leading envelope REQ adds (an optional correlator frame followed by
// the empty delimiter) is stripped on recv and replayed verbatim on
// send, so application code never sees it and REQ_CORRELATE round-trips
// without REP needing to know it is enabled.
type repPattern struct {
	pipes []*Pipe
	fq    fairQueue

	replyTo  *Pipe
	envelope [][]byte
}

func newRepPattern() *repPattern { return &repPattern{} }

func (p *repPattern) XAttachPipe(pipe *Pipe, subscribe bool) {
	p.pipes = append(p.pipes, pipe)
}

func (p *repPattern) XReadActivated(pipe *Pipe)  {}
func (p *repPattern) XWriteActivated(pipe *Pipe) {}

func (p *repPattern) XTerminated(pipe *Pipe) {
	for i, pp := range p.pipes {
		if pp == pipe {
			p.pipes = append(p.pipes[:i], p.pipes[i+1:]...)
			break
		}
	}
	if p.replyTo == pipe {
		p.replyTo = nil
	}
}

func (p *repPattern) XSend(sb *SocketBase, msg Msg) error {
	if p.replyTo == nil {
		return ErrFSM
	}
	if !p.replyTo.CheckWrite() {
		return ErrAgain
	}
	frames := make([][]byte, 0, len(p.envelope)+len(msg.Frames))
	frames = append(frames, p.envelope...)
	frames = append(frames, msg.Frames...)
	sendMsg(p.replyTo, Msg{Frames: frames})
	p.replyTo = nil
	p.envelope = nil
	return nil
}

func (p *repPattern) XRecv(sb *SocketBase) (Msg, error) {
	if p.replyTo != nil {
		return Msg{}, ErrFSM
	}
	pipe := p.fq.pick(p.pipes)
	if pipe == nil {
		return Msg{}, ErrAgain
	}
	msg, ok := recvMsg(pipe)
	if !ok {
		return Msg{}, ErrAgain
	}
	p.replyTo = pipe
	envelope, body := splitEnvelope(msg.Frames)
	p.envelope = envelope
	return Msg{Frames: body, multipart: len(body) > 1}, nil
}

func (p *repPattern) XHasIn() bool {
	if p.replyTo != nil {
		return false
	}
	for _, pipe := range p.pipes {
		if pipe.CheckRead() {
			return true
		}
	}
	return false
}

func (p *repPattern) XHasOut() bool {
	return p.replyTo != nil && p.replyTo.CheckWrite()
}

// NewRep returns a new REP ZeroMQ socket.
// The returned socket value is initially unbound.
func NewRep(ctx context.Context, opts ...Option) Socket {
	return &repSocket{sck: newSocket(ctx, Rep, opts...)}
}

// repSocket is a REP ZeroMQ socket.
type repSocket struct {
	sck *socket
}

func (s *repSocket) Close() error       { return s.sck.Close() }
func (s *repSocket) Send(msg Msg) error { return s.sck.Send(msg) }
func (s *repSocket) SendMulti(msg Msg) error {
	return s.sck.SendMulti(msg)
}
func (s *repSocket) Recv() (Msg, error)     { return s.sck.Recv() }
func (s *repSocket) Listen(ep string) error { return s.sck.Listen(ep) }
func (s *repSocket) Dial(ep string) error   { return s.sck.Dial(ep) }
func (s *repSocket) Type() SocketType       { return s.sck.Type() }
func (s *repSocket) Addr() net.Addr         { return s.sck.Addr() }
func (s *repSocket) GetOption(name string) (interface{}, error) {
	return s.sck.GetOption(name)
}
func (s *repSocket) SetOption(name string, value interface{}) error {
	return s.sck.SetOption(name, value)
}

var (
	_ Socket        = (*repSocket)(nil)
	_ SocketPattern = (*repPattern)(nil)
)
