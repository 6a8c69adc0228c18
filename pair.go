// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"context"
	"net"
)

// pairPattern implements PAIR: exactly one peer at a time. A second
// AttachPipe while one is already active is terminated immediately.
type pairPattern struct {
	pipe *Pipe
}

func newPairPattern() *pairPattern { return &pairPattern{} }

func (p *pairPattern) XAttachPipe(pipe *Pipe, subscribe bool) {
	if p.pipe != nil {
		pipe.Terminate(true)
		return
	}
	p.pipe = pipe
}

func (p *pairPattern) XReadActivated(pipe *Pipe)  {}
func (p *pairPattern) XWriteActivated(pipe *Pipe) {}

func (p *pairPattern) XTerminated(pipe *Pipe) {
	if p.pipe == pipe {
		p.pipe = nil
	}
}

func (p *pairPattern) XSend(sb *SocketBase, msg Msg) error {
	if p.pipe == nil || !p.pipe.CheckWrite() {
		return ErrAgain
	}
	sendMsg(p.pipe, msg)
	return nil
}

func (p *pairPattern) XRecv(sb *SocketBase) (Msg, error) {
	if p.pipe == nil {
		return Msg{}, ErrAgain
	}
	msg, ok := recvMsg(p.pipe)
	if !ok {
		return Msg{}, ErrAgain
	}
	return msg, nil
}

func (p *pairPattern) XHasIn() bool  { return p.pipe != nil && p.pipe.CheckRead() }
func (p *pairPattern) XHasOut() bool { return p.pipe != nil && p.pipe.CheckWrite() }

// NewPair returns a new PAIR ZeroMQ socket.
// The returned socket value is initially unbound.
func NewPair(ctx context.Context, opts ...Option) Socket {
	return &pairSocket{sck: newSocket(ctx, Pair, opts...)}
}

// pairSocket is a PAIR ZeroMQ socket.
type pairSocket struct {
	sck *socket
}

func (s *pairSocket) Close() error      { return s.sck.Close() }
func (s *pairSocket) Send(msg Msg) error { return s.sck.Send(msg) }
func (s *pairSocket) SendMulti(msg Msg) error {
	return s.sck.SendMulti(msg)
}
func (s *pairSocket) Recv() (Msg, error) { return s.sck.Recv() }
func (s *pairSocket) Listen(ep string) error {
	return s.sck.Listen(ep)
}
func (s *pairSocket) Dial(ep string) error { return s.sck.Dial(ep) }
func (s *pairSocket) Type() SocketType     { return s.sck.Type() }
func (s *pairSocket) Addr() net.Addr       { return s.sck.Addr() }
func (s *pairSocket) GetOption(name string) (interface{}, error) {
	return s.sck.GetOption(name)
}
func (s *pairSocket) SetOption(name string, value interface{}) error {
	return s.sck.SetOption(name, value)
}

var (
	_ Socket        = (*pairSocket)(nil)
	_ SocketPattern = (*pairPattern)(nil)
)
