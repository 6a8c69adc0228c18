// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"bytes"
	"context"
	"net"
)

// routerPattern exposes the peer identity as the first frame of every
// message: Recv prepends it, Send expects the caller to supply it and
// strips it before forwarding to the matching pipe. With
// routerMandatory set, a Send to an unknown identity returns
// ErrHostUnreachable instead of being silently dropped.
type routerPattern struct {
	pipes []*Pipe
	fq    fairQueue
}

func newRouterPattern() *routerPattern { return &routerPattern{} }

func (p *routerPattern) XAttachPipe(pipe *Pipe, subscribe bool) {
	p.pipes = append(p.pipes, pipe)
}

func (p *routerPattern) XReadActivated(pipe *Pipe)  {}
func (p *routerPattern) XWriteActivated(pipe *Pipe) {}

func (p *routerPattern) XTerminated(pipe *Pipe) {
	for i, pp := range p.pipes {
		if pp == pipe {
			p.pipes = append(p.pipes[:i], p.pipes[i+1:]...)
			return
		}
	}
}

func (p *routerPattern) byIdentity(id []byte) *Pipe {
	for _, pipe := range p.pipes {
		if bytes.Equal(pipe.Identity, id) {
			return pipe
		}
	}
	return nil
}

func (p *routerPattern) XSend(sb *SocketBase, msg Msg) error {
	if len(msg.Frames) == 0 {
		return ErrBadProperty
	}
	id := msg.Frames[0]
	pipe := p.byIdentity(id)
	if pipe == nil {
		if sb.Options().routerMandatory {
			return ErrHostUnreachable
		}
		return nil
	}
	if !pipe.CheckWrite() {
		if sb.Options().routerMandatory {
			return ErrAgain
		}
		return nil
	}
	sendMsg(pipe, Msg{Frames: msg.Frames[1:]})
	return nil
}

func (p *routerPattern) XRecv(sb *SocketBase) (Msg, error) {
	pipe := p.fq.pick(p.pipes)
	if pipe == nil {
		return Msg{}, ErrAgain
	}
	msg, ok := recvMsg(pipe)
	if !ok {
		return Msg{}, ErrAgain
	}
	msg.Frames = append([][]byte{pipe.Identity}, msg.Frames...)
	return msg, nil
}

func (p *routerPattern) XHasIn() bool {
	for _, pipe := range p.pipes {
		if pipe.CheckRead() {
			return true
		}
	}
	return false
}

func (p *routerPattern) XHasOut() bool {
	for _, pipe := range p.pipes {
		if pipe.CheckWrite() {
			return true
		}
	}
	return false
}

// NewRouter returns a new ROUTER ZeroMQ socket.
// The returned socket value is initially unbound.
func NewRouter(ctx context.Context, opts ...Option) Socket {
	return &routerSocket{sck: newSocket(ctx, Router, opts...)}
}

// routerSocket is a ROUTER ZeroMQ socket.
type routerSocket struct {
	sck *socket
}

func (s *routerSocket) Close() error       { return s.sck.Close() }
func (s *routerSocket) Send(msg Msg) error { return s.sck.Send(msg) }
func (s *routerSocket) SendMulti(msg Msg) error {
	return s.sck.SendMulti(msg)
}
func (s *routerSocket) Recv() (Msg, error)     { return s.sck.Recv() }
func (s *routerSocket) Listen(ep string) error { return s.sck.Listen(ep) }
func (s *routerSocket) Dial(ep string) error   { return s.sck.Dial(ep) }
func (s *routerSocket) Type() SocketType       { return s.sck.Type() }
func (s *routerSocket) Addr() net.Addr         { return s.sck.Addr() }
func (s *routerSocket) GetOption(name string) (interface{}, error) {
	return s.sck.GetOption(name)
}
func (s *routerSocket) SetOption(name string, value interface{}) error {
	return s.sck.SetOption(name, value)
}

var (
	_ Socket        = (*routerSocket)(nil)
	_ SocketPattern = (*routerPattern)(nil)
)
