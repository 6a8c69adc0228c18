// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"context"
	"net"

	"github.com/pkg/errors"
)

// pushPattern load-balances outgoing messages across every writable pipe
// in round-robin order. It never has anything to receive.
type pushPattern struct {
	pipes []*Pipe
	lb    roundRobin
}

func newPushPattern() *pushPattern { return &pushPattern{} }

func (p *pushPattern) XAttachPipe(pipe *Pipe, subscribe bool) {
	p.pipes = append(p.pipes, pipe)
}

func (p *pushPattern) XReadActivated(pipe *Pipe)  {}
func (p *pushPattern) XWriteActivated(pipe *Pipe) {}

func (p *pushPattern) XTerminated(pipe *Pipe) {
	for i, pp := range p.pipes {
		if pp == pipe {
			p.pipes = append(p.pipes[:i], p.pipes[i+1:]...)
			return
		}
	}
}

func (p *pushPattern) XSend(sb *SocketBase, msg Msg) error {
	pipe := p.lb.pick(p.pipes)
	if pipe == nil {
		return ErrAgain
	}
	sendMsg(pipe, msg)
	return nil
}

func (p *pushPattern) XRecv(sb *SocketBase) (Msg, error) {
	return Msg{}, errors.Errorf("zmq4: PUSH sockets can't recv messages")
}

func (p *pushPattern) XHasIn() bool { return false }

func (p *pushPattern) XHasOut() bool {
	for _, pipe := range p.pipes {
		if pipe.CheckWrite() {
			return true
		}
	}
	return false
}

// NewPush returns a new PUSH ZeroMQ socket.
// The returned socket value is initially unbound.
func NewPush(ctx context.Context, opts ...Option) Socket {
	return &pushSocket{sck: newSocket(ctx, Push, opts...)}
}

// pushSocket is a PUSH ZeroMQ socket.
type pushSocket struct {
	sck *socket
}

func (s *pushSocket) Close() error       { return s.sck.Close() }
func (s *pushSocket) Send(msg Msg) error { return s.sck.Send(msg) }
func (s *pushSocket) SendMulti(msg Msg) error {
	return s.sck.SendMulti(msg)
}

// Recv receives a complete message.
func (*pushSocket) Recv() (Msg, error) {
	return Msg{}, errors.Errorf("zmq4: PUSH sockets can't recv messages")
}
func (s *pushSocket) Listen(ep string) error { return s.sck.Listen(ep) }
func (s *pushSocket) Dial(ep string) error   { return s.sck.Dial(ep) }
func (s *pushSocket) Type() SocketType       { return s.sck.Type() }
func (s *pushSocket) Addr() net.Addr         { return s.sck.Addr() }
func (s *pushSocket) GetOption(name string) (interface{}, error) {
	return s.sck.GetOption(name)
}
func (s *pushSocket) SetOption(name string, value interface{}) error {
	return s.sck.SetOption(name, value)
}

var (
	_ Socket        = (*pushSocket)(nil)
	_ SocketPattern = (*pushPattern)(nil)
)
