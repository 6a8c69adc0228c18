// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"context"
	"net"

	"github.com/pkg/errors"
)

// pullPattern fair-queues incoming messages across every pipe with data
// ready. It never has anything to send.
type pullPattern struct {
	pipes []*Pipe
	fq    fairQueue
}

func newPullPattern() *pullPattern { return &pullPattern{} }

func (p *pullPattern) XAttachPipe(pipe *Pipe, subscribe bool) {
	p.pipes = append(p.pipes, pipe)
}

func (p *pullPattern) XReadActivated(pipe *Pipe)  {}
func (p *pullPattern) XWriteActivated(pipe *Pipe) {}

func (p *pullPattern) XTerminated(pipe *Pipe) {
	for i, pp := range p.pipes {
		if pp == pipe {
			p.pipes = append(p.pipes[:i], p.pipes[i+1:]...)
			return
		}
	}
}

func (p *pullPattern) XSend(sb *SocketBase, msg Msg) error {
	return errors.Errorf("zmq4: PULL sockets can't send messages")
}

func (p *pullPattern) XRecv(sb *SocketBase) (Msg, error) {
	pipe := p.fq.pick(p.pipes)
	if pipe == nil {
		return Msg{}, ErrAgain
	}
	msg, ok := recvMsg(pipe)
	if !ok {
		return Msg{}, ErrAgain
	}
	return msg, nil
}

func (p *pullPattern) XHasIn() bool {
	for _, pipe := range p.pipes {
		if pipe.CheckRead() {
			return true
		}
	}
	return false
}

func (p *pullPattern) XHasOut() bool { return false }

// NewPull returns a new PULL ZeroMQ socket.
// The returned socket value is initially unbound.
func NewPull(ctx context.Context, opts ...Option) Socket {
	return &pullSocket{sck: newSocket(ctx, Pull, opts...)}
}

// pullSocket is a PULL ZeroMQ socket.
type pullSocket struct {
	sck *socket
}

func (s *pullSocket) Close() error { return s.sck.Close() }

// Send puts the message on the outbound send queue.
func (*pullSocket) Send(msg Msg) error {
	return errors.Errorf("zmq4: PULL sockets can't send messages")
}

func (*pullSocket) SendMulti(msg Msg) error {
	return errors.Errorf("zmq4: PULL sockets can't send messages")
}
func (s *pullSocket) Recv() (Msg, error)     { return s.sck.Recv() }
func (s *pullSocket) Listen(ep string) error { return s.sck.Listen(ep) }
func (s *pullSocket) Dial(ep string) error   { return s.sck.Dial(ep) }
func (s *pullSocket) Type() SocketType       { return s.sck.Type() }
func (s *pullSocket) Addr() net.Addr         { return s.sck.Addr() }
func (s *pullSocket) GetOption(name string) (interface{}, error) {
	return s.sck.GetOption(name)
}
func (s *pullSocket) SetOption(name string, value interface{}) error {
	return s.sck.SetOption(name, value)
}

var (
	_ Socket        = (*pullSocket)(nil)
	_ SocketPattern = (*pullPattern)(nil)
)
