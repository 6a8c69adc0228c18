// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"context"
	"net"
)

// dealerPattern is REQ/REP without the lock-step FSM: Send round-robins,
// Recv fair-queues, and the caller is responsible for any envelope
// framing it needs (e.g. when talking to a ROUTER).
type dealerPattern struct {
	pipes []*Pipe
	lb    roundRobin
	fq    fairQueue
}

func newDealerPattern() *dealerPattern { return &dealerPattern{} }

func (p *dealerPattern) XAttachPipe(pipe *Pipe, subscribe bool) {
	p.pipes = append(p.pipes, pipe)
}

func (p *dealerPattern) XReadActivated(pipe *Pipe)  {}
func (p *dealerPattern) XWriteActivated(pipe *Pipe) {}

func (p *dealerPattern) XTerminated(pipe *Pipe) {
	for i, pp := range p.pipes {
		if pp == pipe {
			p.pipes = append(p.pipes[:i], p.pipes[i+1:]...)
			return
		}
	}
}

func (p *dealerPattern) XSend(sb *SocketBase, msg Msg) error {
	pipe := p.lb.pick(p.pipes)
	if pipe == nil {
		return ErrAgain
	}
	sendMsg(pipe, msg)
	return nil
}

func (p *dealerPattern) XRecv(sb *SocketBase) (Msg, error) {
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

func (p *dealerPattern) XHasIn() bool {
	for _, pipe := range p.pipes {
		if pipe.CheckRead() {
			return true
		}
	}
	return false
}

func (p *dealerPattern) XHasOut() bool {
	for _, pipe := range p.pipes {
		if pipe.CheckWrite() {
			return true
		}
	}
	return false
}

// NewDealer returns a new DEALER ZeroMQ socket.
// The returned socket value is initially unbound.
func NewDealer(ctx context.Context, opts ...Option) Socket {
	return &dealerSocket{sck: newSocket(ctx, Dealer, opts...)}
}

// dealerSocket is a DEALER ZeroMQ socket.
type dealerSocket struct {
	sck *socket
}

func (s *dealerSocket) Close() error       { return s.sck.Close() }
func (s *dealerSocket) Send(msg Msg) error { return s.sck.Send(msg) }
func (s *dealerSocket) SendMulti(msg Msg) error {
	return s.sck.SendMulti(msg)
}
func (s *dealerSocket) Recv() (Msg, error)     { return s.sck.Recv() }
func (s *dealerSocket) Listen(ep string) error { return s.sck.Listen(ep) }
func (s *dealerSocket) Dial(ep string) error   { return s.sck.Dial(ep) }
func (s *dealerSocket) Type() SocketType       { return s.sck.Type() }
func (s *dealerSocket) Addr() net.Addr         { return s.sck.Addr() }
func (s *dealerSocket) GetOption(name string) (interface{}, error) {
	return s.sck.GetOption(name)
}
func (s *dealerSocket) SetOption(name string, value interface{}) error {
	return s.sck.SetOption(name, value)
}

var (
	_ Socket        = (*dealerSocket)(nil)
	_ SocketPattern = (*dealerPattern)(nil)
)
