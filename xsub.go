// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"context"
	"net"
	"sort"
	"sync"
)

// xsubPattern is SUB with subscriptions driven explicitly through Send
// rather than only through SetOption: a [1, topic...] or [0, topic...]
// frame sent by the application is forwarded to every attached PUB/XPUB
// pipe and folded into the locally tracked topic set. Any other Send is
// rejected, since XSUB itself never publishes data.
type xsubPattern struct {
	pipes []*Pipe
	fq    fairQueue

	mu     sync.RWMutex
	topics map[string]struct{}
}

func newXSubPattern() *xsubPattern {
	return &xsubPattern{topics: make(map[string]struct{})}
}

func (p *xsubPattern) XAttachPipe(pipe *Pipe, subscribe bool) {
	p.pipes = append(p.pipes, pipe)

	p.mu.RLock()
	defer p.mu.RUnlock()
	for topic := range p.topics {
		if pipe.CheckWrite() {
			sendMsg(pipe, NewMsg(append([]byte{1}, topic...)))
		}
	}
}

func (p *xsubPattern) XReadActivated(pipe *Pipe)  {}
func (p *xsubPattern) XWriteActivated(pipe *Pipe) {}

func (p *xsubPattern) XTerminated(pipe *Pipe) {
	for i, pp := range p.pipes {
		if pp == pipe {
			p.pipes = append(p.pipes[:i], p.pipes[i+1:]...)
			return
		}
	}
}

func (p *xsubPattern) SetSubscription(topic string, subscribe bool) {
	p.mu.Lock()
	if subscribe {
		p.topics[topic] = struct{}{}
	} else {
		delete(p.topics, topic)
	}
	p.mu.Unlock()

	flag := byte(0)
	if subscribe {
		flag = 1
	}
	for _, pipe := range p.pipes {
		if pipe.CheckWrite() {
			sendMsg(pipe, NewMsg(append([]byte{flag}, topic...)))
		}
	}
}

func (p *xsubPattern) XSend(sb *SocketBase, msg Msg) error {
	if len(msg.Frames) != 1 || len(msg.Frames[0]) == 0 {
		return ErrBadProperty
	}
	frame := msg.Frames[0]
	switch frame[0] {
	case 0, 1:
		p.SetSubscription(string(frame[1:]), frame[0] == 1)
		return nil
	default:
		return ErrBadProperty
	}
}

func (p *xsubPattern) XRecv(sb *SocketBase) (Msg, error) {
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

func (p *xsubPattern) XHasIn() bool {
	for _, pipe := range p.pipes {
		if pipe.CheckRead() {
			return true
		}
	}
	return false
}

func (p *xsubPattern) XHasOut() bool { return len(p.pipes) > 0 }

// Topics returns the sorted list of topics a socket is subscribed to.
func (p *xsubPattern) Topics() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.topics))
	for t := range p.topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// NewXSub returns a new XSUB ZeroMQ socket.
// The returned socket value is initially unbound.
func NewXSub(ctx context.Context, opts ...Option) Socket {
	return &xsubSocket{sck: newSocket(ctx, XSub, opts...)}
}

// xsubSocket is a XSUB ZeroMQ socket.
type xsubSocket struct {
	sck *socket
}

func (s *xsubSocket) Close() error       { return s.sck.Close() }
func (s *xsubSocket) Send(msg Msg) error { return s.sck.Send(msg) }
func (s *xsubSocket) SendMulti(msg Msg) error {
	return s.sck.SendMulti(msg)
}
func (s *xsubSocket) Recv() (Msg, error)     { return s.sck.Recv() }
func (s *xsubSocket) Listen(ep string) error { return s.sck.Listen(ep) }
func (s *xsubSocket) Dial(ep string) error   { return s.sck.Dial(ep) }
func (s *xsubSocket) Type() SocketType       { return s.sck.Type() }
func (s *xsubSocket) Addr() net.Addr         { return s.sck.Addr() }
func (s *xsubSocket) GetOption(name string) (interface{}, error) {
	return s.sck.GetOption(name)
}
func (s *xsubSocket) SetOption(name string, value interface{}) error {
	return s.sck.SetOption(name, value)
}

// Topics returns the sorted list of topics a socket is subscribed to.
func (s *xsubSocket) Topics() []string {
	return s.sck.topics()
}

var (
	_ Socket            = (*xsubSocket)(nil)
	_ Topics            = (*xsubSocket)(nil)
	_ SocketPattern     = (*xsubPattern)(nil)
	_ topicsPattern     = (*xsubPattern)(nil)
	_ subscriberPattern = (*xsubPattern)(nil)
)
