// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"context"
	"net"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// subPattern fans in data messages from every attached PUB/XPUB pipe and
// originates subscriptions: SetSubscription writes a [flag, topic...]
// control frame to every pipe so each publisher learns what this socket
// wants to receive. SUB never sends application data directly.
type subPattern struct {
	pipes []*Pipe
	fq    fairQueue

	mu     sync.RWMutex
	topics map[string]struct{}
}

func newSubPattern() *subPattern {
	return &subPattern{topics: make(map[string]struct{})}
}

func (p *subPattern) XAttachPipe(pipe *Pipe, subscribe bool) {
	p.pipes = append(p.pipes, pipe)

	p.mu.RLock()
	defer p.mu.RUnlock()
	for topic := range p.topics {
		p.send(pipe, topic, true)
	}
}

func (p *subPattern) XReadActivated(pipe *Pipe)  {}
func (p *subPattern) XWriteActivated(pipe *Pipe) {}

func (p *subPattern) XTerminated(pipe *Pipe) {
	for i, pp := range p.pipes {
		if pp == pipe {
			p.pipes = append(p.pipes[:i], p.pipes[i+1:]...)
			return
		}
	}
}

func (p *subPattern) send(pipe *Pipe, topic string, subscribe bool) {
	flag := byte(0)
	if subscribe {
		flag = 1
	}
	if !pipe.CheckWrite() {
		return
	}
	sendMsg(pipe, NewMsg(append([]byte{flag}, topic...)))
}

// SetSubscription updates the locally tracked topic set and notifies
// every attached publisher.
func (p *subPattern) SetSubscription(topic string, subscribe bool) {
	p.mu.Lock()
	if subscribe {
		p.topics[topic] = struct{}{}
	} else {
		delete(p.topics, topic)
	}
	p.mu.Unlock()

	for _, pipe := range p.pipes {
		p.send(pipe, topic, subscribe)
	}
}

func (p *subPattern) XSend(sb *SocketBase, msg Msg) error {
	return errors.Errorf("zmq4: SUB sockets can't send messages")
}

func (p *subPattern) XRecv(sb *SocketBase) (Msg, error) {
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

func (p *subPattern) XHasIn() bool {
	for _, pipe := range p.pipes {
		if pipe.CheckRead() {
			return true
		}
	}
	return false
}

func (p *subPattern) XHasOut() bool { return false }

// Topics returns the sorted list of topics a socket is subscribed to.
func (p *subPattern) Topics() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.topics))
	for t := range p.topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// NewSub returns a new SUB ZeroMQ socket.
// The returned socket value is initially unbound.
func NewSub(ctx context.Context, opts ...Option) Socket {
	return &subSocket{sck: newSocket(ctx, Sub, opts...)}
}

// subSocket is a SUB ZeroMQ socket.
type subSocket struct {
	sck *socket
}

func (s *subSocket) Close() error { return s.sck.Close() }

// Send puts the message on the outbound send queue.
func (s *subSocket) Send(msg Msg) error {
	return errors.Errorf("zmq4: SUB sockets can't send messages")
}

func (s *subSocket) SendMulti(msg Msg) error {
	return errors.Errorf("zmq4: SUB sockets can't send messages")
}
func (s *subSocket) Recv() (Msg, error)     { return s.sck.Recv() }
func (s *subSocket) Listen(ep string) error { return s.sck.Listen(ep) }
func (s *subSocket) Dial(ep string) error   { return s.sck.Dial(ep) }
func (s *subSocket) Type() SocketType       { return s.sck.Type() }
func (s *subSocket) Addr() net.Addr         { return s.sck.Addr() }
func (s *subSocket) GetOption(name string) (interface{}, error) {
	return s.sck.GetOption(name)
}

// SetOption sets an option for a socket, e.g. OptionSubscribe.
func (s *subSocket) SetOption(name string, value interface{}) error {
	return s.sck.SetOption(name, value)
}

// Topics returns the sorted list of topics a socket is subscribed to.
func (s *subSocket) Topics() []string {
	return s.sck.topics()
}

var (
	_ Socket            = (*subSocket)(nil)
	_ Topics            = (*subSocket)(nil)
	_ SocketPattern     = (*subPattern)(nil)
	_ topicsPattern     = (*subPattern)(nil)
	_ subscriberPattern = (*subPattern)(nil)
)
