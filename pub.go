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

// pubPattern fans a publish out to every attached pipe whose peer has
// subscribed to a prefix of the message's first frame. Subscriptions
// arrive as ordinary Frames on the inbound side of a pipe (a SUB or XSUB
// peer writes a [flag, topic...] frame instead of a data message); they
// never reach the application and are instead folded straight into that
// pipe's Trie by XReadActivated.
type pubPattern struct {
	mu    sync.Mutex
	subs  map[*Pipe]*Trie
	pipes []*Pipe
	topics map[string]int
}

func newPubPattern() *pubPattern {
	return &pubPattern{subs: make(map[*Pipe]*Trie), topics: make(map[string]int)}
}

func (p *pubPattern) XAttachPipe(pipe *Pipe, subscribe bool) {
	p.mu.Lock()
	p.subs[pipe] = NewTrie()
	p.pipes = append(p.pipes, pipe)
	p.mu.Unlock()
}

// XReadActivated drains subscription control frames off pipe's inbound
// side and folds them into its Trie; PUB never surfaces them via XRecv.
func (p *pubPattern) XReadActivated(pipe *Pipe) {
	p.mu.Lock()
	trie := p.subs[pipe]
	p.mu.Unlock()
	if trie == nil {
		return
	}
	for pipe.CheckRead() {
		f, ok := pipe.Read()
		if !ok {
			return
		}
		frame := f.Bytes()
		f.Close()
		if len(frame) == 0 {
			continue
		}
		topic := string(frame[1:])
		p.mu.Lock()
		switch frame[0] {
		case 1:
			if trie.Add(frame[1:]) {
				p.topics[topic]++
			}
		case 0:
			if trie.Remove(frame[1:]) {
				if p.topics[topic]--; p.topics[topic] <= 0 {
					delete(p.topics, topic)
				}
			}
		}
		p.mu.Unlock()
	}
}

func (p *pubPattern) XWriteActivated(pipe *Pipe) {}

func (p *pubPattern) XTerminated(pipe *Pipe) {
	p.mu.Lock()
	delete(p.subs, pipe)
	for i, pp := range p.pipes {
		if pp == pipe {
			p.pipes = append(p.pipes[:i], p.pipes[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
}

func (p *pubPattern) XSend(sb *SocketBase, msg Msg) error {
	var topic []byte
	if len(msg.Frames) > 0 {
		topic = msg.Frames[0]
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pipe := range p.pipes {
		trie := p.subs[pipe]
		if trie == nil || !trie.Match(topic) {
			continue
		}
		if !pipe.CheckWrite() {
			continue
		}
		sendMsg(pipe, msg)
	}
	return nil
}

func (p *pubPattern) XRecv(sb *SocketBase) (Msg, error) {
	return Msg{}, errors.Errorf("zmq4: PUB sockets can't recv messages")
}

func (p *pubPattern) XHasIn() bool  { return false }
func (p *pubPattern) XHasOut() bool { return true }

// Topics returns the sorted list of topics a socket is subscribed to.
func (p *pubPattern) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.topics))
	for t := range p.topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// NewPub returns a new PUB ZeroMQ socket.
// The returned socket value is initially unbound.
func NewPub(ctx context.Context, opts ...Option) Socket {
	return &pubSocket{sck: newSocket(ctx, Pub, opts...)}
}

// pubSocket is a PUB ZeroMQ socket.
type pubSocket struct {
	sck *socket
}

func (s *pubSocket) Close() error       { return s.sck.Close() }
func (s *pubSocket) Send(msg Msg) error { return s.sck.Send(msg) }
func (s *pubSocket) SendMulti(msg Msg) error {
	return s.sck.SendMulti(msg)
}

// Recv receives a complete message.
func (*pubSocket) Recv() (Msg, error) {
	return Msg{}, errors.Errorf("zmq4: PUB sockets can't recv messages")
}
func (s *pubSocket) Listen(ep string) error { return s.sck.Listen(ep) }
func (s *pubSocket) Dial(ep string) error   { return s.sck.Dial(ep) }
func (s *pubSocket) Type() SocketType       { return s.sck.Type() }
func (s *pubSocket) Addr() net.Addr         { return s.sck.Addr() }
func (s *pubSocket) GetOption(name string) (interface{}, error) {
	return s.sck.GetOption(name)
}
func (s *pubSocket) SetOption(name string, value interface{}) error {
	return s.sck.SetOption(name, value)
}

// Topics returns the sorted list of topics a socket is subscribed to.
func (s *pubSocket) Topics() []string {
	return s.sck.topics()
}

var (
	_ Socket        = (*pubSocket)(nil)
	_ Topics        = (*pubSocket)(nil)
	_ SocketPattern = (*pubPattern)(nil)
	_ topicsPattern = (*pubPattern)(nil)
)
