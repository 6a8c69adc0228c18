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

// xpubPattern behaves like PUB on the send side (fan a publish out to
// every pipe whose Trie matches the topic) but, unlike PUB, surfaces
// each subscribe/unsubscribe as a [flag, topic...] message through Recv
// instead of consuming it silently — the caller decides what to do with
// subscription traffic rather than XPUB deciding for it.
type xpubPattern struct {
	mu      sync.Mutex
	subs    map[*Pipe]*Trie
	pipes   []*Pipe
	topics  map[string]int
	notify  [][]byte
	verbose bool
	manual  bool
	welcome []byte
}

func newXPubPattern() *xpubPattern {
	return &xpubPattern{subs: make(map[*Pipe]*Trie), topics: make(map[string]int)}
}

func (p *xpubPattern) setXPubVerbose(v bool) {
	p.mu.Lock()
	p.verbose = v
	p.mu.Unlock()
}

func (p *xpubPattern) setXPubManual(v bool) {
	p.mu.Lock()
	p.manual = v
	p.mu.Unlock()
}

func (p *xpubPattern) setXPubWelcome(msg []byte) {
	p.mu.Lock()
	p.welcome = msg
	p.mu.Unlock()
}

func (p *xpubPattern) XAttachPipe(pipe *Pipe, subscribe bool) {
	p.mu.Lock()
	p.subs[pipe] = NewTrie()
	p.pipes = append(p.pipes, pipe)
	welcome := p.welcome
	p.mu.Unlock()
	if len(welcome) > 0 {
		sendMsg(pipe, NewMsg(welcome))
	}
}

func (p *xpubPattern) XReadActivated(pipe *Pipe) {
	p.mu.Lock()
	trie := p.subs[pipe]
	verbose := p.verbose
	manual := p.manual
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
		var changed bool
		switch frame[0] {
		case 1:
			if manual {
				changed = true
			} else if trie.Add(frame[1:]) {
				changed = true
				p.topics[topic]++
			}
		case 0:
			if manual {
				changed = true
			} else if trie.Remove(frame[1:]) {
				changed = true
				if p.topics[topic]--; p.topics[topic] <= 0 {
					delete(p.topics, topic)
				}
			}
		}
		if changed || verbose {
			p.notify = append(p.notify, frame)
		}
		p.mu.Unlock()
	}
}

func (p *xpubPattern) XWriteActivated(pipe *Pipe) {}

func (p *xpubPattern) XTerminated(pipe *Pipe) {
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

func (p *xpubPattern) XSend(sb *SocketBase, msg Msg) error {
	var topic []byte
	if len(msg.Frames) > 0 {
		topic = msg.Frames[0]
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pipe := range p.pipes {
		trie := p.subs[pipe]
		if trie == nil || !trie.Match(topic) || !pipe.CheckWrite() {
			continue
		}
		sendMsg(pipe, msg)
	}
	return nil
}

func (p *xpubPattern) XRecv(sb *SocketBase) (Msg, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.notify) == 0 {
		return Msg{}, ErrAgain
	}
	frame := p.notify[0]
	p.notify = p.notify[1:]
	return NewMsg(frame), nil
}

func (p *xpubPattern) XHasIn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.notify) > 0
}

func (p *xpubPattern) XHasOut() bool { return true }

// Topics returns the sorted list of topics a socket is subscribed to.
func (p *xpubPattern) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.topics))
	for t := range p.topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// NewXPub returns a new XPUB ZeroMQ socket.
// The returned socket value is initially unbound.
func NewXPub(ctx context.Context, opts ...Option) Socket {
	return &xpubSocket{sck: newSocket(ctx, XPub, opts...)}
}

// xpubSocket is a XPUB ZeroMQ socket.
type xpubSocket struct {
	sck *socket
}

func (s *xpubSocket) Close() error       { return s.sck.Close() }
func (s *xpubSocket) Send(msg Msg) error { return s.sck.Send(msg) }
func (s *xpubSocket) SendMulti(msg Msg) error {
	return s.sck.SendMulti(msg)
}
func (s *xpubSocket) Recv() (Msg, error)     { return s.sck.Recv() }
func (s *xpubSocket) Listen(ep string) error { return s.sck.Listen(ep) }
func (s *xpubSocket) Dial(ep string) error   { return s.sck.Dial(ep) }
func (s *xpubSocket) Type() SocketType       { return s.sck.Type() }
func (s *xpubSocket) Addr() net.Addr         { return s.sck.Addr() }
func (s *xpubSocket) GetOption(name string) (interface{}, error) {
	return s.sck.GetOption(name)
}
func (s *xpubSocket) SetOption(name string, value interface{}) error {
	return s.sck.SetOption(name, value)
}

// Topics returns the sorted list of topics a socket is subscribed to.
func (s *xpubSocket) Topics() []string {
	return s.sck.topics()
}

var (
	_ Socket        = (*xpubSocket)(nil)
	_ Topics        = (*xpubSocket)(nil)
	_ SocketPattern = (*xpubPattern)(nil)
	_ topicsPattern = (*xpubPattern)(nil)
	_ xpubOptions   = (*xpubPattern)(nil)
)
