// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

// Topics is implemented by SUB/XSUB/PUB/XPUB sockets to expose the set
// of topics currently subscribed to.
type Topics interface {
	Topics() []string
}

// topicsPattern is the SocketPattern-side counterpart of Topics, used by
// socket.topics() to reach into the pattern without a socket-type switch.
type topicsPattern interface {
	Topics() []string
}

// subscriberPattern is implemented by SUB and XSUB patterns: the side
// that originates subscriptions rather than matching against them.
type subscriberPattern interface {
	SetSubscription(topic string, subscribe bool)
}

// xpubOptions is implemented by xpubPattern so the XPUB_VERBOSE,
// XPUB_MANUAL and XPUB_WELCOME_MSG options set through SetOption reach
// the pattern directly, the same way OptionSubscribe reaches
// subscriberPattern.
type xpubOptions interface {
	setXPubVerbose(bool)
	setXPubManual(bool)
	setXPubWelcome([]byte)
}

// reqOptions is implemented by reqPattern so REQ_CORRELATE and
// REQ_RELAXED reach the pattern's request/reply FSM directly.
type reqOptions interface {
	setReqCorrelate(bool)
	setReqRelaxed(bool)
}

// newSocketPattern constructs the SocketPattern implementation for typ.
// Context.NewSocket calls this exactly once per socket.
func newSocketPattern(typ SocketType) SocketPattern {
	switch typ {
	case Pair:
		return newPairPattern()
	case Push:
		return newPushPattern()
	case Pull:
		return newPullPattern()
	case Req:
		return newReqPattern()
	case Rep:
		return newRepPattern()
	case Dealer:
		return newDealerPattern()
	case Router:
		return newRouterPattern()
	case Pub:
		return newPubPattern()
	case Sub:
		return newSubPattern()
	case XPub:
		return newXPubPattern()
	case XSub:
		return newXSubPattern()
	default:
		return newDealerPattern()
	}
}

// roundRobin cycles through a slice of pipes, skipping any not currently
// writable, and remembering where it left off so repeated calls fan out
// evenly rather than always favoring the first ready pipe.
type roundRobin struct {
	next int
}

// pick returns the next writable pipe in pipes starting from where the
// last call left off, or nil if none are currently writable.
func (r *roundRobin) pick(pipes []*Pipe) *Pipe {
	n := len(pipes)
	if n == 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		idx := (r.next + i) % n
		if pipes[idx].CheckWrite() {
			r.next = (idx + 1) % n
			return pipes[idx]
		}
	}
	return nil
}

// fairQueue cycles through pipes looking for one with a Frame ready to
// read, the receive-side analogue of roundRobin.
type fairQueue struct {
	next int
}

func (f *fairQueue) pick(pipes []*Pipe) *Pipe {
	n := len(pipes)
	if n == 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		idx := (f.next + i) % n
		if pipes[idx].CheckRead() {
			f.next = (idx + 1) % n
			return pipes[idx]
		}
	}
	return nil
}

// recvMsg drains one full multi-part message (a run of Frames with
// FlagMore set, terminated by one without) off a single pipe.
func recvMsg(p *Pipe) (Msg, bool) {
	var frames [][]byte
	for {
		f, ok := p.Read()
		if !ok {
			if len(frames) == 0 {
				return Msg{}, false
			}
			// peer vanished mid-message: surface what we have.
			return Msg{Frames: frames}, true
		}
		frames = append(frames, f.Bytes())
		more := f.HasMore()
		f.Close()
		if !more {
			break
		}
	}
	return Msg{Frames: frames}, true
}

// splitEnvelope splits frames at the first zero-length frame: envelope
// is everything up to and including that delimiter, body is everything
// after it. Used by REQ/REP to round-trip whatever routing/correlation
// frames precede the delimiter without needing to know what they mean —
// REP just plays the envelope back verbatim on reply. If frames has no
// empty frame, the whole thing is returned as envelope and body is nil.
func splitEnvelope(frames [][]byte) (envelope, body [][]byte) {
	for i, f := range frames {
		if len(f) == 0 {
			return frames[:i+1], frames[i+1:]
		}
	}
	return frames, nil
}

// sendMsg writes every frame of msg to p as a single multi-part unit and
// flushes it. It does not check CheckWrite; callers do that first via
// roundRobin.pick or an equivalent direct check.
func sendMsg(p *Pipe, msg Msg) {
	frames := msg.Frames
	for i, b := range frames {
		fr := NewFrame(b)
		if i < len(frames)-1 {
			fr.Flags |= FlagMore
		}
		p.Write(fr)
	}
	p.Flush()
}
