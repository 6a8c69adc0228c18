// Copyright 2024 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"context"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

// TestConnReaperDeadlock2 exercises the race between a ROUTER send in
// progress and the connPump for the same Conn failing mid-write and
// scheduling itself for removal: the reaper must be able to drain
// closedConns without the socket's own send path holding a lock it needs.
func TestConnReaperDeadlock2(t *testing.T) {
	ep := must(EndPoint("tcp"))
	defer cleanUp(ep)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewRouter(ctx, WithLogger(Devnull)).(*routerSocket)
	if err := srv.Listen(ep); err != nil {
		t.Fatalf("could not listen on %q: %+v", ep, err)
	}
	defer srv.Close()

	// Splice in connections backed by a Conn whose writes fail, so
	// sending to them forces the connPump to close and schedule
	// removal while srv.Send is still in flight.
	id := "client-x"
	for i := 0; i < 2; i++ {
		// Built by hand rather than through Open: a real handshake can
		// never complete over a rw that only ever returns EOF.
		c := &Conn{
			typ:     Router,
			rw:      &sockSendEOF{},
			sec:     nullSecurity{},
			server:  true,
			onClose: srv.sck.scheduleRmConn,
		}
		c.Peer.Meta = map[string]string{sysSockID: id}
		srv.sck.addConn(c)
	}

	msg := NewMsgFrom(nil, nil, []byte("payload"))
	msg.Frames[0] = []byte(id)
	if err := srv.Send(msg); err != nil {
		t.Logf("Send to %s failed: %+v\n", id, err)
	}

	// Give the failing pumps a chance to close and reach the reaper
	// before the test tears the socket down.
	time.Sleep(50 * time.Millisecond)
}

type sockSendEOF struct{}

var a atomic.Int32

// Write fails every call: odd calls fail immediately, even calls fail
// after a delay, so a Send in progress can overlap with the resulting
// connPump teardown landing on the reaper.
func (r *sockSendEOF) Write(b []byte) (n int, err error) {
	if x := a.Add(1); x&1 == 0 {
		time.Sleep(200 * time.Millisecond)
	}
	return 0, io.EOF
}

func (r *sockSendEOF) Read(b []byte) (int, error) {
	return 0, io.EOF
}

func (r *sockSendEOF) Close() error { return nil }

func (r *sockSendEOF) LocalAddr() net.Addr  { return nil }
func (r *sockSendEOF) RemoteAddr() net.Addr { return nil }

func (r *sockSendEOF) SetDeadline(t time.Time) error      { return nil }
func (r *sockSendEOF) SetReadDeadline(t time.Time) error  { return nil }
func (r *sockSendEOF) SetWriteDeadline(t time.Time) error { return nil }
