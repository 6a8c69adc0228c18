// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package poller_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zmq4eng/zmq4"
	"github.com/zmq4eng/zmq4/poller"
)

func TestPollerSocketDelivery(t *testing.T) {
	ep := "inproc://poller-pushpull"

	push := zmq4.NewPush(context.Background(), zmq4.WithLogger(zmq4.Devnull))
	defer push.Close()
	pull := zmq4.NewPull(context.Background(), zmq4.WithLogger(zmq4.Devnull))
	defer pull.Close()

	if err := pull.Listen(ep); err != nil {
		t.Fatalf("could not listen: %+v", err)
	}
	if err := push.Dial(ep); err != nil {
		t.Fatalf("could not dial: %+v", err)
	}

	p := poller.New()
	var (
		mu   sync.Mutex
		got  []string
		done = make(chan struct{}, 1)
	)
	err := p.AddSocket(pull, func(s zmq4.Socket, msg zmq4.Msg, err error) {
		if err != nil {
			t.Errorf("socket handler error: %+v", err)
			return
		}
		mu.Lock()
		got = append(got, string(msg.Bytes()))
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("could not add socket: %+v", err)
	}
	defer p.RemoveSocket(pull)

	go func() {
		_ = push.Send(zmq4.NewMsgString("hello"))
	}()

	go p.PollTillCancelled()
	defer p.CancelAndJoin()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("got=%v, want=[hello]", got)
	}
}

func TestPollerTimer(t *testing.T) {
	p := poller.New()

	fired := make(chan struct{}, 1)
	p.AddTimer(20*time.Millisecond, false, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	go p.PollTillCancelled()
	defer p.CancelAndJoin()

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timer never fired")
	}
}

func TestPollerRemoveTimer(t *testing.T) {
	p := poller.New()

	fired := make(chan struct{}, 1)
	id := p.AddTimer(20*time.Millisecond, false, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	p.RemoveTimer(id)

	go p.PollTillCancelled()
	defer p.CancelAndJoin()

	select {
	case <-fired:
		t.Fatal("removed timer fired")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestPollerCancelAndJoin(t *testing.T) {
	p := poller.New()

	doneCh := make(chan struct{})
	go func() {
		_ = p.PollTillCancelled()
		close(doneCh)
	}()

	time.Sleep(10 * time.Millisecond)
	p.CancelAndJoin()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("PollTillCancelled did not exit after CancelAndJoin")
	}
}
