// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultRetry   = 250 * time.Millisecond
	defaultTimeout = 5 * time.Minute
)

// socket is the transport-facing half of every concrete socket type: it
// owns the listener/dialer, the live Conns and the pump goroutine that
// bridges each Conn to a Pipe attached to the SocketBase. The data-plane
// and option-plane logic lives in SocketBase and its SocketPattern; this
// type exists purely to keep the wire-level connection bookkeeping out
// of that layer, the same separation the Session/Engine split draws.
type socket struct {
	ep            string
	typ           SocketType
	id            SocketIdentity
	retry         time.Duration
	maxRetries    int
	autoReconnect bool
	sec           Security
	log           *log.Logger

	sb *SocketBase

	mu    sync.RWMutex
	conns []*Conn

	ctx      context.Context
	cancel   context.CancelFunc
	listener net.Listener
	dialer   net.Dialer

	closedConns []*Conn
	reaperCond  *sync.Cond
}

func newDefaultSocket(ctx context.Context, sockType SocketType) *socket {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &socket{
		typ:        sockType,
		retry:      defaultRetry,
		maxRetries: 10,
		sec:        nullSecurity{},
		ctx:        ctx,
		cancel:     cancel,
		dialer:     net.Dialer{Timeout: defaultTimeout},
		reaperCond: sync.NewCond(&sync.Mutex{}),
	}
}

func newSocket(ctx context.Context, sockType SocketType, opts ...Option) *socket {
	sck := newDefaultSocket(ctx, sockType)
	for _, opt := range opts {
		opt(sck)
	}
	if len(sck.id) == 0 {
		sck.id = SocketIdentity(newUUID())
	}
	if sck.log == nil {
		sck.log = log.New(os.Stderr, "zmq4: ", 0)
	}

	sb, err := defaultContext.NewSocket(sockType)
	if err != nil {
		// defaultContext enforces MaxSockets; a brand new process
		// hitting that on its very first socket is a configuration
		// error worth failing loudly on rather than threading an
		// error return through every NewXxx constructor.
		panic(err)
	}
	sck.sb = sb
	if len(sck.id) > 0 {
		sb.opts.identity = []byte(sck.id)
	}

	return sck
}

func (sck *socket) topics() []string {
	if sp, ok := sck.sb.pattern.(topicsPattern); ok {
		return sp.Topics()
	}
	return nil
}

// Close closes the open Socket.
func (sck *socket) Close() error {
	sck.cancel()
	sck.reaperCond.Signal()

	if sck.listener != nil {
		defer sck.listener.Close()
	}

	sck.mu.RLock()
	conns := append([]*Conn(nil), sck.conns...)
	sck.mu.RUnlock()

	var err error
	for _, conn := range conns {
		e := conn.Close()
		if e != nil && err == nil {
			err = e
		}
	}

	if sck.listener != nil && strings.HasPrefix(sck.ep, "ipc://") {
		os.Remove(sck.ep[len("ipc://"):])
	}

	sck.sb.Close()
	return err
}

// Send puts the message on the outbound send queue. Send blocks until
// the message can be queued or the send deadline expires.
func (sck *socket) Send(msg Msg) error {
	return sck.sb.Send(msg, sck.sb.Options().sndtimeo)
}

// SendMulti puts the message on the outbound send queue as a multi-part
// message.
func (sck *socket) SendMulti(msg Msg) error {
	msg.multipart = true
	return sck.sb.Send(msg, sck.sb.Options().sndtimeo)
}

// Recv receives a complete message.
func (sck *socket) Recv() (Msg, error) {
	return sck.sb.Recv(sck.sb.Options().rcvtimeo)
}

// Listen binds a local endpoint to the Socket.
func (sck *socket) Listen(endpoint string) error {
	sck.ep = endpoint
	network, addr, err := splitAddr(endpoint)
	if err != nil {
		return err
	}

	trans, ok := drivers.get(network)
	if !ok {
		return errors.Wrapf(ErrProtocolNotSupported, "zmq4: protocol %q", network)
	}
	l, err := trans.Listen(sck.ctx, addr)
	if err != nil {
		return fmt.Errorf("zmq4: could not listen to %q: %w", endpoint, err)
	}
	sck.listener = l

	go sck.accept()
	go sck.connReaper()

	return nil
}

func (sck *socket) accept() {
	ctx, cancel := context.WithCancel(sck.ctx)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := sck.listener.Accept()
			if err != nil {
				continue
			}

			zconn, err := Open(conn, sck.sec, sck.typ, sck.id, true, sck.scheduleRmConn)
			if err != nil {
				sck.log.Printf("could not open a ZMTP connection with %q: %+v", sck.ep, err)
				continue
			}

			sck.addConn(zconn)
		}
	}
}

// Dial connects a remote endpoint to the Socket.
func (sck *socket) Dial(endpoint string) error {
	sck.ep = endpoint

	network, addr, err := splitAddr(endpoint)
	if err != nil {
		return err
	}

	trans, ok := drivers.get(network)
	if !ok {
		return errors.Wrapf(ErrProtocolNotSupported, "zmq4: protocol %q", network)
	}

	var conn net.Conn
	for retries := 0; ; retries++ {
		conn, err = trans.Dial(sck.ctx, &sck.dialer, addr)
		if err == nil {
			break
		}
		if sck.maxRetries >= 0 && retries >= sck.maxRetries {
			return fmt.Errorf("zmq4: could not dial to %q (retry=%v): %w", endpoint, sck.retry, err)
		}
		if sck.ctx.Err() != nil {
			return fmt.Errorf("zmq4: could not dial to %q (retry=%v): %w", endpoint, sck.retry, err)
		}
		time.Sleep(sck.retry)
	}

	if conn == nil {
		return fmt.Errorf("zmq4: got a nil dial-conn to %q", endpoint)
	}

	zconn, err := Open(conn, sck.sec, sck.typ, sck.id, false, sck.scheduleRmConn)
	if err != nil {
		return fmt.Errorf("zmq4: could not open a ZMTP connection: %w", err)
	}
	if zconn == nil {
		return fmt.Errorf("zmq4: got a nil ZMTP connection to %q", endpoint)
	}
	zconn.dialEndpoint = endpoint

	go sck.connReaper()
	sck.addConn(zconn)
	return nil
}

// redial re-establishes a client-side connection that dropped, retrying
// with the socket's configured backoff until it succeeds or the socket
// is closed. Only called when WithAutomaticReconnect(true) is set.
func (sck *socket) redial(endpoint string) {
	for {
		if sck.ctx.Err() != nil {
			return
		}
		if err := sck.Dial(endpoint); err != nil {
			sck.log.Printf("could not reconnect to %q: %+v", endpoint, err)
			select {
			case <-sck.ctx.Done():
				return
			case <-time.After(sck.retry):
			}
			continue
		}
		return
	}
}

// addConn splices a freshly handshaken Conn into the socket: a Pipe pair
// is created, one end attached to the SocketBase/pattern, the other
// pumped against the wire by connPump.
func (sck *socket) addConn(c *Conn) {
	sck.mu.Lock()
	sck.conns = append(sck.conns, c)
	sck.mu.Unlock()

	hwm := sck.sb.Options().sndhwm
	pipe, peerPipe := NewPipePair(hwm)
	pipe.Identity = []byte(c.Peer.Meta[sysSockID])

	sck.sb.AttachPipe(pipe, sck.typ == Sub)

	go runConnPump(sck.ctx, c, peerPipe, sck.sb, pipe)
}

func (sck *socket) rmConn(c *Conn) {
	sck.mu.Lock()
	defer sck.mu.Unlock()

	cur := -1
	for i := range sck.conns {
		if sck.conns[i] == c {
			cur = i
			break
		}
	}
	if cur == -1 {
		return
	}
	sck.conns = append(sck.conns[:cur], sck.conns[cur+1:]...)
}

func (sck *socket) scheduleRmConn(c *Conn) {
	sck.reaperCond.L.Lock()
	sck.closedConns = append(sck.closedConns, c)
	sck.reaperCond.Signal()
	sck.reaperCond.L.Unlock()
}

// Type returns the type of this Socket (PUB, SUB, ...).
func (sck *socket) Type() SocketType {
	return sck.typ
}

// Addr returns the listener's address, or nil if the socket isn't a
// listener.
func (sck *socket) Addr() net.Addr {
	if sck.listener == nil {
		return nil
	}
	return sck.listener.Addr()
}

// GetOption retrieves an option previously set with SetOption.
func (sck *socket) GetOption(name string) (interface{}, error) {
	return getSockOpt(sck.sb, name)
}

// SetOption sets an option for a socket, e.g. OptionSubscribe or
// OptionHWM. Subscription changes are propagated to attached pipes by
// the socket's SocketPattern, not by this method.
func (sck *socket) SetOption(name string, value interface{}) error {
	return setSockOpt(sck.sb, name, value)
}

func (sck *socket) connReaper() {
	sck.reaperCond.L.Lock()
	defer sck.reaperCond.L.Unlock()

	for {
		for len(sck.closedConns) == 0 && sck.ctx.Err() == nil {
			sck.reaperCond.Wait()
		}

		if sck.ctx.Err() != nil {
			return
		}

		for _, c := range sck.closedConns {
			sck.rmConn(c)
			if sck.autoReconnect && !c.server && c.dialEndpoint != "" {
				go sck.redial(c.dialEndpoint)
			}
		}
		sck.closedConns = nil
	}
}

var (
	_ Socket = (*socket)(nil)
)
