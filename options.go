// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"log"
	"time"
)

// Option configures the transport-facing half of a ZeroMQ socket at
// construction time (identity, security, dial retry behavior, logging).
// Data-plane options (HWM, subscriptions, timeouts, ...) are runtime
// settable through GetOption/SetOption instead, since libzmq itself
// allows those to change after the socket is already connected.
type Option func(s *socket)

// WithID configures a ZeroMQ socket identity.
func WithID(id SocketIdentity) Option {
	return func(s *socket) {
		s.id = id
	}
}

// WithSecurity configures a ZeroMQ socket to use the given security mechanism.
// If the security mechanims is nil, the NULL mechanism is used.
func WithSecurity(sec Security) Option {
	return func(s *socket) {
		s.sec = sec
	}
}

// WithDialerRetry configures the time to wait before two failed attempts
// at dialing an endpoint.
func WithDialerRetry(retry time.Duration) Option {
	return func(s *socket) {
		s.retry = retry
	}
}

// WithDialerTimeout sets the maximum amount of time a dial will wait
// for a connect to complete.
func WithDialerTimeout(timeout time.Duration) Option {
	return func(s *socket) {
		s.dialer.Timeout = timeout
	}
}

// WithLogger sets a dedicated log.Logger for the socket.
func WithLogger(msg *log.Logger) Option {
	return func(s *socket) {
		s.log = msg
	}
}

// WithDialerMaxRetries configures the maximum number of retries
// when dialing an endpoint (-1 means infinite retries).
func WithDialerMaxRetries(maxRetries int) Option {
	return func(s *socket) {
		s.maxRetries = maxRetries
	}
}

// WithAutomaticReconnect allows to configure a socket to automatically
// reconnect on connection loss.
func WithAutomaticReconnect(automaticReconnect bool) Option {
	return func(s *socket) {
		s.autoReconnect = automaticReconnect
	}
}

// DefaultSendHwm is the high watermark new sockets use for both
// directions until SetOption(OptionHWM, ...) overrides it.
const DefaultSendHwm = 1000

// Socket option names recognized by GetOption/SetOption.
const (
	OptionSubscribe       = "SUBSCRIBE"
	OptionUnsubscribe     = "UNSUBSCRIBE"
	OptionHWM             = "HWM"
	OptionSendHWM         = "SNDHWM"
	OptionRecvHWM         = "RCVHWM"
	OptionSendTimeout     = "SNDTIMEO"
	OptionRecvTimeout     = "RCVTIMEO"
	OptionLinger          = "LINGER"
	OptionReconnectIvl    = "RECONNECT_IVL"
	OptionBacklog         = "BACKLOG"
	OptionRouterMandatory = "ROUTER_MANDATORY"
	OptionXPubVerbose     = "XPUB_VERBOSE"
	OptionXPubManual      = "XPUB_MANUAL"
	OptionXPubWelcomeMsg  = "XPUB_WELCOME_MSG"
	OptionReqCorrelate    = "REQ_CORRELATE"
	OptionReqRelaxed      = "REQ_RELAXED"
)

// socketOptions is the runtime-mutable option set every SocketBase
// carries, independent of its SocketPattern.
type socketOptions struct {
	identity []byte

	sndhwm, rcvhwm int
	sndtimeo       time.Duration
	rcvtimeo       time.Duration
	linger         time.Duration
	reconnectIvl   time.Duration
	backlog        int

	routerMandatory bool
	xpubVerbose     bool
	xpubManual      bool
	xpubWelcome     []byte
	reqCorrelate    bool
	reqRelaxed      bool
}

func defaultSocketOptions() socketOptions {
	return socketOptions{
		sndhwm:       DefaultSendHwm,
		rcvhwm:       DefaultSendHwm,
		sndtimeo:     -1,
		rcvtimeo:     -1,
		linger:       30 * time.Second,
		reconnectIvl: defaultRetry,
		backlog:      128,
	}
}

// getSockOpt retrieves an option previously set with setSockOpt.
// OptionSubscribe and OptionUnsubscribe are set-only and return
// ErrBadProperty.
func getSockOpt(sb *SocketBase, name string) (interface{}, error) {
	opts := sb.Options()
	switch name {
	case OptionHWM, OptionSendHWM:
		return opts.sndhwm, nil
	case OptionRecvHWM:
		return opts.rcvhwm, nil
	case OptionSendTimeout:
		return opts.sndtimeo, nil
	case OptionRecvTimeout:
		return opts.rcvtimeo, nil
	case OptionLinger:
		return opts.linger, nil
	case OptionReconnectIvl:
		return opts.reconnectIvl, nil
	case OptionBacklog:
		return opts.backlog, nil
	case OptionRouterMandatory:
		return opts.routerMandatory, nil
	case OptionXPubVerbose:
		return opts.xpubVerbose, nil
	case OptionXPubManual:
		return opts.xpubManual, nil
	case OptionXPubWelcomeMsg:
		return string(opts.xpubWelcome), nil
	case OptionReqCorrelate:
		return opts.reqCorrelate, nil
	case OptionReqRelaxed:
		return opts.reqRelaxed, nil
	default:
		return nil, ErrBadProperty
	}
}

// setSockOpt sets a socket option, delegating to the SocketPattern when
// the option is pattern-specific (e.g. SUBSCRIBE only makes sense on a
// SocketPattern that tracks topics).
func setSockOpt(sb *SocketBase, name string, value interface{}) error {
	sb.mu.Lock()
	switch name {
	case OptionHWM, OptionSendHWM:
		n, ok := value.(int)
		if !ok {
			sb.mu.Unlock()
			return ErrBadProperty
		}
		sb.opts.sndhwm = n
	case OptionRecvHWM:
		n, ok := value.(int)
		if !ok {
			sb.mu.Unlock()
			return ErrBadProperty
		}
		sb.opts.rcvhwm = n
	case OptionSendTimeout:
		d, ok := value.(time.Duration)
		if !ok {
			sb.mu.Unlock()
			return ErrBadProperty
		}
		sb.opts.sndtimeo = d
	case OptionRecvTimeout:
		d, ok := value.(time.Duration)
		if !ok {
			sb.mu.Unlock()
			return ErrBadProperty
		}
		sb.opts.rcvtimeo = d
	case OptionLinger:
		d, ok := value.(time.Duration)
		if !ok {
			sb.mu.Unlock()
			return ErrBadProperty
		}
		sb.opts.linger = d
	case OptionReconnectIvl:
		d, ok := value.(time.Duration)
		if !ok {
			sb.mu.Unlock()
			return ErrBadProperty
		}
		sb.opts.reconnectIvl = d
	case OptionBacklog:
		n, ok := value.(int)
		if !ok {
			sb.mu.Unlock()
			return ErrBadProperty
		}
		sb.opts.backlog = n
	case OptionRouterMandatory:
		b, ok := value.(bool)
		if !ok {
			sb.mu.Unlock()
			return ErrBadProperty
		}
		sb.opts.routerMandatory = b
	case OptionXPubVerbose:
		b, ok := value.(bool)
		if !ok {
			sb.mu.Unlock()
			return ErrBadProperty
		}
		sb.opts.xpubVerbose = b
		if xp, ok := sb.pattern.(xpubOptions); ok {
			xp.setXPubVerbose(b)
		}
	case OptionXPubManual:
		b, ok := value.(bool)
		if !ok {
			sb.mu.Unlock()
			return ErrBadProperty
		}
		sb.opts.xpubManual = b
		if xp, ok := sb.pattern.(xpubOptions); ok {
			xp.setXPubManual(b)
		}
	case OptionXPubWelcomeMsg:
		b, ok := value.(string)
		if !ok {
			sb.mu.Unlock()
			return ErrBadProperty
		}
		sb.opts.xpubWelcome = []byte(b)
		if xp, ok := sb.pattern.(xpubOptions); ok {
			xp.setXPubWelcome([]byte(b))
		}
	case OptionReqCorrelate:
		b, ok := value.(bool)
		if !ok {
			sb.mu.Unlock()
			return ErrBadProperty
		}
		sb.opts.reqCorrelate = b
		if rp, ok := sb.pattern.(reqOptions); ok {
			rp.setReqCorrelate(b)
		}
	case OptionReqRelaxed:
		b, ok := value.(bool)
		if !ok {
			sb.mu.Unlock()
			return ErrBadProperty
		}
		sb.opts.reqRelaxed = b
		if rp, ok := sb.pattern.(reqOptions); ok {
			rp.setReqRelaxed(b)
		}
	case OptionSubscribe, OptionUnsubscribe:
		sb.mu.Unlock()
		if sp, ok := sb.pattern.(subscriberPattern); ok {
			topic, ok := value.(string)
			if !ok {
				return ErrBadProperty
			}
			sp.SetSubscription(topic, name == OptionSubscribe)
			return nil
		}
		return ErrBadProperty
	default:
		sb.mu.Unlock()
		return ErrBadProperty
	}
	sb.mu.Unlock()
	return nil
}
