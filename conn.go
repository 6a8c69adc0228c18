// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Conn implements the ZeroMQ Message Transport Protocol as defined
// in https://rfc.zeromq.org/spec:23/ZMTP/. It is the Engine half of the
// Session/Engine split: SendMsg/RecvMsg move whole ZMTP messages across
// the wire, while a socket's connPump translates those into Frames on a
// Pipe attached to the socket's SocketBase.
type Conn struct {
	typ    SocketType
	id     SocketIdentity
	rw     io.ReadWriteCloser
	sec    Security
	server bool
	Meta   Metadata

	// dialEndpoint is set on client-side Conns to the endpoint it was
	// dialed from, so a socket with automatic reconnect enabled knows
	// where to redial after this Conn closes.
	dialEndpoint string
	Peer   struct {
		Server bool
		Meta   Metadata
	}

	onClose func(*Conn)
}

func (c *Conn) Close() error {
	err := c.rw.Close()
	if c.onClose != nil {
		c.onClose(c)
	}
	return err
}

func (c *Conn) Read(p []byte) (int, error) {
	return c.rw.Read(p)
}

func (c *Conn) Write(p []byte) (int, error) {
	return c.rw.Write(p)
}

// Open opens a ZMTP connection over rw with the given security, socket
// type and identity, and performs a complete ZMTP handshake. onClose, if
// non-nil, is invoked once the connection is closed, so the owning
// socket can schedule its removal.
func Open(rw io.ReadWriteCloser, sec Security, sockType SocketType, sockID SocketIdentity, server bool, onClose func(*Conn)) (*Conn, error) {
	if rw == nil {
		return nil, errors.Errorf("zmq4: invalid nil read-writer")
	}

	if sec == nil {
		return nil, errors.Errorf("zmq4: invalid nil security")
	}

	conn := &Conn{
		typ:     sockType,
		id:      sockID,
		rw:      rw,
		sec:     sec,
		server:  server,
		Meta:    nil,
		onClose: onClose,
	}

	err := conn.init(sec)
	if err != nil {
		return nil, err
	}

	return conn, nil
}

// init performs a ZMTP handshake over an io.ReadWriter
func (conn *Conn) init(sec Security) error {
	var err error

	err = conn.greet(conn.server)
	if err != nil {
		return errors.Wrapf(err, "zmq4: could not exchange greetings")
	}

	err = conn.sec.Handshake(conn, conn.server)
	if err != nil {
		return errors.Wrapf(err, "zmq4: could not perform security handshake")
	}

	err = conn.sendMD(conn.Meta)
	if err != nil {
		return errors.Wrapf(err, "zmq4: could not send metadata to peer")
	}

	conn.Peer.Meta, err = conn.recvMD()
	if err != nil {
		return errors.Wrapf(err, "zmq4: could not recv metadata from peer")
	}

	if _, ok := conn.Peer.Meta[sysSockID]; !ok {
		if conn.Peer.Meta == nil {
			conn.Peer.Meta = make(map[string]string)
		}
		conn.Peer.Meta[sysSockID] = newUUID()
	}

	return nil
}

func (conn *Conn) greet(server bool) error {
	var err error
	send := greeting{Version: defaultVersion}
	send.Sig.Header = sigHeader
	send.Sig.Footer = sigFooter
	kind := string(conn.sec.Type())
	if len(kind) > len(send.Mechanism) {
		return errSecMech
	}
	copy(send.Mechanism[:], kind)

	err = send.write(conn.rw)
	if err != nil {
		return errors.Wrapf(err, "zmq4: could not send greeting")
	}

	var recv greeting
	err = recv.read(conn.rw)
	if err != nil {
		return errors.Wrapf(err, "zmq4: could not recv greeting")
	}

	peerKind := asString(recv.Mechanism[:])
	if peerKind != kind {
		return errBadSec
	}

	conn.Peer.Server, err = asBool(recv.Server)
	if err != nil {
		return errors.Wrapf(err, "zmq4: could not get peer server flag")
	}

	return nil
}

func (c *Conn) sendMD(appMD map[string]string) error {
	md, err := c.metadata(appMD)
	if err != nil {
		return err
	}
	return c.SendCmd(CmdReady, md)
}

// Metadata returns the ZMTP-serialized metadata for this connection.
func (c *Conn) Metadata() ([]byte, error) {
	return c.metadata(c.Meta)
}

func (c *Conn) metadata(appMD map[string]string) ([]byte, error) {
	buf := new(bytes.Buffer)
	keys := make(map[string]struct{})

	for k, v := range appMD {
		if len(k) == 0 {
			return nil, errEmptyAppMDKey
		}

		key := strings.ToLower(k)
		if _, dup := keys[key]; dup {
			return nil, errDupAppMDKey
		}

		keys[key] = struct{}{}
		if _, err := io.Copy(buf, Property{K: "X-" + key, V: v}); err != nil {
			return nil, err
		}
	}

	if _, err := io.Copy(buf, Property{K: sysSockType, V: string(c.typ)}); err != nil {
		return nil, err
	}
	if _, err := io.Copy(buf, Property{K: sysSockID, V: c.id.String()}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Conn) recvMD() (map[string]string, error) {
	msg := c.read()
	if msg.err != nil {
		return nil, msg.err
	}

	if !msg.isCmd() {
		return nil, ErrBadFrame
	}

	var cmd Cmd
	err := cmd.unmarshalZMTP(msg.Frames[0])
	if err != nil {
		return nil, err
	}

	if cmd.Name != CmdReady {
		return nil, ErrBadCmd
	}

	sysMetadata := make(map[string]string)
	appMetadata := make(map[string]string)
	i := 0
	for i < len(cmd.Body) {
		var kv Property
		n, err := kv.Write(cmd.Body[i:])
		if err != nil {
			return nil, err
		}
		i += n

		name := strings.Title(kv.K)
		if strings.HasPrefix(name, "X-") {
			appMetadata[name] = kv.V
		} else {
			sysMetadata[name] = kv.V
			appMetadata[name] = kv.V
		}
	}

	peer := SocketType(sysMetadata[sysSockType])
	if !peer.IsCompatible(c.typ) {
		return nil, errors.Errorf("zmq4: peer=%q not compatible with %q", peer, c.typ)
	}
	return appMetadata, nil
}

// SendCmd sends a ZMTP command over the wire.
func (c *Conn) SendCmd(name string, body []byte) error {
	cmd := Cmd{Name: name, Body: body}
	buf, err := cmd.marshalZMTP()
	if err != nil {
		return err
	}
	return c.send(true, buf, 0)
}

// SendMsg sends a ZMTP message over the wire.
func (c *Conn) SendMsg(msg Msg) error {
	nframes := len(msg.Frames)
	for i, frame := range msg.Frames {
		var flag byte
		if i < nframes-1 {
			flag ^= hasMoreBitFlag
		}
		err := c.send(false, frame, flag)
		if err != nil {
			return errors.Wrapf(err, "zmq4: error sending frame %d/%d", i+1, nframes)
		}
	}
	return nil
}

// RecvMsg receives a ZMTP message from the wire.
func (c *Conn) RecvMsg() (Msg, error) {
	msg := c.read()
	if msg.err != nil {
		return msg, errors.WithStack(msg.err)
	}

	if !msg.isCmd() {
		return msg, nil
	}

	switch len(msg.Frames) {
	case 0:
		msg.err = errors.Errorf("zmq4: empty command")
		return msg, msg.err
	case 1:
		// ok
	default:
		msg.err = errors.Errorf("zmq4: invalid length command")
		return msg, msg.err
	}

	var cmd Cmd
	msg.err = cmd.unmarshalZMTP(msg.Frames[0])
	if msg.err != nil {
		return msg, errors.WithStack(msg.err)
	}

	switch cmd.Name {
	case CmdPing:
		msg.err = c.SendCmd(CmdPong, nil)
		if msg.err != nil {
			return msg, msg.err
		}
	}

	switch len(cmd.Body) {
	case 0:
		msg.Frames = nil
	default:
		msg.Frames = msg.Frames[:1]
		msg.Frames[0] = cmd.Body
	}
	return msg, nil
}

func (c *Conn) RecvCmd() (Cmd, error) {
	var cmd Cmd
	msg := c.read()
	if msg.err != nil {
		return cmd, errors.WithStack(msg.err)
	}

	if !msg.isCmd() {
		return cmd, ErrBadFrame
	}

	switch len(msg.Frames) {
	case 0:
		msg.err = errors.Errorf("zmq4: empty command")
		return cmd, msg.err
	case 1:
		// ok
	default:
		msg.err = errors.Errorf("zmq4: invalid length command")
		return cmd, msg.err
	}

	err := cmd.unmarshalZMTP(msg.Frames[0])
	if err != nil {
		return cmd, errors.WithStack(err)
	}

	return cmd, nil
}

func (c *Conn) send(isCommand bool, body []byte, flag byte) error {
	size := len(body)
	isLong := size > 255
	if isLong {
		flag ^= isLongBitFlag
	}

	if isCommand {
		flag ^= isCommandBitFlag
	}

	var (
		hdr = [8 + 1]byte{flag}
		hsz int
	)

	if isLong {
		hsz = 9
		binary.BigEndian.PutUint64(hdr[1:], uint64(size))
	} else {
		hsz = 2
		hdr[1] = uint8(size)
	}
	if _, err := c.rw.Write(hdr[:hsz]); err != nil {
		return err
	}

	if _, err := c.sec.Encrypt(c.rw, body); err != nil {
		return err
	}

	return nil
}

// read returns one Msg holding the frames read (Type CmdMsg for a command),
// with any read error in its err field.
func (c *Conn) read() Msg {
	var (
		header  [2]byte
		longHdr [8]byte
		msg     Msg

		hasMore = true
		isCmd   = false
	)

	for hasMore {
		_, msg.err = io.ReadFull(c.rw, header[:])
		if msg.err != nil {
			return msg
		}

		fl := flag(header[0])

		hasMore = fl.hasMore()
		isCmd = isCmd || fl.isCommand()

		size := uint64(header[1])
		if fl.isLong() {
			longHdr[0] = header[1]

			_, msg.err = io.ReadFull(c.rw, longHdr[1:])
			if msg.err != nil {
				return msg
			}

			size = binary.BigEndian.Uint64(longHdr[:])
		}

		if size > uint64(maxInt64) {
			msg.err = errOverflow
			return msg
		}

		body := make([]byte, size)
		_, msg.err = io.ReadFull(c.rw, body)
		if msg.err != nil {
			return msg
		}

		if c.sec.Type() == NullSecurity {
			msg.Frames = append(msg.Frames, body)
			continue
		}

		buf := new(bytes.Buffer)
		if _, msg.err = c.sec.Decrypt(buf, body); msg.err != nil {
			return msg
		}
		msg.Frames = append(msg.Frames, buf.Bytes())
	}
	if isCmd {
		msg.Type = CmdMsg
	}
	return msg
}

