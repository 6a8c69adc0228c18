// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"crypto/rand"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"strings"
)

// Devnull is a logger that discards everything written to it, handy for
// tests and examples that must supply a *log.Logger but don't care about
// its output.
var Devnull = log.New(ioutil.Discard, "zmq4: ", 0)

// splitAddr returns the triplet (network, addr, error)
func splitAddr(v string) (network, addr string, err error) {
	ep := strings.Split(v, "://")
	if len(ep) != 2 {
		err = ErrAddressInvalid
		return network, addr, err
	}
	network = ep[0]

	trans, ok := drivers.get(network)
	if !ok {
		err = fmt.Errorf("zmq4: unknown transport %q: %w", network, ErrProtocolNotSupported)
		return network, addr, err
	}

	addr, err = trans.Addr(ep[1])
	return network, addr, err
}

func newUUID() string {
	var uuid [16]byte
	if _, err := io.ReadFull(rand.Reader, uuid[:]); err != nil {
		log.Fatalf("cannot generate random data for UUID: %v", err)
	}
	uuid[8] = uuid[8]&^0xc0 | 0x80
	uuid[6] = uuid[6]&^0xf0 | 0x40
	return fmt.Sprintf("%x-%x-%x-%x-%x", uuid[:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:])
}
