// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4_test

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// bkg is the root context every socket in this package's tests is built
// against; individual tests layer a timeout on top of it.
var bkg = context.Background()

// must panics on a non-nil error, for use in package-level var
// initializers where a test case table can't return an error.
func must(s string, err error) string {
	if err != nil {
		panic(err)
	}
	return s
}

// EndPoint returns a fresh endpoint URL for the given transport. For tcp
// it asks the kernel for an unused port; other transports get a name
// unique enough not to collide across the test binary's run.
func EndPoint(transport string) (string, error) {
	switch transport {
	case "tcp":
		port, err := getTCPPort()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("tcp://127.0.0.1:%s", port), nil
	case "ipc":
		return fmt.Sprintf("ipc://ipc-%s", newEndpointName()), nil
	case "inproc":
		return fmt.Sprintf("inproc://%s", newEndpointName()), nil
	default:
		return "", fmt.Errorf("zmq4_test: unknown transport %q", transport)
	}
}

// cleanUp removes the socket file an ipc:// endpoint left behind.
func cleanUp(ep string) {
	if strings.HasPrefix(ep, "ipc://") {
		os.Remove(ep[len("ipc://"):])
	}
}

var endpointSeq int

func newEndpointName() string {
	endpointSeq++
	return "ep-" + strconv.Itoa(endpointSeq)
}

func getTCPPort() (string, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return "", err
	}
	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return "", err
	}
	defer l.Close()
	return strconv.Itoa(l.Addr().(*net.TCPAddr).Port), nil
}
