// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmq4

import (
	"context"

	"github.com/zmq4eng/zmq4/internal/errgroup"
)

// runConnPump bridges a wire-level Conn to the Pipe pair spliced into a
// SocketBase: pipe is the end the SocketBase/pattern reads and writes,
// peerPipe is the end this pump owns. It is the Go-idiomatic stand-in
// for what libzmq calls the Engine: two directions, each driven by
// whichever side is naturally already blocking (Conn.RecvMsg blocks on
// the socket, Pipe.Read blocks by going to sleep and waiting on a
// channel), so no polling loop or platform poller is needed.
//
// The two directions are spawned through errgroup.Group rather than a
// bare "go" so that canceling ctx (socket Close, Context.Terminate)
// detaches them the same way any other context-scoped I/O in this
// package is torn down, instead of needing its own bespoke shutdown path.
func runConnPump(ctx context.Context, c *Conn, peerPipe *Pipe, sb *SocketBase, pipe *Pipe) {
	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		pumpWireToPipe(c, peerPipe, sb, pipe)
		return nil
	})
	grp.Go(func() error {
		pumpPipeToWire(ctx, c, peerPipe, pipe)
		return nil
	})
}

// pumpWireToPipe reads whole messages off the wire and republishes them
// as Frames on peerPipe, waking the SocketBase's I/O thread when its
// pattern had gone to sleep waiting for input.
func pumpWireToPipe(c *Conn, peerPipe *Pipe, sb *SocketBase, pipe *Pipe) {
	defer c.Close()
	for {
		msg, err := c.RecvMsg()
		if err != nil {
			pipe.Terminate(true)
			sb.ioThread.Mailbox().Send(Command{Type: CmdPipeTerm, Dest: sb.id, Target: sb, Pipe: pipe})
			return
		}
		if msg.isCmd() {
			continue
		}

		nframes := len(msg.Frames)
		for i, b := range msg.Frames {
			fr := NewFrame(b)
			if i < nframes-1 {
				fr.Flags |= FlagMore
			}
			peerPipe.Write(fr)
		}
		woke := peerPipe.Flush()
		if woke {
			sb.ioThread.Mailbox().Send(Command{Type: CmdActivateRead, Dest: sb.id, Target: sb, Pipe: pipe})
		}
	}
}

// pumpPipeToWire waits for Frames written by the SocketBase/pattern side
// (visible here as reads off peerPipe) and forwards each completed
// multi-part message over the wire, returning any read credit to pipe
// directly since both Pipe endpoints of a pair are reachable from this
// single goroutine without needing a Command round-trip.
func pumpPipeToWire(ctx context.Context, c *Conn, peerPipe *Pipe, pipe *Pipe) {
	for {
		f, ok := peerPipe.Read()
		if !ok {
			if peerPipe.Delimited() {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-peerPipe.Readable():
				continue
			}
		}

		frames := [][]byte{f.Bytes()}
		more := f.HasMore()
		f.Close()
		for more {
			nf, ok := peerPipe.Read()
			if !ok {
				select {
				case <-ctx.Done():
					return
				case <-peerPipe.Readable():
					continue
				}
			}
			frames = append(frames, nf.Bytes())
			more = nf.HasMore()
			nf.Close()
		}

		if err := c.SendMsg(Msg{Frames: frames}); err != nil {
			return
		}
		if credit := peerPipe.ReadCredit(); credit > 0 {
			pipe.Grant(credit)
		}
	}
}
