package engine

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/jroosing/msgbox/internal/address"
	"github.com/jroosing/msgbox/internal/wire"
)

const tcpBacklog = 128

func (e *Engine) listenTCP(addr address.Address, cb Callback, ctx any) (*Conn, error) {
	fd, err := newNonblockingSocket(address.TCP)
	if err != nil {
		return nil, newError(SocketError, "tcp socket: %v", err)
	}
	if err := unix.Bind(fd, sockaddrFor(addr)); err != nil {
		unix.Close(fd)
		return nil, newError(SocketError, "tcp bind %s: %v", addr, err)
	}
	if err := unix.Listen(fd, tcpBacklog); err != nil {
		unix.Close(fd)
		return nil, newError(SocketError, "tcp listen %s: %v", addr, err)
	}

	c := newConn(e, fd, address.TCP, RoleListener, cb, ctx)
	c.local = addr
	c.reactorIndex = e.reactor.Register(fd, reactorRead, c)
	e.registerConn(c)

	e.scheduler.schedule(call{conn: c, event: EventListening})
	return c, nil
}

func (e *Engine) connectTCP(addr address.Address, cb Callback, ctx any) (*Conn, error) {
	fd, err := newNonblockingSocket(address.TCP)
	if err != nil {
		return nil, newError(SocketError, "tcp socket: %v", err)
	}

	c := newConn(e, fd, address.TCP, RoleConnected, cb, ctx)
	c.remote = addr
	c.active = addr
	c.status = newPeerStatus()

	err = unix.Connect(fd, sockaddrFor(addr))
	if err == nil {
		// Rare: connect finished synchronously (e.g. to a loopback peer
		// already listening).
		c.reactorIndex = e.reactor.Register(fd, reactorRead, c)
		e.registerConn(c)
		e.scheduler.schedule(call{conn: c, event: EventConnectionReady, active: addr})
		return c, nil
	}
	if !errors.Is(err, unix.EINPROGRESS) && !errors.Is(err, unix.EWOULDBLOCK) {
		unix.Close(fd)
		return nil, newError(SocketError, "tcp connect %s: %v", addr, err)
	}

	// Connect is in flight; the reactor tells us it finished by reporting
	// the socket writable.
	c.reactorIndex = e.reactor.Register(fd, reactorWrite, c)
	e.registerConn(c)
	return c, nil
}

// handleConnectWritable is invoked when a not-yet-ready TCP connector's
// socket becomes writable, which on Linux/BSD signals the non-blocking
// connect has finished (successfully or not).
func (e *Engine) handleConnectWritable(c *Conn) {
	errno, err := unix.GetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		e.teardown(c, newError(SocketError, "getsockopt(SO_ERROR): %v", err), EventError)
		return
	}
	if errno != 0 {
		sockErr := unix.Errno(errno)
		kind := SocketError
		if sockErr == unix.ECONNREFUSED {
			kind = Refused
		}
		e.teardown(c, newError(kind, "tcp connect %s: %v", c.remote, sockErr), EventError)
		return
	}

	e.reactor.SetMode(c.reactorIndex, reactorRead)
	e.scheduler.schedule(call{conn: c, event: EventConnectionReady, active: c.remote})
}

// acceptTCP drains every pending connection on a listening socket.
func (e *Engine) acceptTCP(listener *Conn) {
	for {
		fd, sa, err := unix.Accept(listener.fd)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				return
			}
			e.logWarn("tcp accept on %s: %v", listener.local, err)
			return
		}
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fd)
			continue
		}

		remote := addrFromSockaddr(sa, address.TCP)
		c := newConn(e, fd, address.TCP, RoleConnected, listener.callback, listener.Context)
		c.remote = remote
		c.active = remote
		c.status = newPeerStatus()
		c.reactorIndex = e.reactor.Register(fd, reactorRead, c)
		e.registerConn(c)

		e.scheduler.schedule(call{conn: c, event: EventConnectionReady, active: remote})
	}
}

// readTCP pulls as many complete frames as are currently available off a
// connected TCP socket, dispatching each.
func (e *Engine) readTCP(c *Conn) {
	status := c.status
	for {
		done, closed, n, err := status.continueRecv(c.fd)
		e.stats.recordReceived(n)
		if err != nil {
			e.localDisconnect(c, newError(SocketError, "tcp read from %s: %v", c.remote, err))
			return
		}
		if closed {
			e.localDisconnectLost(c, nil)
			return
		}
		if !done {
			return // no full frame yet; wait for more readiness
		}

		header := status.header
		payload := status.takeFrame()

		switch header.Kind {
		case wire.KindClose:
			e.localDisconnect(c, nil)
			return
		case wire.KindOneWay:
			e.scheduler.schedule(call{conn: c, event: EventMessage, data: wire.NewData(payload), active: c.remote})
		case wire.KindRequest:
			e.scheduler.schedule(call{conn: c, event: EventRequest, data: wire.NewData(payload), replyID: header.ReplyID, active: c.remote})
		case wire.KindReply:
			e.dispatchReply(c, status, c.remote, header.ReplyID, payload)
		case wire.KindHeartbeat:
			// reserved, no-op
		default:
			e.scheduler.schedule(call{conn: c, event: EventError, data: wire.NewDataStr("Unrecognized message kind"), active: c.remote})
		}
	}
}

func (e *Engine) dispatchReply(c *Conn, status *peerStatus, peer address.Address, replyID uint16, payload []byte) {
	ctx, ok := status.replyContexts[replyID]
	if !ok {
		e.scheduler.schedule(call{conn: c, event: EventError, data: wire.NewDataStr("Unrecognized reply_id"), active: peer})
		return
	}
	delete(status.replyContexts, replyID)
	e.clearPendingGet(c, replyID)
	e.scheduler.schedule(call{conn: c, event: EventReply, data: wire.NewData(payload), replyContext: ctx, active: peer})
}

// writeTCP sends framed, buffering and re-arming write-interest if the
// kernel's send buffer can't take it all right now instead of busy-looping
// on EWOULDBLOCK.
func (e *Engine) writeTCP(c *Conn, framed []byte) error {
	if len(c.writeBuf) > 0 {
		// A previous send is still draining; append and let the reactor's
		// write-readiness callback work through the combined backlog.
		c.writeBuf = append(c.writeBuf, framed...)
		return nil
	}

	n, err := unix.Write(c.fd, framed)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			n = 0
		} else {
			return newError(SocketError, "tcp write to %s: %v", c.remote, err)
		}
	}
	e.stats.recordSent(n)

	if n < len(framed) {
		c.writeBuf = append([]byte(nil), framed[n:]...)
		e.reactor.SetMode(c.reactorIndex, reactorRead|reactorWrite)
	}
	return nil
}

// flushTCP is called when a TCP Conn with a pending write backlog becomes
// writable again.
func (e *Engine) flushTCP(c *Conn) {
	n, err := unix.Write(c.fd, c.writeBuf)
	if err != nil && !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EWOULDBLOCK) {
		e.localDisconnect(c, newError(SocketError, "tcp write to %s: %v", c.remote, err))
		return
	}
	e.stats.recordSent(n)
	c.writeBuf = c.writeBuf[n:]
	if len(c.writeBuf) == 0 {
		c.writeBuf = nil
		e.reactor.SetMode(c.reactorIndex, reactorRead)
	}
}
