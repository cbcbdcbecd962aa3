package engine

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/jroosing/msgbox/internal/address"
	"github.com/jroosing/msgbox/internal/pool"
	"github.com/jroosing/msgbox/internal/wire"
)

// headerPeekPool reuses the fixed-size HeaderLen buffer every readUDP call
// peeks with, since it's allocated and discarded at least once per
// datagram read on a busy listener.
var headerPeekPool = pool.New(func() []byte { return make([]byte, wire.HeaderLen) })

func (e *Engine) listenUDP(addr address.Address, cb Callback, ctx any) (*Conn, error) {
	fd, err := newNonblockingSocket(address.UDP)
	if err != nil {
		return nil, newError(SocketError, "udp socket: %v", err)
	}
	if err := unix.Bind(fd, sockaddrFor(addr)); err != nil {
		unix.Close(fd)
		return nil, newError(SocketError, "udp bind %s: %v", addr, err)
	}

	c := newConn(e, fd, address.UDP, RoleListener, cb, ctx)
	c.local = addr
	c.forListening = true
	c.statusByPeer = newStatusTable()
	c.reactorIndex = e.reactor.Register(fd, reactorRead, c)
	e.registerConn(c)

	e.scheduler.schedule(call{conn: c, event: EventListening})
	return c, nil
}

func (e *Engine) connectUDP(addr address.Address, cb Callback, ctx any) (*Conn, error) {
	fd, err := newNonblockingSocket(address.UDP)
	if err != nil {
		return nil, newError(SocketError, "udp socket: %v", err)
	}
	if err := unix.Connect(fd, sockaddrFor(addr)); err != nil {
		unix.Close(fd)
		return nil, newError(SocketError, "udp connect %s: %v", addr, err)
	}

	c := newConn(e, fd, address.UDP, RoleConnected, cb, ctx)
	c.remote = addr
	c.active = addr
	c.status = newPeerStatus()
	c.reactorIndex = e.reactor.Register(fd, reactorRead, c)
	e.registerConn(c)

	// UDP has no handshake: the peer is "ready" the instant we've bound a
	// local ephemeral port to talk to it.
	e.scheduler.schedule(call{conn: c, event: EventConnectionReady, active: addr})
	return c, nil
}

const maxUDPDatagram = 65507

// readUDP handles readiness on a UDP socket, whether a shared listening
// socket (many peers) or a single connected client socket (one peer).
func (e *Engine) readUDP(c *Conn) {
	for {
		peek := headerPeekPool.Get()
		n, from, err := unix.Recvfrom(c.fd, peek, unix.MSG_PEEK)
		if err != nil {
			headerPeekPool.Put(peek)
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				return
			}
			if errors.Is(err, unix.ECONNRESET) && c.role != RoleListener {
				// A previous send drew an ICMP port-unreachable, which
				// surfaces on a connected UDP socket's next recv as
				// ECONNRESET: the UDP analogue of an abrupt TCP reset.
				e.localDisconnectLost(c, nil)
				return
			}
			e.logWarn("udp recv on %s: %v", c.local, err)
			return
		}
		if n < wire.HeaderLen {
			// Datagram too short to be a valid frame; consume and discard it.
			discard := headerPeekPool.Get()
			unix.Recvfrom(c.fd, discard, 0)
			headerPeekPool.Put(discard)
			headerPeekPool.Put(peek)
			e.scheduler.schedule(call{conn: c, event: EventError, data: wire.NewDataStr("short datagram")})
			continue
		}

		header, decodeErr := wire.DecodeHeader(peek)
		headerPeekPool.Put(peek)
		if decodeErr != nil {
			discard := headerPeekPool.Get()
			unix.Recvfrom(c.fd, discard, 0)
			headerPeekPool.Put(discard)
			e.scheduler.schedule(call{conn: c, event: EventError, data: wire.NewDataStr(decodeErr.Error())})
			continue
		}

		full := make([]byte, wire.HeaderLen+int(header.NumBytes))
		got, from2, err := unix.Recvfrom(c.fd, full, 0)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				return
			}
			if errors.Is(err, unix.ECONNRESET) && c.role != RoleListener {
				e.localDisconnectLost(c, nil)
				return
			}
			e.logWarn("udp recv on %s: %v", c.local, err)
			return
		}
		if from2 != nil {
			from = from2
		}
		e.stats.recordReceived(got)
		if got != len(full) {
			e.scheduler.schedule(call{conn: c, event: EventError, data: wire.NewDataStr("truncated datagram")})
			continue
		}

		var peerAddr address.Address
		if c.role == RoleListener {
			peerAddr = addrFromSockaddr(from, address.UDP)
		} else {
			peerAddr = c.remote
		}

		status, created, peerConn := e.statusForPeer(c, peerAddr)
		if created {
			e.scheduler.schedule(call{conn: peerConn, event: EventConnectionReady, active: peerAddr})
		}

		payload := full[wire.HeaderLen:]
		switch header.Kind {
		case wire.KindClose:
			if c.role == RoleListener {
				c.statusByPeer.remove(peerAddr)
				e.scheduler.schedule(call{conn: c, event: EventConnectionClosed, active: peerAddr})
			} else {
				e.localDisconnect(c, nil)
				return
			}
		case wire.KindOneWay:
			e.scheduler.schedule(call{conn: peerConn, event: EventMessage, data: wire.NewData(payload), active: peerAddr})
		case wire.KindRequest:
			e.scheduler.schedule(call{conn: peerConn, event: EventRequest, data: wire.NewData(payload), replyID: header.ReplyID, active: peerAddr})
		case wire.KindReply:
			e.dispatchReply(peerConn, status, peerAddr, header.ReplyID, payload)
		case wire.KindHeartbeat:
			// reserved, no-op
		default:
			e.scheduler.schedule(call{conn: peerConn, event: EventError, data: wire.NewDataStr("Unrecognized message kind"), active: peerAddr})
		}
	}
}

// statusForPeer returns the peerStatus to use for messages to/from addr on
// c, creating it (and reporting created=true) the first time addr is seen
// on a shared listening socket. For a connected Conn there is exactly one
// peer and its status is already set up at connect time.
func (e *Engine) statusForPeer(c *Conn, addr address.Address) (status *peerStatus, created bool, dispatchConn *Conn) {
	if c.role != RoleListener {
		return c.status, false, c
	}
	s, created := c.statusByPeer.getOrCreate(addr)
	return s, created, c
}

// writeUDP sends one datagram. UDP sends are all-or-nothing at the socket
// layer, so unlike TCP there is no partial-write backlog to manage.
func (e *Engine) writeUDP(c *Conn, peer address.Address, framed []byte) error {
	var err error
	var n int
	if c.role == RoleListener {
		n, err = unixSendto(c.fd, framed, peer)
	} else {
		n, err = unix.Write(c.fd, framed)
	}
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return newError(SocketError, "udp send to %s: socket busy", peer)
		}
		return newError(SocketError, "udp send to %s: %v", peer, err)
	}
	e.stats.recordSent(n)
	return nil
}

func unixSendto(fd int, buf []byte, peer address.Address) (int, error) {
	sa := sockaddrFor(peer)
	if err := unix.Sendto(fd, buf, 0, sa); err != nil {
		return 0, err
	}
	return len(buf), nil
}
