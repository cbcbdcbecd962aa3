package engine

import (
	"github.com/google/uuid"
	"github.com/jroosing/msgbox/internal/address"
	"github.com/jroosing/msgbox/internal/wire"
)

// Event names the kind of notification a Callback receives.
type Event uint8

const (
	// EventListening fires once, on the first RunLoop drain after Listen
	// returns, to hand the caller the listening Conn via the same callback
	// path as every other event.
	EventListening Event = iota
	// EventConnectionReady fires the first time a remote peer is usable:
	// immediately for a UDP connect (there is no handshake), or once a
	// non-blocking TCP connect finishes, or once a UDP listening socket
	// sees its first datagram from a new peer, or once a TCP accept
	// completes.
	EventConnectionReady
	// EventConnectionClosed fires when a connected (non-listening) Conn is
	// torn down by an orderly close frame, sent locally or received from
	// the remote end, and after the EventError reported for a socket
	// read/write error on an established connection. A TCP connect that
	// fails reports only EventError.
	EventConnectionClosed
	// EventConnectionLost fires when a connected (non-listening) Conn is
	// torn down by an abrupt remote termination instead of the library's
	// own close-frame protocol: a zero-byte TCP read, ECONNRESET, or a
	// POLLERR/POLLHUP the engine could not otherwise attribute to a clean
	// close.
	EventConnectionLost
	// EventListeningEnded fires when Unlisten finishes tearing down a
	// listening Conn.
	EventListeningEnded
	// EventMessage fires when a one-way frame arrives.
	EventMessage
	// EventRequest fires when a request frame arrives; the callback may
	// reply via Send, which the engine frames as a reply using the
	// request's reply id.
	EventRequest
	// EventReply fires when a reply frame arrives for an outstanding Get.
	EventReply
	// EventError fires for anything in the engine's error taxonomy; Data
	// carries a *wire.Data whose string content is the error message.
	EventError
)

func (e Event) String() string {
	switch e {
	case EventListening:
		return "listening"
	case EventConnectionReady:
		return "connection_ready"
	case EventConnectionClosed:
		return "connection_closed"
	case EventConnectionLost:
		return "connection_lost"
	case EventListeningEnded:
		return "listening_ended"
	case EventMessage:
		return "message"
	case EventRequest:
		return "request"
	case EventReply:
		return "reply"
	case EventError:
		return "error"
	default:
		return "unknown_event"
	}
}

// Callback is invoked for every event delivered on a Conn. data is nil for
// EventListening/EventConnectionReady/EventConnectionClosed/
// EventConnectionLost/EventListeningEnded, and a *wire.Data for
// EventMessage/EventRequest/EventReply/EventError — for EventError, data's
// string content is the error message (e.g. "udp get timed out").
type Callback func(c *Conn, event Event, data *wire.Data)

// Role distinguishes a listening Conn (accepts/receives from many peers)
// from a connected one (talks to exactly one peer).
type Role uint8

const (
	RoleListener Role = iota
	RoleConnected
)

// Conn is the engine's handle for one socket: a listener, an outbound
// connection, or (for TCP) an accepted inbound connection. Fields are
// read-only from the outside; mutate engine state only through Engine's
// methods.
type Conn struct {
	engine *Engine

	fd        int
	transport address.Transport
	role      Role

	// local is set for a listening Conn; remote is set for a connected
	// one. A UDP listening Conn additionally tracks remote per-datagram
	// via the active field below, refreshed just before each callback.
	local  address.Address
	remote address.Address

	// active is the remote peer this Conn is mid-callback for. For TCP
	// and for a UDP client Conn this always equals remote. For a UDP
	// listening Conn it changes on every inbound datagram.
	active address.Address

	// Context is arbitrary caller state handed to Listen/Connect and
	// inherited by any Conn spawned from a listener (an accepted TCP
	// connection, or the synthetic per-peer identity on a UDP listener).
	Context any

	callback Callback

	// status holds reassembly/reply-id state. For TCP and UDP-client
	// Conns this is the Conn's own status. For a UDP listening Conn it is
	// nil; per-peer status lives in statusByPeer instead.
	status *peerStatus

	// statusByPeer is populated only for a UDP listening Conn.
	statusByPeer *statusTable

	// replyID is the request reply id this callback invocation is
	// answering, if any; Send consults it to decide one-way vs reply
	// framing, and it is reset to 0 after each dispatch.
	replyID uint16

	// replyContext is the arbitrary value passed to Get, delivered back
	// to the reply callback via ReplyContext().
	replyContext any

	reactorIndex int
	// writeBuf holds bytes still waiting to be sent after a partial TCP
	// write; non-nil exactly when write-interest is armed for a pending
	// send (write-interest is also armed, with writeBuf nil, while a TCP
	// connect is in flight).
	writeBuf []byte
	// forListening marks a UDP listening socket, which survives the
	// per-peer local disconnect localDisconnect would otherwise apply —
	// only Unlisten tears it down.
	forListening bool

	closing bool

	traceID string
}

func newConn(e *Engine, fd int, transport address.Transport, role Role, cb Callback, ctx any) *Conn {
	return &Conn{
		engine:    e,
		fd:        fd,
		transport: transport,
		role:      role,
		callback:  cb,
		Context:   ctx,
		traceID:   uuid.New().String()[:8],
	}
}

// TraceID returns an opaque, per-Conn identifier for log correlation.
func (c *Conn) TraceID() string { return c.traceID }

// Transport reports whether this Conn is TCP or UDP.
func (c *Conn) Transport() address.Transport { return c.transport }

// IsListener reports whether this Conn is a listening socket.
func (c *Conn) IsListener() bool { return c.role == RoleListener }

// LocalAddr returns the address this Conn is bound/listening on. It is
// the zero Address for a non-listening Conn.
func (c *Conn) LocalAddr() address.Address { return c.local }

// RemoteAddr returns the address of the peer currently being dispatched
// to this Conn's callback.
func (c *Conn) RemoteAddr() address.Address { return c.active }

// RemoteIP returns just the host portion of RemoteAddr.
func (c *Conn) RemoteIP() string { return c.active.IPString() }

// ReplyContext returns the value passed to Get when this callback is
// answering that request's reply.
func (c *Conn) ReplyContext() any { return c.replyContext }

func (c *Conn) currentStatus() *peerStatus {
	if c.statusByPeer != nil {
		s, _ := c.statusByPeer.getOrCreate(c.active)
		return s
	}
	return c.status
}
