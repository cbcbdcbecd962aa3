// Package engine implements the single-threaded, callback-driven
// messaging core: one reactor-backed run loop that multiplexes any number
// of TCP and UDP connections, reassembling framed messages and delivering
// them as events to per-Conn callbacks.
//
// Nothing in this package is safe for concurrent use from more than one
// goroutine — callers own the run loop and must drive it from a single
// goroutine, exactly like the library this design is based on.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"github.com/jroosing/msgbox/internal/address"
	"github.com/jroosing/msgbox/internal/reactor"
	"github.com/jroosing/msgbox/internal/wire"
)

const (
	reactorRead  = reactor.Read
	reactorWrite = reactor.Write
)

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithUDPTimeout overrides the default duration Get waits for a reply over
// UDP before firing EventError with "udp get timed out".
func WithUDPTimeout(d time.Duration) Option {
	return func(e *Engine) { e.udpTimeout = d }
}

// WithTCPTimeout overrides the default duration Get waits for a reply over
// TCP before firing EventError with "tcp get timed out".
func WithTCPTimeout(d time.Duration) Option {
	return func(e *Engine) { e.tcpTimeout = d }
}

// Engine owns one reactor and dispatches its events to registered Conns.
// Create one with New, register listeners/connections with Listen/Connect,
// and drive it by calling RunLoop repeatedly from a single goroutine.
type Engine struct {
	reactor   *reactor.Reactor
	scheduler *scheduler
	stats     Stats
	logger    *slog.Logger

	conns []*Conn

	pendingGets []pendingGet

	udpTimeout time.Duration
	tcpTimeout time.Duration
}

// New creates an Engine. logger may be nil, in which case the engine is
// silent about internal reactor-level errors that have no Conn to deliver
// an EventError to.
func New(logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		reactor:    reactor.New(),
		scheduler:  newScheduler(),
		logger:     logger,
		udpTimeout: DefaultUDPTimeout,
		tcpTimeout: DefaultTCPTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) defaultTimeoutFor(t address.Transport) time.Duration {
	if t == address.UDP {
		return e.udpTimeout
	}
	return e.tcpTimeout
}

// Stats returns a snapshot of the engine's activity counters.
func (e *Engine) Stats() Snapshot {
	return e.stats.Snapshot()
}

// Conns returns the currently live connections, listeners included, for
// introspection (e.g. the admin API's connection listing). The returned
// slice is a copy; mutating it does not affect the engine.
func (e *Engine) Conns() []*Conn {
	out := make([]*Conn, len(e.conns))
	copy(out, e.conns)
	return out
}

func (e *Engine) registerConn(c *Conn) {
	e.conns = append(e.conns, c)
	e.stats.recordOpened()
}

func (e *Engine) removeConnBookkeeping(c *Conn) {
	for i, other := range e.conns {
		if other == c {
			e.conns[i] = e.conns[len(e.conns)-1]
			e.conns = e.conns[:len(e.conns)-1]
			break
		}
	}
}

func (e *Engine) logWarn(format string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(fmt.Sprintf(format, args...))
	}
}

// Listen opens a listening TCP or UDP socket at addr (e.g.
// "tcp://*:2345" or "udp://0.0.0.0:2468"). The returned Conn's callback
// receives EventListening immediately (on the next RunLoop drain), then
// EventConnectionReady for every peer that subsequently appears (an
// accepted TCP connection, or the first datagram from a new UDP peer).
func (e *Engine) Listen(addr string, cb Callback, ctx any) (*Conn, error) {
	a, err := address.Parse(addr)
	if err != nil {
		return nil, newError(BadAddress, "%v", err)
	}
	switch a.Transport {
	case address.TCP:
		return e.listenTCP(a, cb, ctx)
	default:
		return e.listenUDP(a, cb, ctx)
	}
}

// Connect opens an outbound TCP or UDP connection to addr. For TCP, the
// callback receives EventConnectionReady once the (non-blocking) connect
// completes; for UDP, immediately, since there is no handshake.
func (e *Engine) Connect(addr string, cb Callback, ctx any) (*Conn, error) {
	a, err := address.Parse(addr)
	if err != nil {
		return nil, newError(BadAddress, "%v", err)
	}
	if a.Wildcard {
		return nil, newError(BadAddress, "wildcard address %q is only valid for Listen", addr)
	}
	switch a.Transport {
	case address.TCP:
		return e.connectTCP(a, cb, ctx)
	default:
		return e.connectUDP(a, cb, ctx)
	}
}

// Unlisten tears down a listening Conn. Any peers of a shared UDP listener
// are implicitly forgotten (there is no per-peer socket to separately
// close); TCP connections already accepted from it are unaffected.
func (e *Engine) Unlisten(c *Conn) error {
	if c.role != RoleListener {
		return fmt.Errorf("engine: Unlisten called on a non-listening Conn")
	}
	if c.closing {
		return nil
	}
	c.closing = true
	e.reactor.Unregister(c.reactorIndex)
	unix.Close(c.fd)
	e.stats.recordClosed()
	e.removeConnBookkeeping(c)
	e.scheduler.schedule(call{conn: c, event: EventListeningEnded})
	return nil
}

// Disconnect ends a connection. For a TCP or UDP-client Conn this closes
// the socket (after sending an explicit close frame, matching the wire
// protocol rather than relying on TCP's own FIN/RST). For the Conn
// representing one peer of a shared UDP listener — which is actually the
// listener's own Conn with RemoteAddr() set to that peer — it sends that
// peer a close frame, forgets the peer's reassembly/reply state, and
// schedules EventConnectionClosed for it; the listening socket itself is
// unaffected.
func (e *Engine) Disconnect(c *Conn) error {
	if c.role == RoleListener && c.transport == address.UDP {
		return e.disconnectUDPPeer(c, c.active)
	}
	if c.role == RoleListener {
		return fmt.Errorf("engine: Disconnect called on a listening Conn; use Unlisten")
	}
	if c.closing {
		return nil
	}

	h := wire.Header{Kind: wire.KindClose}
	framed := wire.NewData(nil).Framed(h)
	switch c.transport {
	case address.TCP:
		_ = e.writeTCP(c, framed)
	default:
		_ = e.writeUDP(c, c.active, framed)
	}
	e.localDisconnect(c, nil)
	return nil
}

func (e *Engine) disconnectUDPPeer(c *Conn, peer address.Address) error {
	h := wire.Header{Kind: wire.KindClose}
	framed := wire.NewData(nil).Framed(h)
	err := e.writeUDP(c, peer, framed)
	c.statusByPeer.remove(peer)
	e.scheduler.schedule(call{conn: c, event: EventConnectionClosed, active: peer})
	return err
}

// localDisconnect tears down a (non-listening) Conn via an orderly close
// (the library's own close frame, sent or received), or after a socket
// read/write error (cause non-nil): unregisters it from the reactor,
// closes its socket, and schedules EventConnectionClosed (preceded by
// EventError if cause is non-nil). It is idempotent.
func (e *Engine) localDisconnect(c *Conn, cause *Error) {
	e.teardown(c, cause, EventConnectionClosed)
}

// localDisconnectLost tears down a (non-listening) Conn after an abrupt
// remote termination — a zero-byte read, ECONNRESET, or an unattributed
// POLLERR/POLLHUP — rather than the library's own close-frame protocol.
// It schedules EventConnectionLost instead of EventConnectionClosed, but
// is otherwise identical to localDisconnect.
func (e *Engine) localDisconnectLost(c *Conn, cause *Error) {
	e.teardown(c, cause, EventConnectionLost)
}

func (e *Engine) teardown(c *Conn, cause *Error, event Event) {
	if c.closing {
		return
	}
	c.closing = true
	e.reactor.Unregister(c.reactorIndex)
	unix.Close(c.fd)
	e.stats.recordClosed()
	e.removeConnBookkeeping(c)

	if cause != nil {
		e.stats.recordError()
		e.scheduler.schedule(call{conn: c, event: EventError, data: wire.NewDataStr(cause.Message), active: c.active})
	}
	// event == EventError means the error above is the Conn's last event
	// (a connect that never completed); nothing follows it.
	if event != EventError {
		e.scheduler.schedule(call{conn: c, event: event, active: c.active})
	}
}

// Send transmits data on c. If c's currently-dispatching event is an
// EventRequest, Send automatically frames the message as that request's
// reply; otherwise it is framed as a one-way message.
func (e *Engine) Send(c *Conn, data *wire.Data) error {
	kind := wire.KindOneWay
	replyID := uint16(0)
	if c.replyID != 0 {
		kind = wire.KindReply
		replyID = c.replyID
	}
	framed := data.Framed(wire.Header{Kind: kind, ReplyID: replyID})

	switch c.transport {
	case address.TCP:
		return e.writeTCP(c, framed)
	default:
		return e.writeUDP(c, c.active, framed)
	}
}

// Get sends data as a request and arranges for the eventual reply to be
// delivered as EventReply with ReplyContext() == replyContext. If no reply
// arrives within timeout (or the transport's configured default, if no
// timeout is given), EventError fires instead with "udp get timed out" or
// "tcp get timed out".
func (e *Engine) Get(c *Conn, data *wire.Data, replyContext any, timeout ...time.Duration) error {
	status := c.currentStatus()
	id := status.allocReplyID()
	status.replyContexts[id] = replyContext

	to := e.defaultTimeoutFor(c.transport)
	if len(timeout) > 0 {
		to = timeout[0]
	}

	framed := data.Framed(wire.Header{Kind: wire.KindRequest, ReplyID: id})

	var err error
	switch c.transport {
	case address.TCP:
		err = e.writeTCP(c, framed)
	default:
		err = e.writeUDP(c, c.active, framed)
	}
	if err != nil {
		delete(status.replyContexts, id)
		return err
	}

	e.addPendingGet(c, status, c.active, id, to)
	return nil
}

// RunLoop waits up to timeout for activity, handles it, and delivers every
// resulting event to its Conn's callback before returning. A timeout of 0
// polls without blocking; a negative timeout blocks until something
// happens. If callbacks enqueued during this pass schedule more work (by
// calling Send/Get/Disconnect), that work is NOT re-visited by this same
// call — it waits for the next RunLoop call, exactly like the reactor's
// own deferred-removal semantics.
func (e *Engine) RunLoop(timeout time.Duration) error {
	e.scanTimeouts()

	pollTimeout := timeout
	if len(e.scheduler.pending) > 0 {
		pollTimeout = 0
	}

	events, moved, err := e.reactor.Poll(pollTimeout)
	e.stats.recordPoll()
	if err != nil {
		// A failed poll has no Conn to report to: log it and carry on with
		// no readiness events this pass.
		e.logWarn("%v", err)
	}
	for newIdx := range moved {
		if d := e.reactor.Data(newIdx); d != nil {
			if c, ok := d.(*Conn); ok {
				c.reactorIndex = newIdx
			}
		}
	}

	for _, ev := range events {
		c, ok := ev.Data.(*Conn)
		if !ok || c.closing {
			continue
		}

		if ev.Writable && c.transport == address.TCP {
			if len(c.writeBuf) > 0 {
				e.flushTCP(c)
			} else if c.role == RoleConnected {
				e.handleConnectWritable(c)
			}
		}

		// A remote FIN or RST routinely surfaces as Readable|Err together,
		// not Err alone, so read first: that path's own recv==0/ECONNRESET
		// handling is what actually tears the Conn down and picks between
		// EventConnectionClosed and EventConnectionLost. Only once reading
		// hasn't resolved the Conn do we treat a lingering Err as fatal on
		// its own.
		if !c.closing && ev.Readable {
			switch {
			case c.role == RoleListener && c.transport == address.TCP:
				e.acceptTCP(c)
			case c.transport == address.TCP:
				e.readTCP(c)
			default:
				e.readUDP(c)
			}
		}

		if ev.Err && !c.closing {
			if c.role == RoleListener {
				e.logWarn("socket error on listener %s", c.local)
				continue
			}
			e.localDisconnectLost(c, newError(SocketError, "socket error on %s", c.active))
		}
	}

	e.scheduler.drain(e.dispatch)
	return nil
}

func (e *Engine) dispatch(c call) {
	conn := c.conn
	if conn.callback == nil {
		return
	}
	conn.active = c.active
	conn.replyID = c.replyID
	conn.replyContext = c.replyContext

	e.stats.recordEvent()
	conn.callback(conn, c.event, c.data)

	conn.replyID = 0
	conn.replyContext = nil
}
