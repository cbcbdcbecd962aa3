// Package msgbox is a unified, callback-driven messaging library over TCP
// and UDP: one non-blocking, single-threaded event loop delivers one-way
// messages, request/reply pairs, and connection lifecycle events to plain
// Go callbacks, whichever transport a given Conn is using.
//
// A minimal echo server:
//
//	msgbox.Listen("tcp://*:2345", func(c *msgbox.Conn, event msgbox.Event, data *msgbox.Data) {
//		if event == msgbox.EventMessage {
//			msgbox.Send(c, msgbox.NewDataStr("echo:"+data.Str()))
//		}
//	}, nil)
//	for {
//		msgbox.RunLoop(100 * time.Millisecond)
//	}
//
// Everything here is a thin wrapper over a package-level default Engine,
// mirroring the free-function API of the C library this package reworks —
// callers who want multiple independent engines in one process should use
// package engine directly instead.
package msgbox

import (
	"time"

	"github.com/jroosing/msgbox/internal/engine"
	"github.com/jroosing/msgbox/internal/wire"
)

// Re-exported types, so callers never need to import internal/engine or
// internal/wire directly.
type (
	Conn      = engine.Conn
	Event     = engine.Event
	Callback  = engine.Callback
	Data      = wire.Data
	ErrorKind = engine.ErrorKind
)

// Event values, re-exported for convenience.
const (
	EventListening        = engine.EventListening
	EventConnectionReady   = engine.EventConnectionReady
	EventConnectionClosed  = engine.EventConnectionClosed
	EventConnectionLost    = engine.EventConnectionLost
	EventListeningEnded    = engine.EventListeningEnded
	EventMessage           = engine.EventMessage
	EventRequest           = engine.EventRequest
	EventReply             = engine.EventReply
	EventError             = engine.EventError
)

var defaultEngine = engine.New(nil)

// Default returns the package-level Engine that the free functions below
// operate on. It is exposed for callers who want to attach a logger or
// tune timeouts (see engine.Option) without giving up the free-function
// style everywhere else.
func Default() *engine.Engine { return defaultEngine }

// NewData copies payload into a new Data.
func NewData(payload []byte) *Data { return wire.NewData(payload) }

// NewDataStr copies s into a new Data.
func NewDataStr(s string) *Data { return wire.NewDataStr(s) }

// Listen opens a listening TCP or UDP socket, e.g. "tcp://*:2345" or
// "udp://0.0.0.0:2468".
func Listen(addr string, cb Callback, ctx any) (*Conn, error) {
	return defaultEngine.Listen(addr, cb, ctx)
}

// Connect opens an outbound TCP or UDP connection, e.g. "tcp://127.0.0.1:2345".
func Connect(addr string, cb Callback, ctx any) (*Conn, error) {
	return defaultEngine.Connect(addr, cb, ctx)
}

// Unlisten tears down a listening Conn.
func Unlisten(c *Conn) error { return defaultEngine.Unlisten(c) }

// Disconnect ends a connection.
func Disconnect(c *Conn) error { return defaultEngine.Disconnect(c) }

// Send transmits data on c, as a reply if c is currently dispatching an
// EventRequest, as a one-way message otherwise.
func Send(c *Conn, data *Data) error { return defaultEngine.Send(c, data) }

// Get sends data as a request; the eventual reply is delivered as
// EventReply with ReplyContext() == replyContext, or EventError fires if
// no reply arrives within timeout (or the transport's configured
// default, if timeout is omitted).
func Get(c *Conn, data *Data, replyContext any, timeout ...time.Duration) error {
	return defaultEngine.Get(c, data, replyContext, timeout...)
}

// RunLoop drives the default Engine once. See engine.Engine.RunLoop.
func RunLoop(timeout time.Duration) error { return defaultEngine.RunLoop(timeout) }
