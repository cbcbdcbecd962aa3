package engine_test

import (
	"net"
	"testing"
	"time"

	"github.com/jroosing/msgbox/internal/engine"
	"github.com/jroosing/msgbox/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pump(t *testing.T, e *engine.Engine, rounds int) {
	t.Helper()
	for i := 0; i < rounds; i++ {
		require.NoError(t, e.RunLoop(20*time.Millisecond))
	}
}

// ================ TCP: one-way message and request/reply ================

func TestTCP_oneWayAndRequestReply(t *testing.T) {
	e := engine.New(nil)

	var serverConn *engine.Conn
	_, err := e.Listen("tcp://127.0.0.1:18245", func(c *engine.Conn, event engine.Event, data *wire.Data) {
		switch event {
		case engine.EventListening:
			serverConn = c
		case engine.EventMessage:
			assert.Equal(t, "one-way message", data.Str())
		case engine.EventRequest:
			assert.Equal(t, "request-reply message", data.Str())
			require.NoError(t, e.Send(c, wire.NewDataStr("echo:"+data.Str())))
		}
	}, nil)
	require.NoError(t, err)

	var gotReply string
	var replyCtx any
	_, err = e.Connect("tcp://127.0.0.1:18245", func(c *engine.Conn, event engine.Event, data *wire.Data) {
		switch event {
		case engine.EventConnectionReady:
			require.NoError(t, e.Send(c, wire.NewDataStr("one-way message")))
			require.NoError(t, e.Get(c, wire.NewDataStr("request-reply message"), "reply context"))
		case engine.EventReply:
			gotReply = data.Str()
			replyCtx = c.ReplyContext()
		}
	}, nil)
	require.NoError(t, err)

	pump(t, e, 10)

	require.NotNil(t, serverConn)
	assert.Equal(t, "echo:request-reply message", gotReply)
	assert.Equal(t, "reply context", replyCtx)
}

// ================ TCP: explicit close is observed as connection_closed ================

func TestTCP_disconnectFiresConnectionClosed(t *testing.T) {
	e := engine.New(nil)

	_, err := e.Listen("tcp://127.0.0.1:18247", func(c *engine.Conn, event engine.Event, data *wire.Data) {
		if event == engine.EventMessage {
			require.NoError(t, e.Disconnect(c))
		}
	}, nil)
	require.NoError(t, err)

	closed := false
	client, err := e.Connect("tcp://127.0.0.1:18247", func(c *engine.Conn, event engine.Event, data *wire.Data) {
		switch event {
		case engine.EventConnectionReady:
			require.NoError(t, e.Send(c, wire.NewDataStr("hi")))
		case engine.EventConnectionClosed:
			closed = true
		}
	}, nil)
	require.NoError(t, err)
	_ = client

	pump(t, e, 10)

	assert.True(t, closed)
}

// ================ TCP: an abrupt peer close is observed as connection_lost ================

func TestTCP_abruptPeerCloseFiresConnectionLost(t *testing.T) {
	e := engine.New(nil)

	var lost, closed bool
	_, err := e.Listen("tcp://127.0.0.1:18251", func(c *engine.Conn, event engine.Event, data *wire.Data) {
		switch event {
		case engine.EventConnectionLost:
			lost = true
		case engine.EventConnectionClosed:
			closed = true
		}
	}, nil)
	require.NoError(t, err)

	pump(t, e, 1)

	// Dial with the stdlib directly, bypassing the wire protocol entirely,
	// then close the raw socket: the listener sees a zero-byte read with no
	// preceding close frame, the abrupt case connection_lost exists for.
	raw, dialErr := net.Dial("tcp", "127.0.0.1:18251")
	require.NoError(t, dialErr)
	pump(t, e, 1)
	require.NoError(t, raw.Close())

	pump(t, e, 10)

	assert.True(t, lost, "expected connection_lost on an abrupt peer close")
	assert.False(t, closed, "an abrupt close must not also report connection_closed")
}

// ================ UDP: one-way message and request/reply, multiple peers ================

func TestUDP_oneWayAndRequestReplyMultiplePeers(t *testing.T) {
	e := engine.New(nil)

	serverSeen := map[string]int{}
	_, err := e.Listen("udp://127.0.0.1:18248", func(c *engine.Conn, event engine.Event, data *wire.Data) {
		switch event {
		case engine.EventMessage:
			serverSeen[c.RemoteAddr().String()]++
		case engine.EventRequest:
			require.NoError(t, e.Send(c, wire.NewDataStr("echo:"+data.Str())))
		}
	}, nil)
	require.NoError(t, err)

	var reply1, reply2 string
	_, err = e.Connect("udp://127.0.0.1:18248", func(c *engine.Conn, event engine.Event, data *wire.Data) {
		switch event {
		case engine.EventConnectionReady:
			require.NoError(t, e.Send(c, wire.NewDataStr("from client 1")))
			require.NoError(t, e.Get(c, wire.NewDataStr("req1"), nil))
		case engine.EventReply:
			reply1 = data.Str()
		}
	}, nil)
	require.NoError(t, err)

	_, err = e.Connect("udp://127.0.0.1:18248", func(c *engine.Conn, event engine.Event, data *wire.Data) {
		switch event {
		case engine.EventConnectionReady:
			require.NoError(t, e.Send(c, wire.NewDataStr("from client 2")))
			require.NoError(t, e.Get(c, wire.NewDataStr("req2"), nil))
		case engine.EventReply:
			reply2 = data.Str()
		}
	}, nil)
	require.NoError(t, err)

	pump(t, e, 10)

	assert.Equal(t, "echo:req1", reply1)
	assert.Equal(t, "echo:req2", reply2)
	assert.Equal(t, 2, len(serverSeen), "each client's loopback source port is a distinct peer")
}

// ================ Get without a reply times out with the exact message ================

func TestUDP_getTimesOutWithExactMessage(t *testing.T) {
	e := engine.New(nil)

	// No listener on this port: nothing will ever reply.
	var timedOut string
	client, err := e.Connect("udp://127.0.0.1:18249", func(c *engine.Conn, event engine.Event, data *wire.Data) {
		switch event {
		case engine.EventConnectionReady:
			require.NoError(t, e.Get(c, wire.NewDataStr("ping"), nil, 30*time.Millisecond))
		case engine.EventError:
			timedOut = data.Str()
		}
	}, nil)
	require.NoError(t, err)
	_ = client

	for i := 0; i < 10 && timedOut == ""; i++ {
		require.NoError(t, e.RunLoop(10*time.Millisecond))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Equal(t, "udp get timed out", timedOut)
}

// ================ Unlisten fires listening_ended ================

func TestUnlisten_firesListeningEnded(t *testing.T) {
	e := engine.New(nil)

	ended := false
	listener, err := e.Listen("tcp://127.0.0.1:18250", func(c *engine.Conn, event engine.Event, data *wire.Data) {
		if event == engine.EventListeningEnded {
			ended = true
		}
	}, nil)
	require.NoError(t, err)

	pump(t, e, 1)
	require.NoError(t, e.Unlisten(listener))
	pump(t, e, 1)

	assert.True(t, ended)
}
