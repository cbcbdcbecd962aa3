package engine

import "sync/atomic"

// Stats holds atomic counters tracking engine activity, exposed for the
// optional admin introspection surface. All fields are safe to read
// concurrently with the run loop; they are only ever written from the
// run-loop goroutine.
type Stats struct {
	connectionsOpened atomic.Uint64
	connectionsClosed atomic.Uint64
	bytesSent         atomic.Uint64
	bytesReceived     atomic.Uint64
	eventsDelivered   atomic.Uint64
	pollCalls         atomic.Uint64
	errors            atomic.Uint64
}

// Snapshot is a point-in-time copy of Stats suitable for serializing.
type Snapshot struct {
	ConnectionsOpened uint64 `json:"connections_opened"`
	ConnectionsClosed uint64 `json:"connections_closed"`
	ActiveConnections int64  `json:"active_connections"`
	BytesSent         uint64 `json:"bytes_sent"`
	BytesReceived     uint64 `json:"bytes_received"`
	EventsDelivered   uint64 `json:"events_delivered"`
	PollCalls         uint64 `json:"poll_calls"`
	Errors            uint64 `json:"errors"`
}

func (s *Stats) recordOpened()          { s.connectionsOpened.Add(1) }
func (s *Stats) recordClosed()          { s.connectionsClosed.Add(1) }
func (s *Stats) recordSent(n int)       { s.bytesSent.Add(uint64(n)) }
func (s *Stats) recordReceived(n int)   { s.bytesReceived.Add(uint64(n)) }
func (s *Stats) recordEvent()           { s.eventsDelivered.Add(1) }
func (s *Stats) recordPoll()            { s.pollCalls.Add(1) }
func (s *Stats) recordError()           { s.errors.Add(1) }

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	opened := s.connectionsOpened.Load()
	closed := s.connectionsClosed.Load()
	return Snapshot{
		ConnectionsOpened: opened,
		ConnectionsClosed: closed,
		ActiveConnections: int64(opened) - int64(closed),
		BytesSent:         s.bytesSent.Load(),
		BytesReceived:     s.bytesReceived.Load(),
		EventsDelivered:   s.eventsDelivered.Load(),
		PollCalls:         s.pollCalls.Load(),
		Errors:            s.errors.Load(),
	}
}
