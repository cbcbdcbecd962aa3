package engine

import (
	"github.com/jroosing/msgbox/internal/address"
	"github.com/jroosing/msgbox/internal/wire"
)

// call is one queued callback invocation.
type call struct {
	conn         *Conn
	event        Event
	data         *wire.Data
	replyID      uint16
	replyContext any
	active       address.Address
}

// scheduler buffers callback invocations discovered during one readiness
// sweep and drains them afterward, rather than invoking callbacks inline
// while iterating the reactor's events. A callback that enqueues new work
// (a Send, a Get, a Disconnect) must not be allowed to either starve the
// sweep that triggered it or be re-visited by it; draining via a
// queue-swap — grab the current queue, install a fresh empty one, then run
// everything that was grabbed — gives exactly one FIFO pass over "work
// enqueued so far" per RunLoop call, and anything enqueued during that pass
// waits for the next one.
type scheduler struct {
	pending []call
}

func newScheduler() *scheduler {
	return &scheduler{}
}

func (s *scheduler) schedule(c call) {
	s.pending = append(s.pending, c)
}

// drain swaps out the pending queue and invokes every call that was in it
// before the swap, in order. fn performs the actual dispatch (setting up
// Conn.active/replyID/replyContext and invoking the user Callback).
func (s *scheduler) drain(fn func(call)) {
	if len(s.pending) == 0 {
		return
	}
	batch := s.pending
	s.pending = nil
	for _, c := range batch {
		fn(c)
	}
}
