// Package reactor implements a single-threaded, poll-based readiness
// multiplexer: callers register a file descriptor with an interest set
// (read/write), call Poll repeatedly from one goroutine, and get back the
// subset that became ready. There is no internal locking and no internal
// goroutines — concurrency safety is the caller's job, by construction,
// since the whole point is a cooperative single-threaded event loop.
package reactor

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Mode is a bitmask of interests a registered descriptor can have.
type Mode uint8

const (
	Read Mode = 1 << iota
	Write
)

// Event reports one descriptor's readiness after a Poll call.
type Event struct {
	Data     any
	Readable bool
	Writable bool
	Err      bool
}

// entry is the reactor's bookkeeping for one live registration.
type entry struct {
	fd   int
	mode Mode
	data any
}

// Reactor tracks a set of file descriptors and their interest sets, and
// answers "which of these are ready" via the host's poll(2) facility.
//
// Registration indices are NOT stable across Unregister calls: removal
// swaps the last live entry into the removed slot (O(1), matching the
// original swap-with-last removal this package is modeled on), so a caller
// that keeps its own index into the reactor must update it when told a
// swap occurred (see the moved map Poll returns).
type Reactor struct {
	entries []entry
	removed []int // pending unregistrations, applied at the top of the next Poll
}

// New returns an empty Reactor.
func New() *Reactor {
	return &Reactor{}
}

// Register adds fd with the given interest set and opaque user data,
// returning its index for later SetMode/Unregister calls.
func (r *Reactor) Register(fd int, mode Mode, data any) int {
	r.entries = append(r.entries, entry{fd: fd, mode: mode, data: data})
	return len(r.entries) - 1
}

// SetMode changes the interest set for an already-registered index.
func (r *Reactor) SetMode(index int, mode Mode) {
	if index < 0 || index >= len(r.entries) {
		return
	}
	r.entries[index].mode = mode
}

// Data returns the opaque user data stored at index.
func (r *Reactor) Data(index int) any {
	if index < 0 || index >= len(r.entries) {
		return nil
	}
	return r.entries[index].data
}

// Unregister marks index for removal. The removal itself is deferred to
// the top of the next Poll call, so it is safe to call Unregister from
// inside a callback that was invoked during the current Poll's event
// delivery without disturbing indices other callbacks still reference in
// that same sweep.
func (r *Reactor) Unregister(index int) {
	for _, already := range r.removed {
		if already == index {
			return
		}
	}
	r.removed = append(r.removed, index)
}

// applyRemovals performs deferred Unregister calls via swap-with-last,
// returning the set of (removedIndex -> movedFromIndex) swaps that
// occurred so callers can fix up any external index bookkeeping.
func (r *Reactor) applyRemovals() map[int]int {
	if len(r.removed) == 0 {
		return nil
	}
	moved := make(map[int]int, len(r.removed))

	// Remove highest indices first so earlier removals in this batch
	// don't shift the meaning of later ones.
	pending := append([]int(nil), r.removed...)
	for i := 0; i < len(pending); i++ {
		for j := i + 1; j < len(pending); j++ {
			if pending[j] > pending[i] {
				pending[i], pending[j] = pending[j], pending[i]
			}
		}
	}

	for _, idx := range pending {
		if idx < 0 || idx >= len(r.entries) {
			continue
		}
		last := len(r.entries) - 1
		if idx != last {
			r.entries[idx] = r.entries[last]
			moved[idx] = last
		}
		r.entries = r.entries[:last]
	}

	r.removed = r.removed[:0]
	return moved
}

// Poll waits up to timeout for readiness on any registered descriptor
// (timeout < 0 means wait forever, timeout == 0 means return immediately).
// It first applies any deferred Unregister calls, then blocks in poll(2),
// then returns one Event per descriptor that is ready, in registration
// order. The returned moved map reports index reassignments caused by
// deferred removal (removedIndex -> formerIndexOfEntryMovedIntoItsSlot);
// callers that cache reactor indices elsewhere must apply these swaps to
// their own bookkeeping before interpreting this Poll's events.
func (r *Reactor) Poll(timeout time.Duration) (events []Event, moved map[int]int, err error) {
	moved = r.applyRemovals()

	if len(r.entries) == 0 {
		if timeout > 0 {
			time.Sleep(timeout)
		}
		return nil, moved, nil
	}

	pollFds := make([]unix.PollFd, len(r.entries))
	for i, e := range r.entries {
		var events int16
		if e.mode&Read != 0 {
			events |= unix.POLLIN
		}
		if e.mode&Write != 0 {
			events |= unix.POLLOUT
		}
		pollFds[i] = unix.PollFd{Fd: int32(e.fd), Events: events}
	}

	ms := int(timeout / time.Millisecond)
	if timeout < 0 {
		ms = -1
	}

	n, err := unix.Poll(pollFds, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, moved, nil
		}
		return nil, moved, fmt.Errorf("reactor: poll: %w", err)
	}
	if n == 0 {
		return nil, moved, nil
	}

	out := make([]Event, 0, n)
	for i, pfd := range pollFds {
		if pfd.Revents == 0 {
			continue
		}
		out = append(out, Event{
			Data:     r.entries[i].data,
			Readable: pfd.Revents&unix.POLLIN != 0,
			Writable: pfd.Revents&unix.POLLOUT != 0,
			Err:      pfd.Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0,
		})
	}
	return out, moved, nil
}

// Len returns the number of currently registered descriptors (not counting
// deferred removals that have not yet been applied).
func (r *Reactor) Len() int {
	return len(r.entries)
}
