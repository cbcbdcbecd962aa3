package engine

import (
	"time"

	"github.com/jroosing/msgbox/internal/address"
	"github.com/jroosing/msgbox/internal/wire"
)

// pendingGet tracks one outstanding request awaiting a reply, so RunLoop
// can notice it has gone unanswered for too long. The original C library
// left this unimplemented (a "set up a new Timeout object" TODO in
// msg_get); this engine implements it as a required feature.
type pendingGet struct {
	conn     *Conn
	status   *peerStatus
	peer     address.Address
	replyID  uint16
	deadline time.Time
}

// DefaultUDPTimeout is how long Get waits for a reply over UDP before
// firing EventError, unless overridden per-call.
const DefaultUDPTimeout = 1 * time.Second

// DefaultTCPTimeout is how long Get waits for a reply over TCP before
// firing EventError, unless overridden per-call. TCP's own retransmission
// means a much longer default is appropriate than UDP's.
const DefaultTCPTimeout = 30 * time.Second

func (e *Engine) addPendingGet(c *Conn, status *peerStatus, peer address.Address, replyID uint16, timeout time.Duration) {
	e.pendingGets = append(e.pendingGets, pendingGet{
		conn:     c,
		status:   status,
		peer:     peer,
		replyID:  replyID,
		deadline: time.Now().Add(timeout),
	})
}

// clearPendingGet removes a pendingGet once its reply has actually
// arrived, so it is not later reported as timed out.
func (e *Engine) clearPendingGet(c *Conn, replyID uint16) {
	out := e.pendingGets[:0]
	for _, p := range e.pendingGets {
		if p.conn == c && p.replyID == replyID {
			continue
		}
		out = append(out, p)
	}
	e.pendingGets = out
}

// scanTimeouts is called at the top of every RunLoop pass. It fires
// EventError (with the exact message the spec requires, distinguishing
// transport) for every request whose deadline has passed, and forgets the
// reply context so a late reply for it is treated as unrecognized.
func (e *Engine) scanTimeouts() {
	if len(e.pendingGets) == 0 {
		return
	}
	now := time.Now()
	remaining := e.pendingGets[:0]
	for _, p := range e.pendingGets {
		if now.Before(p.deadline) {
			remaining = append(remaining, p)
			continue
		}
		delete(p.status.replyContexts, p.replyID)

		msg := "tcp get timed out"
		if p.conn.transport == address.UDP {
			msg = "udp get timed out"
		}
		e.scheduler.schedule(call{
			conn:   p.conn,
			event:  EventError,
			data:   wire.NewDataStr(msg),
			active: p.peer,
		})
		e.stats.recordError()
	}
	e.pendingGets = remaining
}
