package engine

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/jroosing/msgbox/internal/address"
	"github.com/jroosing/msgbox/internal/wire"
)

// headerBufPool reuses the HeaderLen-sized buffer each TCP reassembly
// starts with before it knows the frame's total size.
var headerBufPool = headerPeekPool

// peerStatus is the per-remote-peer bookkeeping the engine keeps outside
// of any single Conn: in-progress TCP reassembly state, the next reply id
// to hand out for an outbound request, and the table of reply ids this
// side is still waiting to hear back on.
//
// A TCP connection owns exactly one peerStatus for its lifetime. A UDP
// listening socket shares one Conn across many remote peers, so it keeps
// one peerStatus per distinct remote Address, created the first time a
// datagram arrives from that address and discarded only when the engine
// is told (there is no per-datagram "disconnect" signal on UDP).
type peerStatus struct {
	// total and waiting describe an in-flight TCP reassembly: total is the
	// full frame being filled in (header already decoded into header),
	// waiting is the suffix of total still unwritten. waiting is nil when
	// no reassembly is in progress (the next read is header bytes).
	total     []byte
	waiting   []byte
	inPayload bool
	header    wire.Header

	nextReplyID   uint16
	replyContexts map[uint16]any
}

func newPeerStatus() *peerStatus {
	return &peerStatus{
		nextReplyID:   1,
		replyContexts: make(map[uint16]any),
	}
}

// allocReplyID returns the next outbound request id, wrapping past zero
// (zero is reserved to mean "no reply expected").
func (s *peerStatus) allocReplyID() uint16 {
	if s.nextReplyID == 0 {
		s.nextReplyID = 1
	}
	id := s.nextReplyID
	s.nextReplyID++
	if s.nextReplyID == 0 {
		s.nextReplyID = 1
	}
	return id
}

// continueRecv reads as many bytes as are currently available on fd,
// advancing the in-progress reassembly. It returns done=true once a full
// frame (header decoded, header.NumBytes extra bytes of payload waiting)
// has been received; closed=true if the peer ended the connection; n is
// the number of bytes actually read, for stats accounting; err is any
// read error other than "would block".
func (s *peerStatus) continueRecv(fd int) (done, closed bool, n int, err error) {
	for {
		if s.total == nil {
			s.total = headerBufPool.Get()
			s.waiting = s.total
			s.inPayload = false
		}

		if len(s.waiting) == 0 {
			// Header portion just completed on a previous iteration but
			// NumBytes was zero, so there is nothing left to read.
			return true, false, n, nil
		}

		r, readErr := unix.Read(fd, s.waiting)
		if readErr != nil {
			if errors.Is(readErr, unix.EAGAIN) || errors.Is(readErr, unix.EWOULDBLOCK) {
				return false, false, n, nil
			}
			if errors.Is(readErr, unix.ECONNRESET) {
				return false, true, n, nil
			}
			return false, false, n, readErr
		}
		if r == 0 {
			return false, true, n, nil
		}
		n += r
		s.waiting = s.waiting[r:]
		if len(s.waiting) > 0 {
			return false, false, n, nil
		}

		if !s.inPayload {
			h, decodeErr := wire.DecodeHeader(s.total)
			if decodeErr != nil {
				return false, false, n, decodeErr
			}
			s.header = h
			if h.NumBytes == 0 {
				return true, false, n, nil
			}
			full := make([]byte, wire.HeaderLen+int(h.NumBytes))
			copy(full, s.total)
			headerBufPool.Put(s.total[:wire.HeaderLen])
			s.total = full
			s.waiting = s.total[wire.HeaderLen:]
			s.inPayload = true
			continue
		}

		return true, false, n, nil
	}
}

// takeFrame returns the completed frame's payload and resets reassembly
// state for the next frame.
func (s *peerStatus) takeFrame() []byte {
	payload := s.total[wire.HeaderLen:]
	if cap(s.total) == wire.HeaderLen {
		headerBufPool.Put(s.total[:wire.HeaderLen])
	}
	s.total = nil
	s.waiting = nil
	s.inPayload = false
	return payload
}

// statusTable maps remote addresses to their peerStatus, used only by
// shared UDP listening connections; a TCP Conn or a UDP client Conn keeps
// its single peerStatus inline instead of in a table.
type statusTable struct {
	byAddr map[address.Address]*peerStatus
}

func newStatusTable() *statusTable {
	return &statusTable{byAddr: make(map[address.Address]*peerStatus)}
}

// getOrCreate returns the peerStatus for addr, creating it (and reporting
// created=true) the first time addr is seen.
func (t *statusTable) getOrCreate(addr address.Address) (status *peerStatus, created bool) {
	if s, ok := t.byAddr[addr]; ok {
		return s, false
	}
	s := newPeerStatus()
	t.byAddr[addr] = s
	return s, true
}

func (t *statusTable) remove(addr address.Address) {
	delete(t.byAddr, addr)
}
