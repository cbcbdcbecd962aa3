package engine

import (
	"golang.org/x/sys/unix"

	"github.com/jroosing/msgbox/internal/address"
)

// sockaddrFor converts an Address into the unix package's sockaddr type,
// used for bind/connect.
func sockaddrFor(a address.Address) *unix.SockaddrInet4 {
	return &unix.SockaddrInet4{Addr: a.IP, Port: int(a.Port)}
}

// newNonblockingSocket creates a socket for the given transport, marks it
// non-blocking, and (for TCP) sets SO_REUSEADDR so a restarted listener
// can immediately rebind a recently-closed port.
func newNonblockingSocket(transport address.Transport) (int, error) {
	typ := unix.SOCK_STREAM
	proto := 0
	if transport == address.UDP {
		typ = unix.SOCK_DGRAM
	}

	fd, err := unix.Socket(unix.AF_INET, typ, proto)
	if err != nil {
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if transport == address.TCP {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			unix.Close(fd)
			return -1, err
		}
	}
	return fd, nil
}

func addrFromSockaddr(sa unix.Sockaddr, transport address.Transport) address.Address {
	var a address.Address
	a.Transport = transport
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		a.IP = in4.Addr
		a.Port = uint16(in4.Port)
	}
	return a
}
