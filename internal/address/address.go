// Package address parses and formats msgbox wire addresses.
//
// An address has the form (tcp|udp)://(<ipv4-dotted-quad>|*):<port>. The
// wildcard host is only meaningful when listening; it means "any local
// interface" and maps to INADDR_ANY.
package address

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Transport identifies which wire transport an Address uses.
type Transport uint8

const (
	TCP Transport = iota
	UDP
)

// String returns "tcp" or "udp".
func (t Transport) String() string {
	if t == UDP {
		return "udp"
	}
	return "tcp"
}

// Address is the parsed (ip, port, transport) triple. Equality is
// byte-wise over the fixed-size IP array, Port, and Transport, so Address
// values are directly comparable with ==.
type Address struct {
	// IP holds the IPv4 address in its 4-byte form, network byte order.
	// It is all-zero both for "0.0.0.0" and for the wildcard "*" host;
	// Wildcard tells the two apart.
	IP        [4]byte
	Port      uint16
	Transport Transport
	// Wildcard records whether this address was parsed from "*", since
	// 0.0.0.0 and "*" both map to an all-zero IP but only the former is
	// accepted outside of a listener (Engine.Connect rejects "*").
	Wildcard bool
}

// Parse parses a string of the form "tcp://1.2.3.4:80" or "udp://*:53".
// The wildcard host "*" is only valid for a listener; Parse itself does not
// enforce that — callers that connect rather than listen must reject a
// Wildcard address themselves.
func Parse(s string) (Address, error) {
	var a Address

	var rest string
	switch {
	case strings.HasPrefix(s, "tcp://"):
		a.Transport = TCP
		rest = s[len("tcp://"):]
	case strings.HasPrefix(s, "udp://"):
		a.Transport = UDP
		rest = s[len("udp://"):]
	default:
		return Address{}, fmt.Errorf("bad address %q: unrecognized prefix", s)
	}

	colon := strings.LastIndexByte(rest, ':')
	if colon < 0 {
		return Address{}, fmt.Errorf("bad address %q: missing colon after ip", s)
	}

	ipStr, portStr := rest[:colon], rest[colon+1:]

	if len(ipStr) < 1 || len(ipStr) > 15 {
		return Address{}, fmt.Errorf("bad address %q: ip length %d outside 1-15", s, len(ipStr))
	}

	if ipStr == "*" {
		a.Wildcard = true
	} else {
		ip4 := net.ParseIP(ipStr)
		if ip4 == nil {
			return Address{}, fmt.Errorf("bad address %q: couldn't parse ip %q", s, ipStr)
		}
		ip4 = ip4.To4()
		if ip4 == nil {
			return Address{}, fmt.Errorf("bad address %q: %q is not an ipv4 address", s, ipStr)
		}
		copy(a.IP[:], ip4)
	}

	if portStr == "" {
		return Address{}, fmt.Errorf("bad address %q: empty port", s)
	}
	port, err := strconv.ParseUint(portStr, 10, 32)
	if err != nil {
		return Address{}, fmt.Errorf("bad address %q: invalid port %q", s, portStr)
	}
	if port < 1 || port > 65535 {
		return Address{}, fmt.Errorf("bad address %q: port %d out of range [1, 65535]", s, port)
	}
	a.Port = uint16(port)

	return a, nil
}

// String reproduces the address's wire syntax, e.g. "tcp://127.0.0.1:2345".
func (a Address) String() string {
	host := "*"
	if !a.Wildcard {
		host = net.IP(a.IP[:]).String()
	}
	return fmt.Sprintf("%s://%s:%d", a.Transport, host, a.Port)
}

// IPString returns just the host portion, e.g. "127.0.0.1" or "*".
func (a Address) IPString() string {
	if a.Wildcard {
		return "*"
	}
	return net.IP(a.IP[:]).String()
}

// UDPAddr converts to a *net.UDPAddr suitable for net.ResolveUDPAddr-free use.
func (a Address) UDPAddr() *net.UDPAddr {
	ip := net.IP(a.IP[:])
	if a.Wildcard {
		ip = nil
	}
	return &net.UDPAddr{IP: ip, Port: int(a.Port)}
}

// TCPAddr converts to a *net.TCPAddr.
func (a Address) TCPAddr() *net.TCPAddr {
	ip := net.IP(a.IP[:])
	if a.Wildcard {
		ip = nil
	}
	return &net.TCPAddr{IP: ip, Port: int(a.Port)}
}

// FromUDPAddr builds a remote Address from a resolved *net.UDPAddr, used
// when attributing an inbound datagram to its source peer.
func FromUDPAddr(udp *net.UDPAddr) Address {
	var a Address
	a.Transport = UDP
	a.Port = uint16(udp.Port)
	if ip4 := udp.IP.To4(); ip4 != nil {
		copy(a.IP[:], ip4)
	}
	return a
}

// FromTCPAddr builds a remote Address from a resolved *net.TCPAddr.
func FromTCPAddr(tcp *net.TCPAddr) Address {
	var a Address
	a.Transport = TCP
	a.Port = uint16(tcp.Port)
	if ip4 := tcp.IP.To4(); ip4 != nil {
		copy(a.IP[:], ip4)
	}
	return a
}
