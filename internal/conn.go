package internal

import (
	"errors"
	"net/netip"
	"time"
)

var (
	// ErrWouldBlock is returned by Conn.ReadFrom when no datagram is queued.
	ErrWouldBlock = errors.New("no packet available")

	// ErrPermission is returned by Open when the process may not create
	// raw sockets.
	ErrPermission = errors.New("operation not permitted")

	errNotIPv4Addr = errors.New("destination is not an IPv4 address")
	errClosed      = errors.New("socket closed")
)

// Conn is a raw ICMPv4 endpoint. It is owned by a single goroutine.
type Conn interface {
	// WriteTo sends an ICMP message (without IP header) to dst.
	WriteTo(b []byte, dst netip.Addr) error

	// ReadFrom performs a single non-blocking read of one IPv4 datagram,
	// header included, and returns the time it arrived at the host. It
	// returns ErrWouldBlock when nothing is pending.
	ReadFrom(b []byte) (n int, src netip.Addr, at time.Time, err error)

	Close() error
}

// Marker is implemented by connections supporting SO_MARK.
type Marker interface {
	SetMark(mark uint) error
}

// Open creates a raw ICMPv4 socket.
func Open() (Conn, error) {
	return openRaw()
}
