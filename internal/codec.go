package internal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const (
	// ProtocolICMP is the number of the Internet Control Message Protocol
	// (see golang.org/x/net/internal/iana.ProtocolICMP)
	ProtocolICMP = 1

	// HeaderLen is the length of an ICMP echo header.
	HeaderLen = 8

	// MinPacketSize is the smallest echo request which still carries the
	// send timestamp.
	MinPacketSize = HeaderLen + stampLen

	// MaxPacketSize is the largest ICMP message fitting into an IPv4
	// datagram with a minimal header (65535 - 20 - 8 + 8).
	MaxPacketSize = 65527

	// MaxFrameSize is the largest IPv4 datagram we may read.
	MaxFrameSize = 0xffff

	ipv4MinHeaderLen = 20
)

var (
	ErrPacketSize   = errors.New("invalid packet size")
	ErrTruncated    = errors.New("truncated packet")
	ErrNotIPv4      = errors.New("not an IPv4 packet")
	ErrNotEchoReply = errors.New("not an echo reply")
)

// Reply is a decoded ICMP Echo Reply.
type Reply struct {
	Source netip.Addr
	TTL    int
	ID     uint16
	Seq    uint16
	Sent   time.Time     // timestamp echoed back by the peer
	RTT    time.Duration // receive time minus Sent
}

// EncodeEchoRequest builds an ICMP Echo Request of exactly size bytes.
// The send timestamp follows the header, the rest is zero. The checksum
// covers the whole buffer including the padding.
func EncodeEchoRequest(id, seq uint16, size int, now time.Time) ([]byte, error) {
	if size < MinPacketSize || size > MaxPacketSize {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrPacketSize, size, MinPacketSize, MaxPacketSize)
	}

	b := make([]byte, size)
	b[0] = byte(ipv4.ICMPTypeEcho)
	b[1] = 0
	binary.BigEndian.PutUint16(b[4:6], id)
	binary.BigEndian.PutUint16(b[6:8], seq)
	putStamp(b[HeaderLen:], now)
	binary.BigEndian.PutUint16(b[2:4], Checksum(b))

	return b, nil
}

// DecodeReply takes a raw IPv4 datagram as read from a raw ICMP socket and
// evaluates it as an Echo Reply. Any other ICMP message results in
// ErrNotEchoReply, which callers should treat as "not for us".
func DecodeReply(frame []byte, now time.Time) (Reply, error) {
	var r Reply

	if len(frame) < ipv4MinHeaderLen {
		return r, ErrTruncated
	}
	if frame[0]>>4 != ipv4.Version {
		return r, ErrNotIPv4
	}

	hlen := int(frame[0]&0x0f) << 2
	if hlen < ipv4MinHeaderLen || hlen > len(frame) {
		return r, ErrTruncated
	}

	r.TTL = int(frame[8])
	r.Source = netip.AddrFrom4([4]byte(frame[12:16]))

	m, err := icmp.ParseMessage(ProtocolICMP, frame[hlen:])
	if err != nil {
		return r, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if m.Type != ipv4.ICMPTypeEchoReply {
		return r, ErrNotEchoReply
	}

	echo, ok := m.Body.(*icmp.Echo)
	if !ok || echo == nil {
		return r, ErrNotEchoReply
	}
	r.ID = uint16(echo.ID)
	r.Seq = uint16(echo.Seq)

	sent, ok := readStamp(echo.Data)
	if !ok {
		return r, ErrTruncated
	}
	r.Sent = sent
	if rtt := now.Sub(sent); rtt > 0 {
		r.RTT = rtt
	}

	return r, nil
}
