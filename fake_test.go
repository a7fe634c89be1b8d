package ping

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/digineo/go-fping/internal"
)

const testID = 0x4242

// fakeResolver resolves from static tables. Reverse lookups take delay.
type fakeResolver struct {
	hosts map[string][]net.IPAddr
	names map[string][]string
	delay time.Duration

	mtx     sync.Mutex
	reverse int
}

func (r *fakeResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	if addrs, ok := r.hosts[host]; ok {
		return addrs, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

func (r *fakeResolver) LookupAddr(ctx context.Context, addr string) ([]string, error) {
	r.mtx.Lock()
	r.reverse++
	r.mtx.Unlock()

	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if names, ok := r.names[addr]; ok {
		return names, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: addr, IsNotFound: true}
}

type sentPacket struct {
	data []byte
	dst  netip.Addr
	at   time.Time
}

func (r *fakeResolver) reverseLookups() int {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.reverse
}

type frame struct {
	data []byte
	at   time.Time // readable from
}

// fakeConn answers echo requests through respond, which returns the
// frames to deliver on the next reads. They become readable delay after
// the request was written.
type fakeConn struct {
	respond  func(req []byte, dst netip.Addr) [][]byte
	delay    time.Duration
	writeErr error
	readErrs []error

	mtx    sync.Mutex
	sent   []sentPacket
	inbox  []frame
	closed bool
}

func (c *fakeConn) WriteTo(b []byte, dst netip.Addr) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.closed {
		return errors.New("use of closed connection")
	}
	now := time.Now()
	c.sent = append(c.sent, sentPacket{data: append([]byte(nil), b...), dst: dst, at: now})
	if c.writeErr != nil {
		return c.writeErr
	}
	if c.respond != nil {
		for _, data := range c.respond(b, dst) {
			c.inbox = append(c.inbox, frame{data: data, at: now.Add(c.delay)})
		}
	}
	return nil
}

// deliver queues a frame which is readable right away.
func (c *fakeConn) deliver(data []byte) {
	c.mtx.Lock()
	c.inbox = append(c.inbox, frame{data: data, at: time.Now()})
	c.mtx.Unlock()
}

func (c *fakeConn) ReadFrom(b []byte) (int, netip.Addr, time.Time, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if len(c.readErrs) > 0 {
		err := c.readErrs[0]
		c.readErrs = c.readErrs[1:]
		return 0, netip.Addr{}, time.Time{}, err
	}
	if len(c.inbox) == 0 || c.inbox[0].at.After(time.Now()) {
		return 0, netip.Addr{}, time.Time{}, internal.ErrWouldBlock
	}
	f := c.inbox[0]
	c.inbox = c.inbox[1:]
	n := copy(b, f.data)
	return n, netip.AddrFrom4([4]byte(f.data[12:16])), f.at, nil
}

func (c *fakeConn) Close() error {
	c.mtx.Lock()
	c.closed = true
	c.mtx.Unlock()
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.closed
}

func (c *fakeConn) sentTo(dst netip.Addr) int {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	var n int
	for _, p := range c.sent {
		if p.dst == dst {
			n++
		}
	}
	return n
}

func (c *fakeConn) packets() []sentPacket {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return append([]sentPacket(nil), c.sent...)
}

// echoReply builds the frame a peer at src would send back for req.
func echoReply(t testing.TB, req []byte, src netip.Addr, ttl int) []byte {
	b := append([]byte(nil), req...)
	b[0] = byte(ipv4.ICMPTypeEchoReply)
	b[2], b[3] = 0, 0
	binary.BigEndian.PutUint16(b[2:4], internal.Checksum(b))
	return withIPv4(t, b, src, ttl)
}

func withIPv4(t testing.TB, payload []byte, src netip.Addr, ttl int) []byte {
	h := ipv4.Header{
		Version:  ipv4.Version,
		Len:      ipv4.HeaderLen,
		TotalLen: ipv4.HeaderLen + len(payload),
		TTL:      ttl,
		Protocol: internal.ProtocolICMP,
		Src:      net.IP(src.AsSlice()),
		Dst:      net.IPv4(192, 0, 2, 254),
	}
	hb, err := h.Marshal()
	require.NoError(t, err)
	return append(hb, payload...)
}

// unreachable builds a destination unreachable message from a router.
func unreachable(t testing.TB, req []byte, router netip.Addr) []byte {
	msg := icmp.Message{
		Type: ipv4.ICMPTypeDestinationUnreachable,
		Code: 1,
		Body: &icmp.DstUnreach{Data: withIPv4(t, req[:8], router, 1)},
	}
	wb, err := msg.Marshal(nil)
	require.NoError(t, err)
	return withIPv4(t, wb, router, 250)
}

// echoResponder answers every request from its destination.
func echoResponder(t testing.TB, ttl int) func([]byte, netip.Addr) [][]byte {
	return func(req []byte, dst netip.Addr) [][]byte {
		return [][]byte{echoReply(t, req, dst, ttl)}
	}
}

func newTestEngine(conn *fakeConn, r *fakeResolver) *Engine {
	if r == nil {
		r = &fakeResolver{}
	}
	return New(
		WithResolver(r),
		WithIdentifier(testID),
		WithConn(func() (Conn, error) { return conn, nil }),
	)
}

// drainEvents closes the engine and returns every event it published.
func drainEvents(t *testing.T, e *Engine) []Event {
	e.Close()

	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-e.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("event stream not closed")
			return events
		}
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Interval = MinInterval
	cfg.Timeout = MinTimeout
	cfg.Quiet = true
	return cfg
}
