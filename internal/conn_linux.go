package internal

import (
	"errors"
	"net/netip"
	"os"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// oobSize fits a single SCM_TIMESTAMPNS control message.
var oobSize = unix.CmsgSpace(int(unsafe.Sizeof(unix.Timespec{})))

// rawConn wraps an AF_INET/SOCK_RAW/IPPROTO_ICMP socket. Reads on such a
// socket return the complete IPv4 datagram, which is what DecodeReply
// expects.
type rawConn struct {
	fd   int
	oob  []byte
	once sync.Once
	mtx  sync.RWMutex
	gone bool
}

func openRaw() (Conn, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.IPPROTO_ICMP)
	if err != nil {
		if errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
			return nil, ErrPermission
		}
		return nil, os.NewSyscallError("socket", err)
	}

	// room for reply bursts of all targets
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, 1<<20); err != nil {
		Logger.Infof("unable to increase receive buffer: %v", err)
	}

	// kernel receive timestamps for round-trip times
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TIMESTAMPNS, 1); err != nil {
		Logger.Infof("unable to enable receive timestamps: %v", err)
	}

	return &rawConn{fd: fd, oob: make([]byte, oobSize)}, nil
}

func (c *rawConn) WriteTo(b []byte, dst netip.Addr) error {
	if !dst.Is4() {
		return errNotIPv4Addr
	}

	c.mtx.RLock()
	defer c.mtx.RUnlock()
	if c.gone {
		return errClosed
	}

	sa := unix.SockaddrInet4{Addr: dst.As4()}
	return os.NewSyscallError("sendto", unix.Sendto(c.fd, b, 0, &sa))
}

func (c *rawConn) ReadFrom(b []byte) (int, netip.Addr, time.Time, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	if c.gone {
		return 0, netip.Addr{}, time.Time{}, errClosed
	}

	n, oobn, _, from, err := unix.Recvmsg(c.fd, b, c.oob, unix.MSG_DONTWAIT)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) {
			return 0, netip.Addr{}, time.Time{}, ErrWouldBlock
		}
		return 0, netip.Addr{}, time.Time{}, os.NewSyscallError("recvmsg", err)
	}

	var src netip.Addr
	if sa, ok := from.(*unix.SockaddrInet4); ok {
		src = netip.AddrFrom4(sa.Addr)
	}
	return n, src, arrival(c.oob[:oobn]), nil
}

// arrival extracts the SCM_TIMESTAMPNS receive time from the control
// messages. It falls back to the current time.
func arrival(oob []byte) time.Time {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return time.Now()
	}
	for _, m := range msgs {
		if m.Header.Level != unix.SOL_SOCKET || m.Header.Type != unix.SCM_TIMESTAMPNS {
			continue
		}
		if len(m.Data) < int(unsafe.Sizeof(unix.Timespec{})) {
			break
		}
		ts := *(*unix.Timespec)(unsafe.Pointer(&m.Data[0]))
		return time.Unix(ts.Unix())
	}
	return time.Now()
}

func (c *rawConn) Close() (err error) {
	c.once.Do(func() {
		c.mtx.Lock()
		c.gone = true
		c.mtx.Unlock()
		err = os.NewSyscallError("close", unix.Close(c.fd))
	})
	return err
}

// SetMark sets the SO_MARK socket option, used by policy routing.
func (c *rawConn) SetMark(mark uint) error {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	if c.gone {
		return errClosed
	}

	return os.NewSyscallError(
		"setsockopt",
		unix.SetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_MARK, int(mark)),
	)
}
