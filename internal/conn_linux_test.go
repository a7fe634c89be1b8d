package internal

import (
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func timestampCmsg(t time.Time) []byte {
	size := int(unsafe.Sizeof(unix.Timespec{}))
	b := make([]byte, unix.CmsgSpace(size))

	h := (*unix.Cmsghdr)(unsafe.Pointer(&b[0]))
	h.Level = unix.SOL_SOCKET
	h.Type = unix.SCM_TIMESTAMPNS
	h.SetLen(unix.CmsgLen(size))

	*(*unix.Timespec)(unsafe.Pointer(&b[unix.CmsgLen(0)])) = unix.NsecToTimespec(t.UnixNano())
	return b
}

func TestArrival(t *testing.T) {
	assert := assert.New(t)

	at := time.Unix(1700000000, 123456789)
	assert.True(at.Equal(arrival(timestampCmsg(at))))

	// no control message
	before := time.Now()
	assert.False(arrival(nil).Before(before))
}
