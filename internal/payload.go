package internal

import (
	"encoding/binary"
	"time"

	"github.com/digineo/go-logwrap"
)

var (
	Logger = &logwrap.Instance{}

	// SetLogger allows updating the Logger. For details, see
	// "github.com/digineo/go-logwrap".Instance.SetLogger.
	SetLogger = Logger.SetLogger
)

// stampLen is the size of the send timestamp embedded in every Echo
// Request right after the ICMP header.
const stampLen = 8

// putStamp writes t as big-endian nanoseconds since the Unix epoch.
func putStamp(b []byte, t time.Time) {
	binary.BigEndian.PutUint64(b, uint64(t.UnixNano()))
}

// readStamp extracts the timestamp written by putStamp. Peers echo the
// payload unmodified, so this is the time the request left us.
func readStamp(b []byte) (time.Time, bool) {
	if len(b) < stampLen {
		return time.Time{}, false
	}
	ns := int64(binary.BigEndian.Uint64(b))
	if ns <= 0 {
		return time.Time{}, false
	}
	return time.Unix(0, ns), true
}
