package ping

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// Kind classifies an Event.
type Kind int

const (
	KindInfo Kind = iota
	KindReply
	KindSendError
	KindRecvError
	KindSocketError
)

func (k Kind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindReply:
		return "reply"
	case KindSendError:
		return "send error"
	case KindRecvError:
		return "receive error"
	case KindSocketError:
		return "socket error"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Event is a single result of the probe loop. String renders it as one
// line of text.
type Event struct {
	Kind Kind
	Time time.Time

	Target   int        // registry index, -1 if not target specific
	Hostname string     // as added to the registry
	Address  netip.Addr // source of a reply, destination of a failed send
	Name     string     // reverse DNS name, if resolved
	TTL      int
	Seq      uint16
	RTT      time.Duration

	Err  error
	Text string // informational message

	timestamp bool
	showDNS   bool
}

func (e Event) String() string {
	var sb strings.Builder

	if e.timestamp {
		sb.WriteString(e.Time.Format("[15:04:05] "))
	}

	switch e.Kind {
	case KindReply:
		sb.WriteString("Reply from ")
		if e.showDNS && e.Name != "" {
			fmt.Fprintf(&sb, "%s (%s)", e.Name, e.Address)
		} else {
			sb.WriteString(e.Address.String())
		}
		fmt.Fprintf(&sb, ": ttl=%d time=%s", e.TTL, FormatRTT(e.RTT))
	case KindSendError:
		sb.WriteString("Error sending packet")
	case KindRecvError:
		sb.WriteString("Error receiving packet")
	case KindSocketError:
		sb.WriteString("Error creating socket")
		if e.Err != nil {
			sb.WriteString(": ")
			sb.WriteString(e.Err.Error())
		}
	default:
		sb.WriteString(e.Text)
	}

	return sb.String()
}

const tsDividend = float64(time.Millisecond) / float64(time.Nanosecond)

// FormatRTT renders a round-trip time with two decimals in milliseconds,
// falling back to time.Duration.String for very small or large values.
func FormatRTT(dur time.Duration) string {
	if 10*time.Microsecond < dur && dur < time.Second {
		return fmt.Sprintf("%0.2fms", float64(dur.Nanoseconds())/tsDividend)
	}
	return dur.String()
}
