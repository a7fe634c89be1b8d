package ping

import (
	"net/netip"
	"sync"
	"time"

	"github.com/digineo/go-fping/stats"
)

const (
	// seqWindow is the number of most recent sequence numbers per target
	// for which a reply is still accepted.
	seqWindow = 64

	historySize = 50
)

// Target is a snapshot of a registered probe target.
type Target struct {
	Index    int
	Hostname string
	Address  netip.Addr
	Stats    stats.Stats
	Recent   *stats.Metrics // computed from the most recent probes, nil before the first
}

// target represents a ping target. Its stats are written by the probe
// loop and read through snapshot.
type target struct {
	index    int
	hostname string
	addr     netip.Addr

	stats   stats.Stats
	history *stats.History
	pending [seqWindow]bool // outstanding sequence numbers, indexed by seq % seqWindow
	sync.Mutex
}

func newTarget(index int, hostname string, addr netip.Addr) *target {
	return &target{
		index:    index,
		hostname: hostname,
		addr:     addr,
		history:  stats.NewHistory(historySize),
	}
}

// nextSeq counts a probe as sent and returns its sequence number. A probe
// still unanswered when its slot is reused is recorded as lost.
func (t *target) nextSeq() uint16 {
	t.Lock()
	seq := uint16(t.stats.RecordSent())
	slot := seq % seqWindow
	lost := t.pending[slot]
	t.pending[slot] = true
	t.Unlock()

	if lost {
		t.history.AddLoss()
	}
	return seq
}

// credit accepts a reply for seq if that probe is outstanding. Late,
// duplicated or unknown replies are refused.
func (t *target) credit(seq uint16, rtt time.Duration) bool {
	t.Lock()
	current := uint16(t.stats.Sent)
	if current-seq >= seqWindow || !t.pending[seq%seqWindow] {
		t.Unlock()
		return false
	}
	t.pending[seq%seqWindow] = false
	t.stats.RecordReply(rtt)
	t.Unlock()

	t.history.AddReply(rtt)
	return true
}

// outstanding reports whether any probe awaits its reply.
func (t *target) outstanding() bool {
	t.Lock()
	defer t.Unlock()

	for _, p := range t.pending {
		if p {
			return true
		}
	}
	return false
}

// expire records all outstanding probes as lost.
func (t *target) expire() {
	t.Lock()
	var lost int
	for i, p := range t.pending {
		if p {
			t.pending[i] = false
			lost++
		}
	}
	t.Unlock()

	for ; lost > 0; lost-- {
		t.history.AddLoss()
	}
}

func (t *target) snapshot() Target {
	t.Lock()
	s := t.stats
	t.Unlock()

	return Target{
		Index:    t.index,
		Hostname: t.hostname,
		Address:  t.addr,
		Stats:    s,
		Recent:   t.history.Compute(),
	}
}
