package main

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	ping "github.com/digineo/go-fping"
)

type history struct {
	last    time.Duration
	lastErr string
	mtx     sync.RWMutex
}

type destination struct {
	host    string
	display string
	index   int
	*history
}

// apply records what the event tells about this destination.
func (d *destination) apply(ev ping.Event) {
	d.mtx.Lock()
	switch ev.Kind {
	case ping.KindReply:
		d.last = ev.RTT
	case ping.KindSendError:
		d.lastErr = fmt.Sprintf("%s: %v", ev.Time.Format("15:04:05"), ev.Err)
	}
	d.mtx.Unlock()
}

// columns renders a table row, starting at the "sent" column.
func (d *destination) columns(t ping.Target) []string {
	d.mtx.RLock()
	defer d.mtx.RUnlock()

	s := t.Stats
	cols := []string{
		strconv.FormatUint(s.Sent, 10),
		fmt.Sprintf("%0.2f%%", s.LossRate()*100),
		"n/a", "n/a", "n/a", "n/a", "n/a",
		d.lastErr,
	}
	if s.Received == 0 {
		return cols
	}

	cols[2] = ping.FormatRTT(d.last)
	if m := t.Recent; m != nil && m.PacketsSent > m.PacketsLost {
		cols[3] = ping.FormatRTT(m.Best)
		cols[4] = ping.FormatRTT(m.Worst)
		cols[5] = ping.FormatRTT(m.Mean)
		cols[6] = ping.FormatRTT(m.StdDev)
	}
	return cols
}
