package stats

import "time"

// Metrics is a dumb data point computed from a History.
type Metrics struct {
	PacketsSent int           // number of samples
	PacketsLost int           // number of lost probes
	Best        time.Duration // best rtt
	Worst       time.Duration // worst rtt
	Median      time.Duration // median rtt
	Mean        time.Duration // mean rtt
	StdDev      time.Duration // std deviation
}

// LossRate returns the fraction of lost probes within the window.
func (m *Metrics) LossRate() float64 {
	if m == nil || m.PacketsSent == 0 {
		return 0
	}
	return float64(m.PacketsLost) / float64(m.PacketsSent)
}
