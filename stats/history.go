package stats

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Sample is the outcome of a single probe: either a round-trip time or a
// loss.
type Sample struct {
	RTT  time.Duration
	Lost bool
}

// History keeps the most recent samples of a target in a ring buffer.
type History struct {
	samples  []Sample
	count    int
	position int
	sync.RWMutex
}

// NewHistory creates a new History object with a specific capacity.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		samples: make([]Sample, capacity),
	}
}

// AddReply records an answered probe.
func (h *History) AddReply(rtt time.Duration) {
	h.add(Sample{RTT: rtt})
}

// AddLoss records a probe which was never answered.
func (h *History) AddLoss() {
	h.add(Sample{Lost: true})
}

func (h *History) add(s Sample) {
	h.Lock()
	h.samples[h.position] = s
	h.position = (h.position + 1) % len(h.samples)
	if h.count < len(h.samples) {
		h.count++
	}
	h.Unlock()
}

// Len returns the number of samples currently kept.
func (h *History) Len() int {
	h.RLock()
	defer h.RUnlock()
	return h.count
}

// Clear drops all samples.
func (h *History) Clear() {
	h.Lock()
	h.count = 0
	h.position = 0
	h.Unlock()
}

// Compute aggregates the kept samples into a single data point. It
// returns nil if there are no samples.
func (h *History) Compute() *Metrics {
	h.RLock()
	defer h.RUnlock()

	if h.count == 0 {
		return nil
	}

	m := &Metrics{PacketsSent: h.count}
	rtts := make([]float64, 0, h.count)
	var total float64

	for _, s := range h.samples[:h.count] {
		if s.Lost {
			m.PacketsLost++
			continue
		}
		if len(rtts) == 0 || s.RTT < m.Best {
			m.Best = s.RTT
		}
		if len(rtts) == 0 || s.RTT > m.Worst {
			m.Worst = s.RTT
		}
		rtts = append(rtts, float64(s.RTT))
		total += float64(s.RTT)
	}

	n := len(rtts)
	if n == 0 {
		return m
	}

	mean := total / float64(n)
	var squares float64
	for _, rtt := range rtts {
		squares += (rtt - mean) * (rtt - mean)
	}
	m.Mean = time.Duration(mean)
	m.StdDev = time.Duration(math.Sqrt(squares / float64(n)))

	sort.Float64s(rtts)
	if n%2 == 0 {
		m.Median = time.Duration((rtts[n/2-1] + rtts[n/2]) / 2)
	} else {
		m.Median = time.Duration(rtts[n/2])
	}

	return m
}
