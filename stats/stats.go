// Package stats aggregates round-trip times of ICMP echo probes.
package stats

import (
	"math"
	"time"
)

// Stats are the running counters of a single target. Round-trip times are
// accumulated in milliseconds. The zero value is ready to use; it is not
// safe for concurrent use, callers copy it under their own lock to obtain
// a snapshot.
type Stats struct {
	Sent     uint64        // probes transmitted
	Received uint64        // replies credited
	Min      time.Duration // best rtt, valid if Received > 0
	Max      time.Duration // worst rtt, valid if Received > 0
	Sum      float64       // sum of rtts in ms
	SumSq    float64       // sum of squared rtts in ms²
}

// RecordSent counts a transmitted probe and returns the new total.
func (s *Stats) RecordSent() uint64 {
	s.Sent++
	return s.Sent
}

// RecordReply counts a reply with the given round-trip time.
func (s *Stats) RecordReply(rtt time.Duration) {
	if s.Received == 0 || rtt < s.Min {
		s.Min = rtt
	}
	if s.Received == 0 || rtt > s.Max {
		s.Max = rtt
	}
	s.Received++

	ms := milliseconds(rtt)
	s.Sum += ms
	s.SumSq += ms * ms
}

// LossRate returns the fraction of unanswered probes, 0 if nothing was
// sent yet.
func (s Stats) LossRate() float64 {
	if s.Sent == 0 {
		return 0
	}
	if s.Received >= s.Sent {
		return 0
	}
	return 1 - float64(s.Received)/float64(s.Sent)
}

// Mean returns the average rtt, 0 without replies.
func (s Stats) Mean() time.Duration {
	if s.Received == 0 {
		return 0
	}
	return fromMilliseconds(s.meanMS())
}

// Jitter returns the population standard deviation of the rtts, 0
// without replies.
func (s Stats) Jitter() time.Duration {
	if s.Received == 0 {
		return 0
	}
	mean := s.meanMS()
	variance := s.SumSq/float64(s.Received) - mean*mean
	if variance <= 0 {
		// rounding may push a zero variance below zero
		return 0
	}
	return fromMilliseconds(math.Sqrt(variance))
}

func (s Stats) meanMS() float64 {
	return s.Sum / float64(s.Received)
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func fromMilliseconds(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}
