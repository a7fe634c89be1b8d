package ping

import (
	"fmt"
	"time"

	"github.com/digineo/go-fping/internal"
)

const (
	MinPacketSize     = 32
	MaxPacketSize     = internal.MaxPacketSize
	DefaultPacketSize = 56

	MinInterval = 100 * time.Millisecond
	MaxInterval = 5 * time.Second
	MinTimeout  = 100 * time.Millisecond
	MaxTimeout  = 5 * time.Second
)

// Config controls a single run. Start takes a copy, changes made to the
// original afterwards have no effect on a running loop.
type Config struct {
	Timeout    time.Duration // reply deadline after the last probe of a bounded run, reverse lookups
	Interval   time.Duration // minimum gap between two transmissions
	PacketSize int           // ICMP message size, header included
	Count      int           // rounds of a bounded run, 0 means 1
	Continuous bool          // repeat rounds until stopped

	ShowTimestamp bool // prefix result lines with [HH:MM:SS]
	ResolveDNS    bool // show reverse DNS names in reply lines
	Quiet         bool // suppress informational events

	Mark uint // SO_MARK for outgoing packets (Linux), 0 disables
}

// DefaultConfig returns the settings of a single-shot run.
func DefaultConfig() Config {
	return Config{
		Timeout:    time.Second,
		Interval:   time.Second,
		PacketSize: DefaultPacketSize,
		Count:      1,
	}
}

// Validate checks all values against their permitted ranges.
func (c Config) Validate() error {
	if c.PacketSize < MinPacketSize || c.PacketSize > MaxPacketSize {
		return fmt.Errorf("%w: packet size %d not in [%d, %d]", ErrInvalidConfig, c.PacketSize, MinPacketSize, MaxPacketSize)
	}
	if c.Interval < MinInterval || c.Interval > MaxInterval {
		return fmt.Errorf("%w: interval %v not in [%v, %v]", ErrInvalidConfig, c.Interval, MinInterval, MaxInterval)
	}
	if c.Timeout < MinTimeout || c.Timeout > MaxTimeout {
		return fmt.Errorf("%w: timeout %v not in [%v, %v]", ErrInvalidConfig, c.Timeout, MinTimeout, MaxTimeout)
	}
	if c.Count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrInvalidConfig, c.Count)
	}
	return nil
}

func (c Config) rounds() int {
	if c.Count < 1 {
		return 1
	}
	return c.Count
}
