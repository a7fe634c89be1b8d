package ping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(DefaultConfig().Validate())

	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"min packet size", func(c *Config) { c.PacketSize = MinPacketSize }, true},
		{"max packet size", func(c *Config) { c.PacketSize = MaxPacketSize }, true},
		{"small packet", func(c *Config) { c.PacketSize = MinPacketSize - 1 }, false},
		{"huge packet", func(c *Config) { c.PacketSize = MaxPacketSize + 1 }, false},
		{"short interval", func(c *Config) { c.Interval = 99 * time.Millisecond }, false},
		{"long interval", func(c *Config) { c.Interval = 5001 * time.Millisecond }, false},
		{"max interval", func(c *Config) { c.Interval = MaxInterval }, true},
		{"short timeout", func(c *Config) { c.Timeout = 0 }, false},
		{"long timeout", func(c *Config) { c.Timeout = time.Minute }, false},
		{"zero count", func(c *Config) { c.Count = 0 }, true},
		{"negative count", func(c *Config) { c.Count = -1 }, false},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.modify(&cfg)
		err := cfg.Validate()
		if tt.valid {
			assert.NoError(err, tt.name)
		} else {
			assert.ErrorIs(err, ErrInvalidConfig, tt.name)
		}
	}
}

func TestConfigRounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 0
	assert.Equal(t, 1, cfg.rounds())
	cfg.Count = 3
	assert.Equal(t, 3, cfg.rounds())
}
