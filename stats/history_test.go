package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const ms = time.Millisecond

func BenchmarkAddReply(b *testing.B) {
	h := NewHistory(8)
	for i := 0; i < b.N; i++ {
		h.AddReply(time.Duration(i))
	}
}

func BenchmarkCompute(b *testing.B) {
	h := NewHistory(8)
	for i := 0; i < b.N; i++ {
		h.AddReply(time.Duration(i))
		h.Compute()
	}
}

func TestComputeEmpty(t *testing.T) {
	h := NewHistory(4)
	assert.Nil(t, h.Compute())
}

func TestComputeLost(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(4)
	h.AddLoss()

	metrics := h.Compute()
	assert.EqualValues(1, metrics.PacketsSent)
	assert.EqualValues(1, metrics.PacketsLost)
	assert.EqualValues(0, metrics.Best)
	assert.EqualValues(0, metrics.Worst)
	assert.EqualValues(0, metrics.Median)
	assert.EqualValues(0, metrics.Mean)
	assert.EqualValues(0, metrics.StdDev)
	assert.EqualValues(1, metrics.LossRate())
}

func TestComputeMedian(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(5)
	h.AddReply(300 * ms)
	h.AddReply(200 * ms)
	h.AddReply(100 * ms)
	h.AddReply(0)
	assert.EqualValues(150*ms, h.Compute().Median)

	h.AddReply(400 * ms)
	assert.EqualValues(200*ms, h.Compute().Median)
}

func TestCompute(t *testing.T) {
	assert := assert.New(t)

	// zero variance
	h := NewHistory(8)
	h.AddReply(100 * ms)
	h.AddReply(100 * ms)
	h.AddLoss()

	metrics := h.Compute()
	assert.EqualValues(100*ms, metrics.Best)
	assert.EqualValues(100*ms, metrics.Worst)
	assert.EqualValues(100*ms, metrics.Mean)
	assert.EqualValues(100*ms, metrics.Median)
	assert.EqualValues(0, metrics.StdDev)
	assert.EqualValues(3, metrics.PacketsSent)
	assert.EqualValues(1, metrics.PacketsLost)

	// results getting worse
	h.AddReply(200 * ms)
	h.AddReply(100 * ms)
	h.AddLoss()

	metrics = h.Compute()
	assert.EqualValues(100*ms, metrics.Best)
	assert.EqualValues(200*ms, metrics.Worst)
	assert.EqualValues(125*ms, metrics.Mean)
	assert.EqualValues(100*ms, metrics.Median)
	assert.EqualValues(43301270, metrics.StdDev)
	assert.EqualValues(6, metrics.PacketsSent)
	assert.EqualValues(2, metrics.PacketsLost)

	// finally something better
	h.AddReply(0)
	metrics = h.Compute()
	assert.EqualValues(0*ms, metrics.Best)
	assert.EqualValues(200*ms, metrics.Worst)
	assert.EqualValues(100*ms, metrics.Mean)
	assert.EqualValues(100*ms, metrics.Median)
	assert.EqualValues(63245553, metrics.StdDev)
	assert.EqualValues(7, metrics.PacketsSent)
	assert.EqualValues(2, metrics.PacketsLost)
}

func TestHistoryCapacity(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(3)
	assert.Equal(0, h.Len())
	h.AddReply(1)
	h.AddLoss()
	assert.Equal(2, h.Len())
	assert.Equal(2, h.position)
	h.AddReply(1)
	assert.Equal(3, h.Len())
	assert.Equal(0, h.position)

	h.AddReply(0)
	assert.Equal(3, h.Len())
	assert.Equal(1, h.position)
	assert.EqualValues(1, h.Compute().PacketsLost)

	// overwrite lost sample
	h.AddReply(0)
	assert.EqualValues(0, h.Compute().PacketsLost)

	h.Clear()
	assert.Equal(0, h.Len())
	assert.Nil(h.Compute())
}
