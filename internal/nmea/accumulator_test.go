package nmea

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulator_MeanAndClear(t *testing.T) {
	acc := NewAccumulator()
	for _, v := range []float64{5, 7, 9} {
		acc.Add(ChannelSTW, v)
	}
	acc.Add(ChannelDepth, 12.5)

	means := acc.Drain()
	require.Contains(t, means, ChannelSTW)
	assert.InDelta(t, 7.0, means[ChannelSTW], 0.001)
	assert.InDelta(t, 12.5, means[ChannelDepth], 0.001)
	assert.NotContains(t, means, ChannelTWS)

	// Every buffer is empty immediately after the drain.
	for ch := Channel(0); ch < channelCount; ch++ {
		assert.Zero(t, acc.Len(ch))
	}
	assert.Empty(t, acc.Drain())
}

func TestAccumulator_AddAfterDrainIsNextWindow(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(ChannelTWS, 10)
	_ = acc.Drain()

	acc.Add(ChannelTWS, 20)
	means := acc.Drain()
	assert.InDelta(t, 20.0, means[ChannelTWS], 0.001)
}

func TestAccumulator_IgnoresOutOfRangeChannel(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(Channel(-1), 1)
	acc.Add(channelCount, 1)
	assert.Empty(t, acc.Drain())
}
