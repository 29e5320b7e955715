package nmea

import "sync"

// Accumulator buffers raw decoded values per channel between ticks.
//
// It is created once at service start and lives for the service's
// life; ticks clear it, nothing recreates it. The read loop appends
// while the tick loop drains, so it carries its own lock.
type Accumulator struct {
	mu  sync.Mutex
	buf [channelCount][]float64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) Add(ch Channel, v float64) {
	if a == nil || ch < 0 || ch >= channelCount {
		return
	}
	a.mu.Lock()
	a.buf[ch] = append(a.buf[ch], v)
	a.mu.Unlock()
}

// Len reports buffered observations for one channel.
func (a *Accumulator) Len(ch Channel) int {
	if a == nil || ch < 0 || ch >= channelCount {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buf[ch])
}

// Drain computes the per-channel arithmetic mean and clears every
// buffer. Channels with no observations this window are absent from
// the result. Clearing is all-or-nothing: a value pushed after Drain
// returns belongs to the next window.
func (a *Accumulator) Drain() map[Channel]float64 {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[Channel]float64)
	for ch := Channel(0); ch < channelCount; ch++ {
		vals := a.buf[ch]
		if len(vals) == 0 {
			continue
		}
		sum := 0.0
		for _, v := range vals {
			sum += v
		}
		out[ch] = sum / float64(len(vals))
		a.buf[ch] = a.buf[ch][:0]
	}
	return out
}
