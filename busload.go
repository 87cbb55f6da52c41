package canex

import (
	"context"
	"sync"
	"time"
)

const DefaultLoadInterval = 500 * time.Millisecond

// Sample is one bus-load measurement: payload bits per second over the tick
// interval that ended at Time.
type Sample struct {
	Time          time.Time
	BitsPerSecond float64
}

// BusLoad buckets received messages into bits-per-second samples. Attach
// OnMessage as a receive callback on a link or connection, then either drive
// Tick on your own cadence or let Run do it on a ticker. Rates count payload
// bits only, not wire overhead.
type BusLoad struct {
	interval time.Duration
	samples  chan Sample

	mu      sync.Mutex
	pending []*Message
	prev    time.Time
}

// NewBusLoad returns an aggregator sampling at the given interval, or every
// 500ms when interval is zero.
func NewBusLoad(interval time.Duration) *BusLoad {
	if interval <= 0 {
		interval = DefaultLoadInterval
	}
	return &BusLoad{
		interval: interval,
		samples:  make(chan Sample, 16),
		prev:     time.Now(),
	}
}

// OnMessage adds a message to the current bucket. Safe to call from a
// transport's receiver goroutine while Tick runs elsewhere.
func (b *BusLoad) OnMessage(m *Message) {
	b.mu.Lock()
	b.pending = append(b.pending, m)
	b.mu.Unlock()
}

// C delivers one sample per tick. When the consumer lags, samples are
// dropped rather than blocking the ticker.
func (b *BusLoad) C() <-chan Sample {
	return b.samples
}

// Tick closes the current bucket: the accumulated bits divided by the time
// since the previous tick. Zero or negative elapsed time yields a zero rate,
// never a division by zero.
func (b *BusLoad) Tick(now time.Time) Sample {
	b.mu.Lock()
	var bits int
	for _, m := range b.pending {
		bits += m.Bitsize()
	}
	b.pending = b.pending[:0]
	elapsed := now.Sub(b.prev).Seconds()
	b.prev = now
	b.mu.Unlock()

	var bps float64
	if elapsed > 0 {
		bps = float64(bits) / elapsed
	}
	s := Sample{Time: now, BitsPerSecond: bps}
	select {
	case b.samples <- s:
	default:
	}
	return s
}

// Run ticks at the configured interval until ctx is done.
func (b *BusLoad) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			b.Tick(now)
		}
	}
}
