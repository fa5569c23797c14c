package trafficstats

import (
	"context"
	"sync/atomic"
	"time"
)

// Snapshot is a point-in-time view of one device's counters.
type Snapshot struct {
	RXFrames     uint64
	TXFrames     uint64
	RXBytesTotal uint64
	TXBytesTotal uint64
	RXRate       uint64 // bytes/sec
	TXRate       uint64 // bytes/sec
}

// Collector counts frames and bytes in both directions and, while Start runs,
// keeps an exponentially smoothed byte rate. One Collector per tap.
type Collector struct {
	rxFrames     atomic.Uint64
	txFrames     atomic.Uint64
	rxBytesTotal atomic.Uint64
	txBytesTotal atomic.Uint64
	rxRate       atomic.Uint64
	txRate       atomic.Uint64

	sampleInterval time.Duration
	emaAlpha       float64

	// accessed only from the single sampler goroutine in Start()
	lastRX  uint64
	lastTX  uint64
	rxEMA   float64
	txEMA   float64
	started atomic.Bool
}

func NewCollector(sampleInterval time.Duration, emaAlpha float64) *Collector {
	if sampleInterval <= 0 {
		sampleInterval = time.Second
	}
	emaAlpha = min(max(emaAlpha, 0), 1)
	return &Collector{
		sampleInterval: sampleInterval,
		emaAlpha:       emaAlpha,
	}
}

// Start samples rates until ctx is done. Only the first call does anything.
func (c *Collector) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}

	ticker := time.NewTicker(c.sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.updateRates(c.sampleInterval)
		}
	}
}

// AddRX records one frame read from the device. Nil receivers are ignored so
// callers need not check whether stats are enabled.
func (c *Collector) AddRX(bytes int) {
	if c == nil || bytes <= 0 {
		return
	}
	c.rxFrames.Add(1)
	c.rxBytesTotal.Add(uint64(bytes))
}

// AddTX records one frame written to the device.
func (c *Collector) AddTX(bytes int) {
	if c == nil || bytes <= 0 {
		return
	}
	c.txFrames.Add(1)
	c.txBytesTotal.Add(uint64(bytes))
}

func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	return Snapshot{
		RXFrames:     c.rxFrames.Load(),
		TXFrames:     c.txFrames.Load(),
		RXBytesTotal: c.rxBytesTotal.Load(),
		TXBytesTotal: c.txBytesTotal.Load(),
		RXRate:       c.rxRate.Load(),
		TXRate:       c.txRate.Load(),
	}
}

func (c *Collector) updateRates(interval time.Duration) {
	seconds := interval.Seconds()
	if seconds <= 0 {
		return
	}

	rxNow := c.rxBytesTotal.Load()
	txNow := c.txBytesTotal.Load()

	rxPerSec := float64(rxNow-c.lastRX) / seconds
	txPerSec := float64(txNow-c.lastTX) / seconds
	c.lastRX = rxNow
	c.lastTX = txNow

	if c.emaAlpha > 0 {
		c.rxEMA = smooth(c.rxEMA, rxPerSec, c.emaAlpha)
		c.txEMA = smooth(c.txEMA, txPerSec, c.emaAlpha)
		rxPerSec = c.rxEMA
		txPerSec = c.txEMA
	}

	c.rxRate.Store(uint64(rxPerSec))
	c.txRate.Store(uint64(txPerSec))
}

func smooth(prev, sample, alpha float64) float64 {
	if prev == 0 {
		return sample
	}
	return alpha*sample + (1-alpha)*prev
}
