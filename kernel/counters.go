package kernel

import "sync/atomic"

// Counters holds one monotonically increasing execution counter per
// supported language. Increments for one language are atomic and never block
// calls for another language; the map itself is fixed at construction and
// only read afterwards.
type Counters struct {
	counts map[Language]*atomic.Int64
}

// NewCounters creates a counter set with every supported language at zero.
func NewCounters() *Counters {
	counts := make(map[Language]*atomic.Int64, len(Languages()))
	for _, lang := range Languages() {
		counts[lang] = &atomic.Int64{}
	}
	return &Counters{counts: counts}
}

// Next increments the language's counter and returns the new value. The
// first call for a language returns 1.
func (c *Counters) Next(lang Language) int {
	counter, ok := c.counts[lang]
	if !ok {
		return 0
	}
	return int(counter.Add(1))
}

// Current returns the language's counter without incrementing it.
func (c *Counters) Current(lang Language) int {
	counter, ok := c.counts[lang]
	if !ok {
		return 0
	}
	return int(counter.Load())
}

// Reset sets one language's counter back to zero.
func (c *Counters) Reset(lang Language) {
	if counter, ok := c.counts[lang]; ok {
		counter.Store(0)
	}
}

// ResetAll sets every counter back to zero.
func (c *Counters) ResetAll() {
	for _, counter := range c.counts {
		counter.Store(0)
	}
}
