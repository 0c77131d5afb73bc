package progress

import (
	"math"
	"sync"
	"time"
)

type entry struct {
	byteSize   int64
	uploaded   int64
	speedBPS   float64
	lastSample time.Time
}

// Aggregator combines per-task byte samples into session-wide metrics.
// Overall progress is byte-weighted so large files are not under-represented
// by a simple average of percentages.
type Aggregator struct {
	mu      sync.Mutex
	entries map[string]entry
}

// NewAggregator constructs an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{entries: make(map[string]entry)}
}

// Track registers a task's total size. Re-tracking an id resets its sample.
func (a *Aggregator) Track(id string, byteSize int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries[id] = entry{byteSize: byteSize}
}

// Observe records the latest byte count and instantaneous speed for a task.
// Unknown ids are ignored; the tracker removes tasks before late samples can
// re-add them.
func (a *Aggregator) Observe(id string, uploadedBytes int64, speedBPS float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.entries[id]
	if !ok {
		return
	}
	if uploadedBytes > e.byteSize {
		uploadedBytes = e.byteSize
	}
	e.uploaded = uploadedBytes
	e.speedBPS = speedBPS
	e.lastSample = time.Now()
	a.entries[id] = e
}

// Remove drops a task's contribution from all sums.
func (a *Aggregator) Remove(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.entries, id)
}

// TotalPercent returns the byte-weighted overall percentage, rounded to the
// nearest integer and clamped to [0,100]. An empty aggregator reports 0.
func (a *Aggregator) TotalPercent() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	var total, uploaded int64
	for _, e := range a.entries {
		total += e.byteSize
		uploaded += e.uploaded
	}
	if total <= 0 {
		return 0
	}
	percent := int(math.Round(float64(uploaded) / float64(total) * 100))
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return percent
}

// OverallSpeed returns the sum of each task's most recent instantaneous speed.
func (a *Aggregator) OverallSpeed() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var speed float64
	for _, e := range a.entries {
		speed += e.speedBPS
	}
	return speed
}

// ETASeconds estimates remaining transfer time. The second return value is
// false when overall speed is zero and no estimate is possible.
func (a *Aggregator) ETASeconds() (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var total, uploaded int64
	var speed float64
	for _, e := range a.entries {
		total += e.byteSize
		uploaded += e.uploaded
		speed += e.speedBPS
	}
	if speed <= 0 {
		return 0, false
	}
	remaining := total - uploaded
	if remaining < 0 {
		remaining = 0
	}
	return float64(remaining) / speed, true
}

// Totals returns the summed uploaded and total byte counts.
func (a *Aggregator) Totals() (uploadedBytes, totalBytes int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.entries {
		totalBytes += e.byteSize
		uploadedBytes += e.uploaded
	}
	return uploadedBytes, totalBytes
}
