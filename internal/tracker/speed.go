package tracker

import "time"

// Speed is derived from a sliding window of recent byte samples rather than
// the whole attempt, so throughput reflects current network conditions.
const (
	speedWindow    = 5 * time.Second
	maxSpeedSample = 32
)

type sample struct {
	at    time.Time
	bytes int64
}

func appendSample(samples []sample, s sample) []sample {
	samples = append(samples, s)
	cutoff := s.at.Add(-speedWindow)
	start := 0
	for start < len(samples)-1 && samples[start].at.Before(cutoff) {
		start++
	}
	if over := len(samples) - start - maxSpeedSample; over > 0 {
		start += over
	}
	if start > 0 {
		samples = append(samples[:0], samples[start:]...)
	}
	return samples
}

func windowSpeed(samples []sample) float64 {
	if len(samples) < 2 {
		return 0
	}
	first := samples[0]
	last := samples[len(samples)-1]
	elapsed := last.at.Sub(first.at).Seconds()
	if elapsed <= 0 {
		return 0
	}
	delta := last.bytes - first.bytes
	if delta < 0 {
		return 0
	}
	return float64(delta) / elapsed
}
