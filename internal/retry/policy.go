package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"freighter/internal/config"
)

// Policy computes the delay before the next attempt of a failed task.
type Policy struct {
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration
}

// NewPolicy builds a Policy from engine configuration.
func NewPolicy(cfg config.Engine) Policy {
	return Policy{
		BaseDelay:  time.Duration(cfg.BaseRetryDelayMs) * time.Millisecond,
		Multiplier: cfg.RetryDelayMultiplier,
		MaxDelay:   time.Duration(cfg.MaxRetryDelayMs) * time.Millisecond,
	}
}

// Delay returns min(base * multiplier^retryCount, max).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	base := float64(p.BaseDelay)
	if base <= 0 {
		return 0
	}
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := base * math.Pow(multiplier, float64(retryCount))
	if max := float64(p.MaxDelay); max > 0 && delay > max {
		delay = max
	}
	return time.Duration(delay)
}

// classifier is implemented by errors that declare their own retryability
// (transport.StatusError, transport.ValidationError).
type classifier interface {
	Retryable() bool
}

// Retryable classifies a transfer error. Explicit cancellation and errors
// that classify themselves as terminal (validation rejections, 4xx statuses)
// are never retried. Every other error counts as transient, which covers
// timeouts, connection resets, and truncated transfers without enumerating
// them; the bounded retry budget decides their fate.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var c classifier
	if errors.As(err, &c) {
		return c.Retryable()
	}
	return true
}
