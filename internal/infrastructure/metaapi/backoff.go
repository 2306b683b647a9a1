package metaapi

import "time"

// RetryPolicy bounds the retry loop for transient upstream failures.
type RetryPolicy struct {
	MaxRetries int
	Base       time.Duration
	Ceiling    time.Duration
}

// DefaultRetryPolicy matches the upstream guidance: three retries with
// doubling backoff, capped so a stuck loop cannot stall a job for minutes.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		Base:       500 * time.Millisecond,
		Ceiling:    30 * time.Second,
	}
}

// Backoff returns the wait before retry number attempt (0-based):
// base * 2^attempt, capped at the ceiling.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.Ceiling {
			return p.Ceiling
		}
	}
	if d > p.Ceiling {
		return p.Ceiling
	}
	return d
}
