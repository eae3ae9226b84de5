package server

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/Tyrowin/gorelay/internal/config"
)

// newRateLimiter returns a token bucket that admits cfg.Burst messages per
// cfg.RefillInterval, starting full.
func newRateLimiter(cfg config.RateLimitConfig) *rate.Limiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	interval := cfg.RefillInterval
	if interval <= 0 {
		interval = time.Second
	}

	return rate.NewLimiter(rate.Limit(float64(burst)/interval.Seconds()), burst)
}
