package http

import "time"

// rateLimiter caps how many requests one connection may submit per
// window. A zero limit disables the cap. The window resets lazily on
// the next allow call, so the limiter runs entirely on the read loop
// that owns it and needs no synchronization.
type rateLimiter struct {
	limit       int
	window      time.Duration
	counter     int
	windowStart time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{limit: limit, window: time.Minute}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	now := time.Now()
	if now.Sub(r.windowStart) >= r.window {
		r.windowStart = now
		r.counter = 0
	}

	r.counter++
	return r.counter <= r.limit
}
