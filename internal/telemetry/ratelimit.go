package telemetry

import "time"

// RateLimiter suppresses repeat warnings within a window; used for the
// "pedestrian too close to wall" warning spec.md §7 requires but forbids
// emitting every tick.
type RateLimiter struct {
	window time.Duration
	last   map[string]time.Time
	nowFn  func() time.Time
}

// NewRateLimiter returns a limiter admitting at most one event per key
// every window.
func NewRateLimiter(window time.Duration) *RateLimiter {
	return &RateLimiter{window: window, last: map[string]time.Time{}, nowFn: time.Now}
}

// Allow reports whether key may fire now. Only allowed calls are recorded,
// so a suppressed call does not extend the window.
func (r *RateLimiter) Allow(key string) bool {
	now := r.nowFn()
	if prev, ok := r.last[key]; ok && now.Sub(prev) < r.window {
		return false
	}
	r.last[key] = now
	return true
}
