package searcher

import (
	"sync/atomic"
	"time"
)

// limiter caps a search by iteration count, wall-clock deadline, or both.
// Workers call next before each iteration, so an in-flight iteration always
// runs to completion even when the deadline passes mid-iteration.
type limiter struct {
	max      int64 // started-iteration cap; -1 for unlimited
	deadline time.Time
	count    atomic.Int64
}

func newLimiter(maxIterations int64, duration time.Duration) *limiter {
	l := &limiter{max: maxIterations}
	if duration > 0 {
		l.deadline = time.Now().Add(duration)
	}
	return l
}

// next reports whether another iteration may start.
func (l *limiter) next() bool {
	if !l.deadline.IsZero() && !time.Now().Before(l.deadline) {
		return false
	}
	if l.max >= 0 && l.count.Add(1) > l.max {
		return false
	}
	return true
}
