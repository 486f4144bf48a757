package notify

import (
	"sync"
	"time"
)

// Limiter caps events per cluster and category inside a tumbling
// window. Windows do not slide: the first event opens a window, and
// once it expires the next event opens a fresh one with a zero count.
type Limiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	counts map[string]*windowState
	now    func() time.Time
}

type windowState struct {
	start time.Time
	count int
}

// NewLimiter allows max events per cluster+category per window.
// max <= 0 means unlimited.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:    max,
		window: window,
		counts: make(map[string]*windowState),
		now:    time.Now,
	}
}

// Allow reports whether one more event fits in the current window and
// counts it when it does.
func (l *Limiter) Allow(cluster string, cat Category) bool {
	if l.max <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := cluster + "/" + string(cat)
	now := l.now()

	w := l.counts[key]
	if w == nil || now.After(w.start.Add(l.window)) {
		w = &windowState{start: now}
		l.counts[key] = w
	}
	if w.count >= l.max {
		return false
	}
	w.count++
	return true
}
