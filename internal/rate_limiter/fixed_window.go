package ratelimiter

import (
	"sync"
	"time"

	"github.com/SeakMengs/BasicPDF/internal/config"
	"go.uber.org/zap"
)

type window struct {
	start time.Time
	count int
}

// FixedWindowRateLimiter allows a number of requests per key in each time frame.
type FixedWindowRateLimiter struct {
	sync.Mutex
	clients map[string]*window
	limit   int
	frame   time.Duration
	logger  *zap.SugaredLogger
	now     func() time.Time
}

func NewFixedWindowLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *FixedWindowRateLimiter {
	frame := cfg.TimeFrame
	if frame <= 0 {
		frame = time.Minute
	}

	return &FixedWindowRateLimiter{
		clients: make(map[string]*window),
		limit:   cfg.RequestsPerTimeFrame,
		frame:   frame,
		logger:  logger,
		now:     time.Now,
	}
}

// Allow counts one request for key. When the limit is reached it returns false and
// how long until the window resets.
func (rl *FixedWindowRateLimiter) Allow(key string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	w, ok := rl.clients[key]
	if !ok || now.Sub(w.start) >= rl.frame {
		rl.prune(now)
		rl.clients[key] = &window{start: now, count: 1}
		return true, 0
	}

	if w.count >= rl.limit {
		retryAfter := rl.frame - now.Sub(w.start)
		rl.logger.Debugf("Rate limit reached for %s, retry after %v", key, retryAfter)
		return false, retryAfter
	}

	w.count++
	return true, 0
}

// prune drops the windows that already ended. Caller must hold the lock.
func (rl *FixedWindowRateLimiter) prune(now time.Time) {
	for key, w := range rl.clients {
		if now.Sub(w.start) >= rl.frame {
			delete(rl.clients, key)
		}
	}
}
