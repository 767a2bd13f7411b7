package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/eventhub/backend/pkg/response"
)

// RateLimitTier selects the budget a route draws from.
type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"
	TierLogin  RateLimitTier = "login" // register/login: small burst, slow refill
)

const (
	limiterTTL      = 15 * time.Minute
	cleanupInterval = 5 * time.Minute
)

// RateLimiter hands out per-client token buckets per tier.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	budgets  map[RateLimitTier]tierBudget
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type tierBudget struct {
	every      time.Duration
	burst      int
	retryAfter time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter builds a limiter store. publicPerMinute and loginPer15Minutes of zero disable their tier.
// Call Close to stop the background cleanup.
func NewRateLimiter(publicPerMinute, loginPer15Minutes int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		budgets:  make(map[RateLimitTier]tierBudget),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if publicPerMinute > 0 {
		rl.budgets[TierPublic] = tierBudget{
			every:      time.Minute / time.Duration(publicPerMinute),
			burst:      publicPerMinute,
			retryAfter: time.Minute,
		}
	}
	if loginPer15Minutes > 0 {
		every := 15 * time.Minute / time.Duration(loginPer15Minutes)
		rl.budgets[TierLogin] = tierBudget{
			every:      every,
			burst:      loginPer15Minutes,
			retryAfter: every,
		}
	}
	go rl.cleanupLoop()
	return rl
}

// Limit returns a middleware enforcing tier per client IP.
func (rl *RateLimiter) Limit(tier RateLimitTier) gin.HandlerFunc {
	return func(c *gin.Context) {
		budget, ok := rl.budgets[tier]
		if !ok {
			c.Next()
			return
		}
		if !rl.limiter(tier, c.ClientIP(), budget).AllowN(rl.now(), 1) {
			c.Header("Retry-After", strconv.Itoa(int(budget.retryAfter.Seconds())))
			response.TooManyRequests(c, "Too many requests, please try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Close stops the background cleanup goroutine.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) limiter(tier RateLimitTier, key string, budget tierBudget) *rate.Limiter {
	lookup := string(tier) + ":" + key

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.limiters[lookup]; ok {
		entry.lastSeen = rl.now()
		return entry.limiter
	}
	l := rate.NewLimiter(rate.Every(budget.every), budget.burst)
	rl.limiters[lookup] = &limiterEntry{limiter: l, lastSeen: rl.now()}
	return l
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	cutoff := rl.now().Add(-limiterTTL)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}
