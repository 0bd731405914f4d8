package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/hearthstay/server/internal/errors"
	"github.com/hearthstay/server/internal/util"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
	// KeyFunc picks the bucket; defaults to the client IP
	KeyFunc func(c *gin.Context) string
	// IdleTTL is how long an unused bucket is kept
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns the general API limit
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:  300,
		Window: time.Minute,
	}
}

// APIRateLimitConfig limits all /api requests per client IP
func APIRateLimitConfig(perMinute int) RateLimitConfig {
	cfg := DefaultRateLimitConfig()
	if perMinute > 0 {
		cfg.Limit = perMinute
	}
	return cfg
}

// UsageRateLimitConfig limits usage reports per caller
func UsageRateLimitConfig(perMinute int) RateLimitConfig {
	if perMinute <= 0 {
		perMinute = 120
	}
	return RateLimitConfig{
		Limit:   perMinute,
		Window:  time.Minute,
		KeyFunc: UserOrIPKey,
	}
}

// UserOrIPKey buckets authenticated callers by user and the rest by IP
func UserOrIPKey(c *gin.Context) string {
	if userID, ok := util.OptionalUserID(c); ok {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key
type RateLimiter struct {
	config   RateLimitConfig
	limit    rate.Limit
	mu       sync.Mutex
	visitors map[string]*visitor
	lastGC   time.Time
}

// NewRateLimiter creates a limiter. Buckets refill at Limit per Window and
// burst up to Limit.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.Limit <= 0 {
		config.Limit = DefaultRateLimitConfig().Limit
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * config.Window
	}
	return &RateLimiter{
		config:   config,
		limit:    rate.Limit(float64(config.Limit) / config.Window.Seconds()),
		visitors: make(map[string]*visitor),
		lastGC:   time.Now(),
	}
}

// Allow reports whether key may make a request now, and if not how long to wait
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.gc(now)

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.config.Limit)}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, rl.config.Window
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// gc drops idle buckets at most once per IdleTTL; callers hold mu
func (rl *RateLimiter) gc(now time.Time) {
	if now.Sub(rl.lastGC) < rl.config.IdleTTL {
		return
	}
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.config.IdleTTL {
			delete(rl.visitors, key)
		}
	}
	rl.lastGC = now
}

// Middleware returns the gin handler for this limiter
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, wait := rl.Allow(rl.config.KeyFunc(c))
		if !allowed {
			retryAfter := int(math.Ceil(wait.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			RecordRateLimitExceeded(routePath(c), c.Request.Method)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
			c.Header("X-RateLimit-Remaining", "0")
			util.RespondWithAPIError(c, apperrors.RateLimited(""))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimit returns the general API middleware
func RateLimit(perMinute int) gin.HandlerFunc {
	return NewRateLimiter(APIRateLimitConfig(perMinute)).Middleware()
}

// RateLimitUsage returns the middleware guarding usage reports
func RateLimitUsage(perMinute int) gin.HandlerFunc {
	return NewRateLimiter(UsageRateLimitConfig(perMinute)).Middleware()
}
