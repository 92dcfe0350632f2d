package middleware

import (
	"sync"
	"time"

	"faceclock-http-service/internal/error/code"
	"faceclock-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// tokenBucket 令牌桶限流器
type tokenBucket struct {
	rate       float64 // 每秒填充的令牌数
	capacity   float64 // 桶的容量
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(rate float64, capacity int) *tokenBucket {
	return &tokenBucket{
		rate:       rate,
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Allow 尝试获取一个令牌
func (tb *tokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.tokens += now.Sub(tb.lastRefill).Seconds() * tb.rate
	tb.lastRefill = now
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// limiterPool 按键维护一组令牌桶，键长期不活跃时由清理协程回收
type limiterPool struct {
	rate     float64
	burst    int
	buckets  map[string]*tokenBucket
	lastSeen map[string]time.Time
	mu       sync.Mutex
}

func newLimiterPool(rate float64, burst int) *limiterPool {
	p := &limiterPool{
		rate:     rate,
		burst:    burst,
		buckets:  make(map[string]*tokenBucket),
		lastSeen: make(map[string]time.Time),
	}
	go p.cleanupLoop()
	return p
}

func (p *limiterPool) get(key string) *tokenBucket {
	p.mu.Lock()
	defer p.mu.Unlock()

	bucket, exists := p.buckets[key]
	if !exists {
		bucket = newTokenBucket(p.rate, p.burst)
		p.buckets[key] = bucket
	}
	p.lastSeen[key] = time.Now()
	return bucket
}

// cleanupLoop 每小时清理一小时未出现的键
func (p *limiterPool) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		p.mu.Lock()
		for key, seen := range p.lastSeen {
			if seen.Before(cutoff) {
				delete(p.buckets, key)
				delete(p.lastSeen, key)
			}
		}
		p.mu.Unlock()
	}
}

// rateLimit 用给定的键函数做限流
func rateLimit(pool *limiterPool, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !pool.get(keyFunc(c)).Allow() {
			response.FailWithMessage(c, code.ErrTooManyRequests, "请求频率过高，请稍后再试", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// IPRateLimiter 按客户端IP限流
func IPRateLimiter(rate float64, burst int) gin.HandlerFunc {
	pool := newLimiterPool(rate, burst)
	return rateLimit(pool, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// PathRateLimiter 按请求路径限流
func PathRateLimiter(rate float64, burst int) gin.HandlerFunc {
	pool := newLimiterPool(rate, burst)
	return rateLimit(pool, func(c *gin.Context) string {
		return c.Request.URL.Path
	})
}

// CombinedRateLimiter 按IP和路径组合限流。打卡接口用它限制
// 单个客户端对验证链路的压力，不影响其他员工正常打卡。
func CombinedRateLimiter(rate float64, burst int) gin.HandlerFunc {
	pool := newLimiterPool(rate, burst)
	return rateLimit(pool, func(c *gin.Context) string {
		return c.ClientIP() + ":" + c.Request.URL.Path
	})
}
