package middleware

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// cacheEntry 一次GET响应的缓存快照
type cacheEntry struct {
	status      int
	contentType string
	body        []byte
	expiresAt   time.Time
}

// responseCache 进程内的GET响应缓存，键为完整请求URI
type responseCache struct {
	entries map[string]*cacheEntry
	mu      sync.RWMutex
}

func newResponseCache() *responseCache {
	cache := &responseCache{entries: make(map[string]*cacheEntry)}
	go cache.cleanupLoop()
	return cache
}

func (rc *responseCache) get(key string) *cacheEntry {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	entry, exists := rc.entries[key]
	if !exists || time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry
}

func (rc *responseCache) set(key string, entry *cacheEntry) {
	rc.mu.Lock()
	rc.entries[key] = entry
	rc.mu.Unlock()
}

// cleanupLoop 每分钟清理过期条目
func (rc *responseCache) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		rc.mu.Lock()
		for key, entry := range rc.entries {
			if now.After(entry.expiresAt) {
				delete(rc.entries, key)
			}
		}
		rc.mu.Unlock()
	}
}

// cacheWriter 在写出响应的同时截留响应体
type cacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cacheWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

// CacheMiddleware 缓存成功的GET响应。只适合管理端的列表查询，
// 打卡链路和当日状态查询绝不能挂在它后面。
func CacheMiddleware(ttl time.Duration) gin.HandlerFunc {
	cache := newResponseCache()

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if entry := cache.get(key); entry != nil {
			c.Header("X-Cache", "HIT")
			c.Data(entry.status, entry.contentType, entry.body)
			c.Abort()
			return
		}

		writer := &cacheWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Header("X-Cache", "MISS")
		c.Next()

		// 只缓存成功响应
		if writer.Status() == http.StatusOK {
			cache.set(key, &cacheEntry{
				status:      writer.Status(),
				contentType: writer.Header().Get("Content-Type"),
				body:        writer.body.Bytes(),
				expiresAt:   time.Now().Add(ttl),
			})
		}
	}
}
