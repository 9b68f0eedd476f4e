package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/budgyapp/budgy-backend/internal/common"
)

const rateLimitMessage = "Too many requests from this IP, please try again later."

type windowEntry struct {
	start time.Time
	count int
}

// RateLimit is a fixed-window limiter keyed by client address. This is the
// blanket per-address cap on /api routes, independent of the per-user monthly
// quota.
func RateLimit(cfg common.RateLimitConfig, now func() time.Time) gin.HandlerFunc {
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 50
	}
	if now == nil {
		now = time.Now
	}

	var mu sync.Mutex
	windows := make(map[string]*windowEntry)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		t := now()

		mu.Lock()
		e, ok := windows[ip]
		if !ok || t.Sub(e.start) >= cfg.Window {
			e = &windowEntry{start: t}
			windows[ip] = e
			// drop stale windows opportunistically to keep the map bounded
			for k, v := range windows {
				if t.Sub(v.start) >= 2*cfg.Window {
					delete(windows, k)
				}
			}
		}
		e.count++
		over := e.count > cfg.MaxRequests
		mu.Unlock()

		if over {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": rateLimitMessage})
			c.Abort()
			return
		}
		c.Next()
	}
}
