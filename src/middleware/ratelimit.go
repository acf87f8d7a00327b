package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RateLimiter is a fixed-window per-client limiter. Counters for a client's
// stale windows are dropped when its new window starts.
type RateLimiter struct {
	maxRequests int
	window      time.Duration

	mu       sync.Mutex
	counters map[string]int
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		counters:    make(map[string]int),
	}
}

func (rl *RateLimiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := rl.windowKey(clientIP, time.Now())

	count, exists := rl.counters[key]
	if !exists {
		rl.dropStaleWindows(clientIP, key)
		rl.counters[key] = 1
		return true
	}

	if count >= rl.maxRequests {
		return false
	}

	rl.counters[key] = count + 1
	return true
}

func (rl *RateLimiter) windowKey(clientIP string, now time.Time) string {
	windowNumber := now.UnixNano() / int64(rl.window)
	return clientIP + "_" + strconv.FormatInt(windowNumber, 10)
}

func (rl *RateLimiter) dropStaleWindows(clientIP, currentKey string) {
	prefix := clientIP + "_"
	for key := range rl.counters {
		if key != currentKey && len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(rl.counters, key)
		}
	}
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientIP := clientID(c)

		if !rl.Allow(clientIP) {
			log.Warn().
				Str("client_ip", clientIP).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Int("max_requests", rl.maxRequests).
				Msg("Rate limit exceeded")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please try again later.",
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.maxRequests))
		c.Set("X-RateLimit-Window", rl.window.String())

		return c.Next()
	}
}

func clientID(c *fiber.Ctx) string {
	if ip := c.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := c.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return c.IP()
}
